package server

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/agents/banking"
	"github.com/hrygo/agenthub/ai/agents/fhir"
	"github.com/hrygo/agenthub/ai/agents/general"
	"github.com/hrygo/agenthub/ai/agents/ida"
	"github.com/hrygo/agenthub/ai/agents/multimodal"
	"github.com/hrygo/agenthub/ai/agents/nasa"
	"github.com/hrygo/agenthub/ai/agents/orchestrator"
	"github.com/hrygo/agenthub/ai/agents/rag"
	"github.com/hrygo/agenthub/ai/agents/registry"
	"github.com/hrygo/agenthub/ai/agents/sqlquery"
	"github.com/hrygo/agenthub/ai/agents/traffic"
	"github.com/hrygo/agenthub/ai/agents/weather"
	"github.com/hrygo/agenthub/ai/azuremaps"
	"github.com/hrygo/agenthub/ai/claims"
	"github.com/hrygo/agenthub/ai/configloader"
	"github.com/hrygo/agenthub/ai/core/embedding"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/core/reranker"
	"github.com/hrygo/agenthub/ai/evaluation"
	"github.com/hrygo/agenthub/ai/memory"
	"github.com/hrygo/agenthub/ai/memory/dbstore"
	"github.com/hrygo/agenthub/ai/memory/redisstore"
	"github.com/hrygo/agenthub/ai/memory/simple"
	"github.com/hrygo/agenthub/ai/metrics"
	"github.com/hrygo/agenthub/ai/routing"
	"github.com/hrygo/agenthub/ai/session"
	"github.com/hrygo/agenthub/ai/stats"
	"github.com/hrygo/agenthub/ai/vector"
	"github.com/hrygo/agenthub/internal/profile"
	"github.com/hrygo/agenthub/store"
	"github.com/hrygo/agenthub/store/db/postgres"
	"github.com/hrygo/agenthub/store/db/sqlite"
)

// hub holds every long-lived component behind the API.
type hub struct {
	llm          llm.Service
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
	metrics      *metrics.PrometheusExporter

	redis   redis.UniversalClient
	closers []func() error
}

func (h *hub) close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			slog.Warn("server: failed to close resource", "error", err)
		}
	}
}

// newHub builds the LLM services, the agents, the registry and the orchestrator from profile.
func newHub(ctx context.Context, profile *profile.Profile, st *store.Store) (_ *hub, err error) {
	if !profile.IsAIEnabled() {
		return nil, errors.New("no LLM configured: set AGENTHUB_LLM_API_KEY or use the ollama provider")
	}

	h := &hub{metrics: metrics.NewPrometheusExporter(metrics.DefaultConfig())}
	defer func() {
		if err != nil {
			h.close()
		}
	}()

	h.llm, err = llm.NewService(&llm.Config{
		Provider:   profile.LLMProvider,
		Model:      profile.LLMModel,
		APIKey:     profile.LLMAPIKey,
		BaseURL:    profile.LLMBaseURL,
		APIVersion: profile.LLMAPIVersion,
		Timeout:    profile.LLMTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create LLM service")
	}
	slog.Info("server: LLM service initialized", "provider", profile.LLMProvider, "model", profile.LLMModel)

	// Warm the connection up in the background; failures only cost first-request latency.
	go func() {
		warmupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.llm.Warmup(warmupCtx)
	}()

	if profile.RedisAddr != "" {
		h.redis = redis.NewClient(&redis.Options{
			Addr:     profile.RedisAddr,
			Password: profile.RedisPassword,
			DB:       profile.RedisDB,
		})
		h.closers = append(h.closers, h.redis.Close)
		if err := h.redis.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrapf(err, "failed to reach redis at %s", profile.RedisAddr)
		}
	}

	agentsCfg, err := loadAgentsConfig(profile)
	if err != nil {
		return nil, err
	}

	searcher, err := h.newSearcher(ctx, profile)
	if err != nil {
		return nil, err
	}

	h.registry = registry.New(
		registry.WithTimeout(profile.AgentTimeoutDuration()),
		registry.WithRecorder(h.metrics),
	)
	if err := h.registerAgents(profile, searcher, agentsCfg); err != nil {
		return nil, err
	}

	mem, err := h.newMemory(profile, st)
	if err != nil {
		return nil, err
	}

	opts := []orchestrator.Option{
		orchestrator.WithConfig(orchestrator.Config{
			Rates: stats.Rates{InputPer1K: profile.CostInputPer1K, OutputPer1K: profile.CostOutputPer1K},
		}),
		orchestrator.WithMemory(mem),
		orchestrator.WithRecorder(h.metrics),
		orchestrator.WithCostGuard(stats.NewCostGuard(profile.CostAlertUSD, slog.Default())),
	}
	if h.redis != nil {
		opts = append(opts, orchestrator.WithLocker(session.NewRedisLocker(h.redis, session.DefaultLockConfig())))
	}
	if profile.EvaluationEnabled {
		opts = append(opts, orchestrator.WithEvaluator(
			evaluation.NewRunner(evaluation.NewJudge(h.llm), evaluation.DefaultTimeout, h.metrics)))
	}

	classifier := routing.NewClassifier(h.llm, h.registry, classifierConfig(agentsCfg))
	h.orchestrator = orchestrator.New(h.registry, classifier, opts...)

	slog.Info("server: agents registered", "agents", h.registry.Names(), "memory", profile.MemoryBackend)
	return h, nil
}

func loadAgentsConfig(profile *profile.Profile) (*configloader.AgentsConfig, error) {
	if profile.AgentsConfig == "" {
		return nil, nil
	}
	cfg, err := configloader.NewLoader(profile.Data).LoadAgents(profile.AgentsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load agents config")
	}
	slog.Info("server: agents config loaded", "path", profile.AgentsConfig)
	return cfg, nil
}

func classifierConfig(agentsCfg *configloader.AgentsConfig) routing.Config {
	cfg := routing.DefaultConfig()
	if agentsCfg == nil {
		return cfg
	}
	if n := agentsCfg.Classifier.HistoryTurns; n > 0 {
		cfg.HistoryTurns = n
	}
	if d := agentsCfg.Classifier.Timeout; d > 0 {
		cfg.Timeout = d
	}
	if agentsCfg.Classifier.Cache != nil {
		cfg.EnableCache = *agentsCfg.Classifier.Cache
	}
	return cfg
}

// newSearcher connects to the pgvector database. Without one, index lookups report ErrUnavailable.
func (h *hub) newSearcher(ctx context.Context, profile *profile.Profile) (vector.Searcher, error) {
	if profile.VectorDSN == "" {
		slog.Warn("server: AGENTHUB_VECTOR_DSN not set, index search is disabled")
		return vector.Unavailable{}, nil
	}

	embedder, err := embedding.NewService(&embedding.Config{
		Provider:   profile.EmbeddingProvider,
		BaseURL:    profile.EmbeddingBaseURL,
		APIKey:     profile.EmbeddingAPIKey,
		APIVersion: profile.LLMAPIVersion,
		Model:      profile.EmbeddingModel,
		Dimensions: profile.EmbeddingDim,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}

	vectorDB, err := postgres.Open(profile.VectorDSN, profile)
	if err != nil {
		return nil, err
	}
	h.closers = append(h.closers, vectorDB.Close)
	if err := vectorDB.MigrateDocuments(ctx, embedder.Dimensions()); err != nil {
		return nil, errors.Wrap(err, "failed to prepare vector table")
	}
	return vector.NewStoreSearcher(embedder, vectorDB), nil
}

func (h *hub) newMemory(profile *profile.Profile, st *store.Store) (memory.Store, error) {
	switch profile.MemoryBackend {
	case "redis":
		if h.redis == nil {
			return nil, errors.New("redis memory backend requires AGENTHUB_REDIS_ADDR")
		}
		return redisstore.NewStore(h.redis, redisstore.DefaultConfig()), nil
	case "sql":
		if st == nil {
			return nil, errors.New("sql memory backend requires a store")
		}
		return dbstore.NewStore(st), nil
	default:
		return simple.NewStore(0), nil
	}
}

func (h *hub) stateStore() session.StateStore {
	if h.redis != nil {
		return session.NewRedisStateStore(h.redis, 24*time.Hour)
	}
	return session.NewMemoryStateStore()
}

func (h *hub) openReadOnly(name, path string) (*sql.DB, bool) {
	if path == "" {
		slog.Warn("server: database path not set, agent disabled", "agent", name)
		return nil, false
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		slog.Warn("server: failed to open database, agent disabled", "agent", name, "path", path, "error", err)
		return nil, false
	}
	h.closers = append(h.closers, db.Close)
	return db, true
}

// registerAgents registers agents in vocabulary order. Agents whose
// backing database is missing are skipped and resolve to the fallback.
func (h *hub) registerAgents(profile *profile.Profile, searcher vector.Searcher, agentsCfg *configloader.AgentsConfig) error {
	var docs vector.Searcher
	if _, ok := searcher.(vector.Unavailable); !ok {
		docs = searcher
	}
	rerank := reranker.NewService(&reranker.Config{
		Model:   profile.RerankModel,
		APIKey:  profile.RerankAPIKey,
		BaseURL: profile.RerankBaseURL,
		Enabled: profile.RerankBaseURL != "",
	})

	if profile.AzureMapsKey == "" {
		slog.Warn("server: AGENTHUB_AZURE_MAPS_KEY not set, weather and traffic lookups will fail")
	}
	maps := azuremaps.New(azuremaps.Config{
		SubscriptionKey: profile.AzureMapsKey,
		ClientID:        profile.AzureMapsClientID,
	})
	vision := multimodal.New(h.llm)

	list := []agents.Agent{
		rag.New(h.llm, docs, rag.WithReranker(rerank)),
		vision,
		nasa.New(h.llm, nasa.Config{APIKey: profile.NASAAPIKey}),
		general.New(h.llm),
		weather.New(h.llm, maps),
		traffic.New(h.llm, maps, traffic.Config{TomTomKey: profile.TomTomKey}),
	}

	if db, ok := h.openReadOnly(agents.SQL, profile.NorthwindDB); ok {
		northwind := sqlquery.NewDatabase(db, sqlquery.DefaultMaxRows)
		list = append(list, sqlquery.NewSQLAgent(h.llm, northwind), sqlquery.NewVizAgent(h.llm, northwind))
	}

	list = append(list,
		claims.NewAgent(h.stateStore(), claims.NewPipeline(h.llm, searcher)),
		ida.New(h.llm, vision, searcher),
		fhir.New(h.llm, fhir.Config{BaseURL: profile.FHIRBaseURL}),
	)

	if db, ok := h.openReadOnly(agents.Banking, profile.BankingDB); ok {
		data := banking.NewDataAgent(h.llm, sqlquery.NewDatabase(db, sqlquery.DefaultMaxRows))
		list = append(list, banking.New(h.llm, data, searcher))
	}

	for _, a := range agentsCfg.Apply(list) {
		if err := h.registry.Register(a); err != nil {
			return errors.Wrapf(err, "failed to register agent %s", a.Name())
		}
	}
	return nil
}
