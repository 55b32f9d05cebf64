package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Server
	Mode     string
	Addr     string
	Port     int
	Data     string
	Driver   string // sqlite, postgres
	DSN      string
	Version  string
	LogLevel string

	// Memory and session backends
	MemoryBackend string // memory, redis, sql
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Unified LLM configuration (OpenAI-compatible protocol, or azure)
	LLMProvider   string
	LLMAPIKey     string
	LLMBaseURL    string
	LLMModel      string
	LLMAPIVersion string // azure only
	LLMTimeout    int    // seconds

	// Embedding configuration
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingAPIKey   string
	EmbeddingBaseURL  string
	EmbeddingDim      int

	// VectorDSN points at the pgvector database holding the search indexes.
	VectorDSN string

	// Reranker configuration; an empty base URL keeps search order.
	RerankModel   string
	RerankAPIKey  string
	RerankBaseURL string

	// Request handling
	RequestTimeout     int // seconds
	AgentTimeout       int // seconds
	MaxUploadMB        int
	MaxConcurrentChats int
	EvaluationEnabled  bool

	// AgentsConfig is an optional agents.yaml with per-agent overrides.
	AgentsConfig string

	// Cost rates in USD per 1K tokens
	CostInputPer1K  float64
	CostOutputPer1K float64
	CostAlertUSD    float64

	// Upstream services used by individual agents
	NASAAPIKey        string
	AzureMapsKey      string
	AzureMapsClientID string
	TomTomKey         string
	FHIRBaseURL       string
	NorthwindDB       string
	BankingDB         string
}

// Provider default configurations for LLM.
// Used when the base URL or model is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"azure": {
		Model: "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4o",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM is reachable with the current configuration.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// UploadDir is where uploaded files are stored.
func (p *Profile) UploadDir() string {
	return filepath.Join(p.Data, "uploads")
}

// RequestTimeoutDuration returns the end-to-end chat timeout.
func (p *Profile) RequestTimeoutDuration() time.Duration {
	return time.Duration(p.RequestTimeout) * time.Second
}

// AgentTimeoutDuration returns the per-agent call timeout.
func (p *Profile) AgentTimeoutDuration() time.Duration {
	return time.Duration(p.AgentTimeout) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes.
func (p *Profile) MaxUploadBytes() int64 {
	return int64(p.MaxUploadMB) << 20
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
// Values already set from flags win for the server keys.
func (p *Profile) FromEnv() {
	if p.LogLevel == "" {
		p.LogLevel = getEnvOrDefault("AGENTHUB_LOG_LEVEL", "info")
	}
	if p.Port == 0 {
		p.Port = getEnvOrDefaultInt("AGENTHUB_PORT", 8000)
	}

	p.MemoryBackend = getEnvOrDefault("AGENTHUB_MEMORY_BACKEND", "memory")
	p.RedisAddr = getEnvOrDefault("AGENTHUB_REDIS_ADDR", "")
	p.RedisPassword = getEnvOrDefault("AGENTHUB_REDIS_PASSWORD", "")
	p.RedisDB = getEnvOrDefaultInt("AGENTHUB_REDIS_DB", 0)

	p.LLMProvider = getEnvOrDefault("AGENTHUB_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("AGENTHUB_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("AGENTHUB_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("AGENTHUB_LLM_MODEL", "")
	p.LLMAPIVersion = getEnvOrDefault("AGENTHUB_LLM_API_VERSION", "2024-10-21")
	p.LLMTimeout = getEnvOrDefaultInt("AGENTHUB_LLM_TIMEOUT_SECONDS", 120)

	// Validate and apply provider defaults if not explicitly set
	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("profile: unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	defaults := llmProviderDefaults[p.LLMProvider]
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = defaults.BaseURL
	}
	if p.LLMModel == "" {
		p.LLMModel = defaults.Model
	}

	p.EmbeddingProvider = getEnvOrDefault("AGENTHUB_EMBEDDING_PROVIDER", p.LLMProvider)
	p.EmbeddingModel = getEnvOrDefault("AGENTHUB_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingAPIKey = getEnvOrDefault("AGENTHUB_EMBEDDING_API_KEY", p.LLMAPIKey)
	p.EmbeddingBaseURL = getEnvOrDefault("AGENTHUB_EMBEDDING_BASE_URL", p.LLMBaseURL)
	p.EmbeddingDim = getEnvOrDefaultInt("AGENTHUB_EMBEDDING_DIM", 1536)
	p.VectorDSN = getEnvOrDefault("AGENTHUB_VECTOR_DSN", "")

	p.RerankModel = getEnvOrDefault("AGENTHUB_RERANK_MODEL", "BAAI/bge-reranker-v2-m3")
	p.RerankAPIKey = getEnvOrDefault("AGENTHUB_RERANK_API_KEY", p.LLMAPIKey)
	p.RerankBaseURL = getEnvOrDefault("AGENTHUB_RERANK_BASE_URL", "")

	p.RequestTimeout = getEnvOrDefaultInt("AGENTHUB_REQUEST_TIMEOUT_SECONDS", 120)
	p.AgentTimeout = getEnvOrDefaultInt("AGENTHUB_AGENT_TIMEOUT_SECONDS", 90)
	p.MaxUploadMB = getEnvOrDefaultInt("AGENTHUB_MAX_UPLOAD_MB", 50)
	p.MaxConcurrentChats = getEnvOrDefaultInt("AGENTHUB_MAX_CONCURRENT_CHATS", 16)
	p.EvaluationEnabled = getEnvOrDefaultBool("AGENTHUB_EVALUATION_ENABLED", true)
	p.AgentsConfig = getEnvOrDefault("AGENTHUB_AGENTS_CONFIG", "")

	p.CostInputPer1K = getEnvOrDefaultFloat("AGENTHUB_COST_INPUT_PER_1K", 0.002)
	p.CostOutputPer1K = getEnvOrDefaultFloat("AGENTHUB_COST_OUTPUT_PER_1K", 0.008)
	p.CostAlertUSD = getEnvOrDefaultFloat("AGENTHUB_COST_ALERT_USD", 0)

	p.NASAAPIKey = getEnvOrDefault("AGENTHUB_NASA_API_KEY", "DEMO_KEY")
	p.AzureMapsKey = getEnvOrDefault("AGENTHUB_AZURE_MAPS_KEY", "")
	p.AzureMapsClientID = getEnvOrDefault("AGENTHUB_AZURE_MAPS_CLIENT_ID", "")
	p.TomTomKey = getEnvOrDefault("AGENTHUB_TOMTOM_KEY", "")
	p.FHIRBaseURL = getEnvOrDefault("AGENTHUB_FHIR_BASE_URL", "")
	p.NorthwindDB = getEnvOrDefault("AGENTHUB_NORTHWIND_DB", "")
	p.BankingDB = getEnvOrDefault("AGENTHUB_BANKING_DB", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		if p.Mode == "prod" && runtime.GOOS != "windows" {
			p.Data = "/var/opt/agenthub"
		} else {
			p.Data = "."
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("profile: failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if err := os.MkdirAll(p.UploadDir(), 0o750); err != nil {
		return errors.Wrapf(err, "failed to create upload folder %s", p.UploadDir())
	}

	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("agenthub_%s.db", p.Mode))
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn required for postgres driver")
		}
	default:
		return errors.Errorf("unsupported driver %q", p.Driver)
	}

	switch p.MemoryBackend {
	case "memory", "sql":
	case "redis":
		if p.RedisAddr == "" {
			return errors.New("redis memory backend requires AGENTHUB_REDIS_ADDR")
		}
	default:
		return errors.Errorf("unsupported memory backend %q", p.MemoryBackend)
	}

	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.MaxUploadMB <= 0 {
		return errors.Errorf("max upload size must be positive, got %d MB", p.MaxUploadMB)
	}
	if p.RequestTimeout <= 0 || p.AgentTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if p.MaxConcurrentChats <= 0 {
		p.MaxConcurrentChats = 1
	}

	return nil
}
