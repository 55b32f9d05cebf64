package routing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/agents/agenttest"
	"github.com/hrygo/agenthub/ai/agents/registry"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/core/llm/llmtest"
	"github.com/hrygo/agenthub/ai/memory"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, name := range agents.Vocabulary {
		reg.MustRegister(agenttest.Static(name, name+" output"))
	}
	return reg
}

func newTestClassifier(t *testing.T, mock *llmtest.MockLLM) *Classifier {
	t.Helper()
	cfg := DefaultConfig()
	cfg.EnableCache = false
	if mock == nil {
		return NewClassifier(nil, newTestRegistry(t), cfg)
	}
	return NewClassifier(mock, newTestRegistry(t), cfg)
}

func TestClassify_PrefixSkipsModel(t *testing.T) {
	mock := llmtest.NewMockLLM().WithDefaultResponse(`["general"]`)
	c := newTestClassifier(t, mock)

	res, err := c.Classify(context.Background(), Input{Query: "RAG: what is our refund policy", FilePath: "/u/car.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{agents.RAG}, res.Agents)
	assert.Equal(t, SourcePrefix, res.Source)
	assert.Zero(t, mock.CallCount())
}

func TestClassify_NoLLM(t *testing.T) {
	c := newTestClassifier(t, nil)

	_, err := c.Classify(context.Background(), Input{Query: "weather in Atlanta"})
	assert.ErrorIs(t, err, ErrNoLLM)

	// Prefix still works without a model.
	res, err := c.Classify(context.Background(), Input{Query: "rag handbook"})
	require.NoError(t, err)
	assert.Equal(t, []string{agents.RAG}, res.Agents)
}

func TestClassify_Semantic(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		query string
		file  string
		want  []string
	}{
		{"single agent", `["weather"]`, "weather in Atlanta", "", []string{"weather"}},
		{"multi agent in order", "```json\n[\"sql\", \"viz\"]\n```", "show me a bar chart of top selling products", "", []string{"sql", "viz"}},
		{"image seed first", `["nasa"]`, "is this a galaxy?", "/u/pic.png", []string{"multimodal", "nasa"}},
		{"seed not duplicated", `["multimodal"]`, "describe this", "/u/pic.png", []string{"multimodal"}},
		{"query before chart", `["viz", "weather", "sql"]`, "chart orders per month", "", []string{"sql", "viz", "weather"}},
		{"case and unknown names", `Sure: ["SQL", "evaluator", "sql"]`, "count orders", "", []string{"sql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llmtest.NewMockLLM().WithDefaultResponse(tt.reply)
			c := newTestClassifier(t, mock)

			res, err := c.Classify(context.Background(), Input{Query: tt.query, FilePath: tt.file})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Agents)
			assert.Equal(t, SourceLLM, res.Source)
		})
	}
}

func TestClassify_MalformedOutput(t *testing.T) {
	for _, reply := range []string{"weather", `{"agents": "weather"}`, `["evaluator"]`, `[1, 2]`} {
		t.Run(reply, func(t *testing.T) {
			c := newTestClassifier(t, llmtest.NewMockLLM().WithDefaultResponse(reply))
			_, err := c.Classify(context.Background(), Input{Query: "weather in Atlanta"})
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}

func TestClassify_TransportErrorFallsBackToKeywords(t *testing.T) {
	boom := errors.New("connection reset")
	c := newTestClassifier(t, llmtest.NewMockLLM().WithDefaultError(boom))

	in := Input{Query: "show me a bar chart of top selling products"}
	res, err := c.Classify(context.Background(), in)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, res.Agents)

	// The caller's recovery path.
	fallback := KeywordFallback(in)
	assert.Equal(t, []string{agents.SQL, agents.Viz}, Finalize(fallback.Agents))
	assert.Equal(t, SourceKeyword, fallback.Source)
}

func TestClassify_PromptCarriesContext(t *testing.T) {
	mock := llmtest.NewMockLLM().WithDefaultResponse(`["weather"]`)
	c := newTestClassifier(t, mock)

	history := []memory.Turn{
		{Role: memory.RoleUser, Content: "oldest turn that falls outside the window"},
		{Role: memory.RoleAssistant, Content: "old answer", Agents: []string{"general"}},
		{Role: memory.RoleUser, Content: "weather in Paris"},
		{Role: memory.RoleAssistant, Content: "It is sunny in Paris.", Agents: []string{"weather"}},
	}
	_, err := c.Classify(context.Background(), Input{Query: "and tomorrow?", FilePath: "/u/sky.webp", History: history})
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 2)

	system := calls[0][0].Content
	for _, name := range agents.Vocabulary {
		assert.Contains(t, system, "- "+name+": test agent "+name)
	}

	user := calls[0][1].Content
	assert.NotContains(t, user, "oldest turn")
	assert.Contains(t, user, "assistant (weather): It is sunny in Paris.")
	assert.Contains(t, user, "Attached file: sky.webp (image)")
	assert.True(t, strings.HasSuffix(user, "Latest message: and tomorrow?"))
}

func TestClassify_CachesModelDecision(t *testing.T) {
	mock := llmtest.NewMockLLM().WithHandler(func(_ context.Context, msgs []llm.Message) (string, error) {
		return `["nasa"]`, nil
	})
	c := NewClassifier(mock, newTestRegistry(t), DefaultConfig())
	in := Input{Query: "latest mars rover photos"}

	first, err := c.Classify(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, SourceLLM, first.Source)

	second, err := c.Classify(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Agents, second.Agents)
	assert.Equal(t, 1, mock.CallCount())

	// A different history window is a different decision.
	in.History = []memory.Turn{{Role: memory.RoleAssistant, Content: "x", Agents: []string{"general"}}}
	_, err = c.Classify(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.CallCount())

	stats := c.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
}
