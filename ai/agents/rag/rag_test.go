package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm/llmtest"
	"github.com/hrygo/agenthub/ai/core/reranker"
	"github.com/hrygo/agenthub/ai/vector"
	"github.com/hrygo/agenthub/ai/vector/vectortest"
)

func TestStripPrefix(t *testing.T) {
	tests := map[string]string{
		"rag what is our PTO policy": "what is our PTO policy",
		"RAG: vacation days":         "vacation days",
		"  Rag:   ":                  "",
		"ragtime history":            "ragtime history",
		"what is rag":                "what is rag",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripPrefix(in), in)
	}
}

func TestInvoke_EmptyQuestion(t *testing.T) {
	mock := llmtest.NewMockLLM()
	resp, err := New(mock, vectortest.New()).Invoke(context.Background(), &agents.Request{Query: "rag:"})
	require.NoError(t, err)
	assert.Equal(t, emptyQueryMessage, resp.Content)
	assert.Zero(t, mock.CallCount())
}

func TestInvoke_AnswersWithCitations(t *testing.T) {
	search := vectortest.New().WithHits(vector.IndexDocuments,
		vector.Hit{Source: "handbook.pdf", Content: "Employees get 25 days of PTO."},
	)
	mock := llmtest.NewMockLLM().WithDefaultResponse("You get 25 days [1].\n\n**Sources:** handbook.pdf")

	resp, err := New(mock, search).Invoke(context.Background(), &agents.Request{Query: "RAG how much PTO do I get?"})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "[1]")

	q := search.Queries()
	require.Len(t, q, 1)
	assert.Equal(t, "how much PTO do I get?", q[0].Text)
	assert.Equal(t, DefaultTopK, q[0].TopK)

	prompt := llmtest.Join(mock.Calls()[0])
	assert.Contains(t, prompt, "[1] (handbook.pdf)\nEmployees get 25 days of PTO.")
	assert.Contains(t, prompt, "Question: how much PTO do I get?")
}

func TestInvoke_AttachedDocument(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "minutes.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Budget approved: $40k"), 0o600))
	mock := llmtest.NewMockLLM().WithDefaultResponse("The budget was $40k [1].")

	// The index being down does not matter when a document is attached.
	search := vectortest.New().WithError(errors.New("index offline"))
	resp, err := New(mock, search).Invoke(context.Background(), &agents.Request{Query: "what budget was approved?", FilePath: doc})
	require.NoError(t, err)
	assert.Equal(t, "The budget was $40k [1].", resp.Content)
	assert.Contains(t, llmtest.Join(mock.Calls()[0]), "[1] (minutes.txt)\nBudget approved: $40k")
}

func TestInvoke_NothingFound(t *testing.T) {
	tests := []struct {
		name  string
		hits  []vector.Hit
		reply string
	}{
		{"no hits", nil, "unused"},
		{"model does not know", []vector.Hit{{Source: "a", Content: "b"}}, "I don't know."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := vectortest.New().WithHits(vector.IndexDocuments, tt.hits...)
			resp, err := New(llmtest.NewMockLLM().WithDefaultResponse(tt.reply), search).
				Invoke(context.Background(), &agents.Request{Query: "rag unknown topic"})
			require.NoError(t, err)
			assert.Contains(t, resp.Content, "I searched the **documents** index but couldn't find relevant information.")
		})
	}
}

func TestInvoke_SearchErrorWithoutAttachment(t *testing.T) {
	search := vectortest.New().WithError(errors.New("index offline"))
	_, err := New(llmtest.NewMockLLM(), search, WithIndex("kb")).Invoke(context.Background(), &agents.Request{Query: "rag x"})
	assert.ErrorContains(t, err, "rag: search kb: index offline")
}

// reverseReranker ranks documents in reverse input order.
type reverseReranker struct {
	err  error
	docs []string
}

func (r *reverseReranker) IsEnabled() bool { return true }

func (r *reverseReranker) Rerank(_ context.Context, _ string, docs []string, topN int) ([]reranker.Result, error) {
	r.docs = docs
	if r.err != nil {
		return nil, r.err
	}
	var out []reranker.Result
	for i := len(docs) - 1; i >= 0 && len(out) < topN; i-- {
		out = append(out, reranker.Result{Index: i, Score: float32(i)})
	}
	return out, nil
}

func TestInvoke_Reranks(t *testing.T) {
	search := vectortest.New().WithHits(vector.IndexDocuments,
		vector.Hit{Source: "a.pdf", Content: "alpha"},
		vector.Hit{Source: "b.pdf", Content: "beta"},
		vector.Hit{Source: "c.pdf", Content: "gamma"},
	)
	rr := &reverseReranker{}
	mock := llmtest.NewMockLLM().WithDefaultResponse("answer [1]")

	_, err := New(mock, search, WithTopK(2), WithReranker(rr)).Invoke(context.Background(), &agents.Request{Query: "rag greek letters"})
	require.NoError(t, err)

	assert.Equal(t, 2*rerankPool, search.Queries()[0].TopK)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, rr.docs)
	prompt := llmtest.Join(mock.Calls()[0])
	assert.Contains(t, prompt, "[1] (c.pdf)\ngamma\n\n[2] (b.pdf)\nbeta\n\nQuestion")
}

func TestInvoke_RerankFailureKeepsSearchOrder(t *testing.T) {
	search := vectortest.New().WithHits(vector.IndexDocuments,
		vector.Hit{Source: "a.pdf", Content: "alpha"},
		vector.Hit{Source: "b.pdf", Content: "beta"},
		vector.Hit{Source: "c.pdf", Content: "gamma"},
	)
	mock := llmtest.NewMockLLM().WithDefaultResponse("answer [1]")
	rr := &reverseReranker{err: errors.New("rerank quota")}

	_, err := New(mock, search, WithTopK(2), WithReranker(rr)).Invoke(context.Background(), &agents.Request{Query: "rag greek letters"})
	require.NoError(t, err)
	prompt := llmtest.Join(mock.Calls()[0])
	assert.Contains(t, prompt, "[2] (b.pdf)\nbeta\n\nQuestion")
	assert.NotContains(t, prompt, "gamma")
}

func TestWithReranker_IgnoresDisabled(t *testing.T) {
	a := New(llmtest.NewMockLLM(), vectortest.New(), WithReranker(reranker.NewService(&reranker.Config{})))
	assert.Nil(t, a.reranker)
}
