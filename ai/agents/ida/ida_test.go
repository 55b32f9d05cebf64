package ida

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/agents/agenttest"
	"github.com/hrygo/agenthub/ai/core/llm/llmtest"
	"github.com/hrygo/agenthub/ai/vector"
	"github.com/hrygo/agenthub/ai/vector/vectortest"
)

const advice = `1. **Item**: grey linen sofa
2. **Item**: walnut coffee table

## Search Queries
grey linen sofa
- walnut coffee table

## Notes
ignored`

func TestSearchQueries(t *testing.T) {
	assert.Equal(t, []string{"grey linen sofa", "walnut coffee table"}, SearchQueries(advice))
	assert.Equal(t, []string{"just a sofa"}, SearchQueries("just a sofa"))
	assert.Len(t, []rune(SearchQueries(strings.Repeat("é", 600))[0]), 500)
}

func TestInvoke_RequiresImage(t *testing.T) {
	vision := agenttest.Static(agents.Multimodal, "room")
	a := New(llmtest.NewMockLLM(), vision, vectortest.New())

	for _, file := range []string{"", "/u/plan.pdf"} {
		resp, err := a.Invoke(context.Background(), &agents.Request{Query: "design my room", FilePath: file})
		require.NoError(t, err)
		assert.Equal(t, needImageMessage, resp.Content)
	}
	assert.Empty(t, vision.Calls())
}

func TestInvoke_FullFlow(t *testing.T) {
	vision := agenttest.Static(agents.Multimodal, "Small living room, Scandinavian style.")
	mock := llmtest.NewMockLLM().On("furniture advisor", advice)
	search := vectortest.New().WithHits(vector.IndexIDAProducts,
		vector.Hit{Source: "SKU-100", Content: "Grey linen 3-seat sofa\nDimensions 210cm"},
		vector.Hit{Source: "SKU-200", Content: "Walnut coffee table"},
	)

	resp, err := New(mock, vision, search).Invoke(context.Background(), &agents.Request{
		Query:    "what should I add?",
		FilePath: "/u/room_1a2b3c4d.jpg",
	})
	require.NoError(t, err)

	calls := vision.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/u/room_1a2b3c4d.jpg", calls[0].FilePath)
	assert.True(t, strings.HasPrefix(calls[0].Query, "what should I add?\n\nYou are an expert interior designer"))

	assert.Contains(t, llmtest.Join(mock.Calls()[0]), "## Room Analysis\nSmall living room, Scandinavian style.")

	queries := search.Queries()
	require.Len(t, queries, 2)
	for _, q := range queries {
		assert.Equal(t, vector.IndexIDAProducts, q.Index)
		assert.Equal(t, productsPerQuery, q.TopK)
	}

	assert.True(t, strings.HasPrefix(resp.Content, "# 🏠 Interior Design Analysis\n\n## Room Analysis\n\nSmall living room"))
	assert.Contains(t, resp.Content, "## Furniture Recommendations\n\n1. **Item**: grey linen sofa")
	assert.True(t, strings.HasSuffix(resp.Content, "## Matching Products from the Catalogue\n\n"+
		"- **Product:** SKU-100 | Grey linen 3-seat sofa\n"+
		"- **Product:** SKU-200 | Walnut coffee table"), "products are deduplicated across queries")
}

func TestInvoke_SearchFailureStillAnswers(t *testing.T) {
	vision := agenttest.Static(agents.Multimodal, "room")
	mock := llmtest.NewMockLLM().WithDefaultResponse(advice)
	search := vectortest.New().WithError(errors.New("index offline"))

	resp, err := New(mock, vision, search).Invoke(context.Background(), &agents.Request{FilePath: "/u/room.png"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.Content, noProductsMessage))
}

func TestInvoke_VisionFailure(t *testing.T) {
	vision := agenttest.Failing(agents.Multimodal, errors.New("vision deployment unavailable"))

	_, err := New(llmtest.NewMockLLM(), vision, vectortest.New()).Invoke(context.Background(), &agents.Request{FilePath: "/u/room.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room analysis: vision deployment unavailable")
}
