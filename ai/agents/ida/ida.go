// Package ida is the interior design agent: room analysis from a photo,
// furniture advice and a product catalogue lookup.
package ida

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/vector"
)

const (
	productsPerQuery = 3
	searchParallel   = 4
)

const needImageMessage = "**Interior Design Agent** requires a room image to analyse. " +
	"Please upload a photo of the room you'd like design suggestions for, then ask your question again."

const noProductsMessage = "No matching products were found in the product catalogue. " +
	"The index may not contain items matching these suggestions."

const roomPrompt = `You are an expert interior designer analysing a room photograph.
Provide a detailed analysis covering:
1. **Room Type**: living room, bedroom, kitchen, office, dining room, etc.
2. **Dimensions Estimate**: approximate size (small / medium / large / open-plan).
3. **Current Style**: modern, traditional, minimalist, industrial, bohemian, etc.
4. **Colour Palette**: dominant wall, floor, and accent colours.
5. **Lighting**: natural light level, existing fixtures.
6. **Existing Furniture**: list what's already in the room.
7. **Gaps & Opportunities**: areas that feel empty or could benefit from new furniture.

Be specific and concise. This analysis will be used to recommend furniture.`

const advisorPrompt = `You are an expert interior design furniture advisor.
Based on the room analysis provided, suggest **5 to 8 specific furniture pieces** that would complement the space.

For EACH suggestion provide:
- **Item**: e.g. "3-seater fabric sofa", "round walnut coffee table"
- **Why**: how it complements the room's style, colour palette, and dimensions
- **Search Keywords**: 3-5 keywords suitable for searching a furniture product catalogue

Format your response as a numbered list. Be practical and style-appropriate.
After the list, output a section titled "## Search Queries" with one search query per line
(just the keywords, no numbering) that can be used to find these products in a retail catalogue.`

// Agent chains a vision agent, the furniture advisor and a product search.
type Agent struct {
	llm    llm.Service
	vision agents.Agent
	search vector.Searcher
	index  string
}

var _ agents.Agent = (*Agent)(nil)

// New creates the agent. vision analyses the room photo; usually the multimodal agent.
func New(llmService llm.Service, vision agents.Agent, search vector.Searcher) *Agent {
	return &Agent{llm: llmService, vision: vision, search: search, index: vector.IndexIDAProducts}
}

func (a *Agent) Name() string { return agents.IDA }

func (a *Agent) Description() string {
	return "Interior design: analyses a room photo, recommends furniture and finds matching catalogue products."
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	if !req.HasFile() || !agents.IsImage(req.FilePath) {
		return agents.Text(needImageMessage), nil
	}

	slog.Info("ida: analysing room", "file", req.FilePath)
	analysis, err := a.vision.Invoke(ctx, &agents.Request{
		Query:     fmt.Sprintf("%s\n\n%s", req.Query, roomPrompt),
		FilePath:  req.FilePath,
		SessionID: req.SessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("ida: room analysis: %w", err)
	}

	suggestions, _, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(advisorPrompt),
		llm.UserMessage(fmt.Sprintf("User request: %s\n\n## Room Analysis\n%s", req.Query, analysis.Content)),
	}, llm.WithTemperature(0.4))
	if err != nil {
		return nil, fmt.Errorf("ida: furniture advice: %w", err)
	}

	products := a.findProducts(ctx, SearchQueries(suggestions))

	var b strings.Builder
	b.WriteString("# 🏠 Interior Design Analysis\n\n")
	fmt.Fprintf(&b, "## Room Analysis\n\n%s\n\n---\n\n", analysis.Content)
	fmt.Fprintf(&b, "## Furniture Recommendations\n\n%s\n\n---\n\n", suggestions)
	b.WriteString(products)
	return agents.Text(b.String()), nil
}

// SearchQueries returns the lines of the advisor's "## Search Queries"
// section, or a prefix of the whole text when the section is missing.
func SearchQueries(suggestions string) []string {
	var queries []string
	inSection := false
	for _, line := range strings.Split(suggestions, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), "## search quer") {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if strings.HasPrefix(line, "##") {
			break
		}
		if line != "" {
			queries = append(queries, strings.TrimLeft(line, "-* "))
		}
	}
	if len(queries) == 0 {
		return []string{truncate(suggestions, 500)}
	}
	return queries
}

// findProducts runs one search per query and lists distinct products in query order.
func (a *Agent) findProducts(ctx context.Context, queries []string) string {
	results := make([][]vector.Hit, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchParallel)
	for i, q := range queries {
		g.Go(func() error {
			hits, err := a.search.Search(gctx, a.index, q, productsPerQuery)
			if err != nil {
				slog.Warn("ida: product search failed", "query", q, "error", err)
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	var lines []string
	for _, hits := range results {
		for _, h := range hits {
			id := h.Source
			if id == "" {
				id = truncate(h.Content, 80)
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			lines = append(lines, fmt.Sprintf("- **Product:** %s | %s", id, truncate(firstLine(h.Content), 120)))
		}
	}
	if len(lines) == 0 {
		return noProductsMessage
	}
	return "## Matching Products from the Catalogue\n\n" + strings.Join(lines, "\n")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
