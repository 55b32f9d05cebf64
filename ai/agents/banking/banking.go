// Package banking is a bank customer-service assistant over customer data
// and the policy handbook.
package banking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/agents/sqlquery"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/vector"
)

// Intent says which sources a question needs.
type Intent string

const (
	IntentData    Intent = "DATA"
	IntentPolicy  Intent = "POLICY"
	IntentBoth    Intent = "BOTH"
	IntentGeneral Intent = "GENERAL"
)

const policyTopK = 5

const intentPrompt = `You are an intent classifier for a banking customer-service agent.
Given the user's question, decide which data source(s) are needed.

Return ONLY one of these labels (no extra text):
- DATA: the question is about specific customer data, accounts, transactions, loans, cards, fraud alerts, or support tickets (needs SQL)
- POLICY: the question is about bank policies, fee schedules, interest rates, overdraft rules, wire transfer rules, card policies, regulatory info, or general banking rules
- BOTH: the question needs both customer data AND policy information
- GENERAL: a general banking question that can be answered from common knowledge`

// SQLGuidance holds the banking rules given to the query writer.
const SQLGuidance = `Banking rules:
- When looking up a customer by name, use case-insensitive LIKE matching.
- NEVER select full account numbers or card numbers; use account_number's last 4 digits via substr().`

const dataExplainPrompt = `You are the Banking Agent inside a multi-agent AI hub, a bank customer-service assistant.
You are given the customer's question, the query that was run and its result table.
Summarise the findings in two or three sentences. Format currency values with $ and commas.
NEVER reveal full account numbers or SSNs; show only the last 4 digits. Do not repeat the table.`

const policyPrompt = `You are the Banking Agent inside a multi-agent AI hub.
Answer the question using ONLY the bank policy excerpts below. Cite excerpts as [n].
If the excerpts do not cover the question, say so.`

const noPolicyMessage = "I couldn't find anything about that in the bank policy handbook."

// NewDataAgent builds the SQL step over the banking database.
func NewDataAgent(llmService llm.Service, db *sqlquery.Database) *sqlquery.SQLAgent {
	return sqlquery.NewSQLAgent(llmService, db,
		sqlquery.WithGuidance(SQLGuidance),
		sqlquery.WithExplainPrompt(dataExplainPrompt))
}

// Agent routes a banking question to customer data, policy search or both.
type Agent struct {
	llm    llm.Service
	data   agents.Agent
	search vector.Searcher
	index  string
}

var _ agents.Agent = (*Agent)(nil)

// New creates the banking agent. data answers DATA questions; see NewDataAgent.
func New(llmService llm.Service, data agents.Agent, search vector.Searcher) *Agent {
	return &Agent{llm: llmService, data: data, search: search, index: vector.IndexBankPolicy}
}

func (a *Agent) Name() string { return agents.Banking }

func (a *Agent) Description() string {
	return "Bank customer service: accounts, transactions, loans, cards, fraud alerts and bank policy (fees, rates, overdraft rules)."
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	intent := a.classify(ctx, req.Query)
	slog.Info("banking: intent", "intent", intent)

	type step struct {
		label string
		run   func(context.Context) (string, error)
	}
	var steps []step
	if intent == IntentData || intent == IntentBoth {
		steps = append(steps, step{"data", func(ctx context.Context) (string, error) {
			resp, err := a.data.Invoke(ctx, req)
			if err != nil {
				return "", err
			}
			return resp.Content, nil
		}})
	}
	if intent != IntentData {
		steps = append(steps, step{"policy", func(ctx context.Context) (string, error) {
			return a.policy(ctx, req.Query)
		}})
	}

	sections := make([]string, len(steps))
	var g errgroup.Group
	for i, s := range steps {
		g.Go(func() error {
			out, err := s.run(ctx)
			if err != nil {
				slog.Error("banking: step failed", "step", s.label, "error", err)
				out = fmt.Sprintf("⚠ %s lookup encountered an error: %v", s.label, err)
			}
			sections[i] = out
			return nil
		})
	}
	_ = g.Wait()

	return agents.Text(strings.Join(sections, "\n\n---\n\n")), nil
}

// classify asks the model for an intent; anything unclear needs both sources.
func (a *Agent) classify(ctx context.Context, query string) Intent {
	reply, _, err := a.llm.Chat(ctx,
		[]llm.Message{llm.SystemPrompt(intentPrompt), llm.UserMessage(query)},
		llm.WithTemperature(0), llm.WithMaxTokens(20))
	if err != nil {
		slog.Warn("banking: intent classification failed", "error", err)
		return IntentBoth
	}
	return ParseIntent(reply)
}

// ParseIntent normalises a classifier reply.
func ParseIntent(reply string) Intent {
	r := strings.ToUpper(reply)
	switch {
	case strings.Contains(r, string(IntentBoth)):
		return IntentBoth
	case strings.Contains(r, string(IntentData)):
		return IntentData
	case strings.Contains(r, string(IntentPolicy)):
		return IntentPolicy
	case strings.Contains(r, string(IntentGeneral)):
		return IntentGeneral
	default:
		return IntentBoth
	}
}

func (a *Agent) policy(ctx context.Context, query string) (string, error) {
	hits, err := a.search.Search(ctx, a.index, query, policyTopK)
	if err != nil {
		return "", fmt.Errorf("policy search: %w", err)
	}
	if len(hits) == 0 {
		return noPolicyMessage, nil
	}

	answer, _, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(policyPrompt + "\n\nPOLICY EXCERPTS:\n" + vector.FormatCitations(hits)),
		llm.UserMessage("Based on the bank policy handbook: " + query),
	}, llm.WithTemperature(0.2))
	if err != nil {
		return "", err
	}
	return answer + Citations(hits), nil
}

// Citations lists the distinct sources of hits.
func Citations(hits []vector.Hit) string {
	seen := make(map[string]struct{})
	var lines []string
	for i, h := range hits {
		title := h.Source
		if title == "" {
			title = fmt.Sprintf("Document %d", i+1)
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		lines = append(lines, fmt.Sprintf("**[%d]** %s", len(lines)+1, title))
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n\n---\n**Policy Citations:**\n" + strings.Join(lines, "\n")
}
