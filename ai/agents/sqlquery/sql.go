package sqlquery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm"
)

const explainPrompt = `You are the SQL Agent inside a multi-agent AI hub.
You are given the user's question, the query that was run and its result table.
Answer the question in two or three sentences of plain Markdown. Do not repeat the table.`

// SQLAgent answers questions with a query result table.
type SQLAgent struct {
	llm     llm.Service
	writer  writer
	db      *Database
	explain string
}

var _ agents.Agent = (*SQLAgent)(nil)

// Option configures a SQLAgent.
type Option func(*SQLAgent)

// WithGuidance appends dataset-specific rules to the query writing prompt.
func WithGuidance(guidance string) Option {
	return func(a *SQLAgent) { a.writer.guidance = guidance }
}

// WithExplainPrompt replaces the system prompt used to summarise results.
func WithExplainPrompt(prompt string) Option {
	return func(a *SQLAgent) { a.explain = prompt }
}

// NewSQLAgent creates the sql agent over db.
func NewSQLAgent(llmService llm.Service, db *Database, opts ...Option) *SQLAgent {
	a := &SQLAgent{
		llm:     llmService,
		writer:  writer{llm: llmService, db: db},
		db:      db,
		explain: explainPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *SQLAgent) Name() string { return agents.SQL }

func (a *SQLAgent) Description() string {
	return "Answers questions about the Northwind sales database (customers, orders, products, employees) with SQL."
}

func (a *SQLAgent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	stmt, err := a.writer.write(ctx, req.Query)
	if err != nil {
		slog.Error("sql agent: generation failed", "error", err)
		return agents.Text(fmt.Sprintf("**Error generating SQL:** %v", err)), nil
	}
	slog.Info("sql agent: generated", "sql", stmt)

	rows, err := a.db.Query(ctx, stmt)
	if err != nil {
		slog.Warn("sql agent: execution failed", "sql", stmt, "error", err)
		return agents.Text(executionError(stmt, err)), nil
	}
	if rows.Len() == 0 {
		return agents.Text(noData(stmt, "rows")), nil
	}

	table := rows.Markdown(0)
	summary, _, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(a.explain),
		llm.UserMessage(fmt.Sprintf("Question: %s\n\nQuery:\n%s\n\nResult:\n%s", req.Query, stmt, table)),
	}, llm.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("sql agent: %w", err)
	}

	out := fmt.Sprintf("%s\n\n%s\n\n", summary, table)
	if rows.Truncated {
		out += fmt.Sprintf("*Showing the first %d rows.*\n\n", rows.Len())
	}
	return agents.Text(out + sqlBlock(stmt)), nil
}
