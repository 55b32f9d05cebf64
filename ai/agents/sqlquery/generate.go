package sqlquery

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/agenthub/ai/core/llm"
)

const sqlSystemPrompt = `You are an expert SQL analyst. You will be given a SQLite database schema and a user question.
Return ONLY a single valid SQLite SELECT statement that fetches the data needed to answer it.
No markdown fences, no commentary, just SQL.
Limit results to 50 rows unless the user asks for more.
Use square brackets for identifiers with spaces, e.g. [Order Details].`

// writer turns a question into a checked SELECT statement.
type writer struct {
	llm      llm.Service
	db       *Database
	guidance string
}

func (w writer) write(ctx context.Context, question string) (string, error) {
	schema, err := w.db.Schema(ctx)
	if err != nil {
		return "", err
	}
	system := sqlSystemPrompt
	if w.guidance != "" {
		system += "\n\n" + w.guidance
	}
	reply, _, err := w.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(fmt.Sprintf("%s\n\nDATABASE SCHEMA:\n%s", system, schema)),
		llm.UserMessage(question),
	}, llm.WithTemperature(0), llm.WithMaxTokens(500))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(strings.TrimSpace(llm.StripCodeFence(reply)), "; \n"), nil
}

func sqlBlock(stmt string) string {
	return "```sql\n" + stmt + "\n```"
}

func executionError(stmt string, err error) string {
	return fmt.Sprintf("**Generated SQL:**\n%s\n\n**Execution error:** %v\n\nPlease try rephrasing your request.", sqlBlock(stmt), err)
}

func noData(stmt, what string) string {
	return fmt.Sprintf("**Generated SQL:**\n%s\n\nThe query returned no %s.", sqlBlock(stmt), what)
}
