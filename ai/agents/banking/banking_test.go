package banking

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/agents/agenttest"
	"github.com/hrygo/agenthub/ai/agents/sqlquery"
	"github.com/hrygo/agenthub/ai/core/llm/llmtest"
	"github.com/hrygo/agenthub/ai/vector"
	"github.com/hrygo/agenthub/ai/vector/vectortest"
	"github.com/hrygo/agenthub/store/db/sqlite"
)

var overdraftHits = []vector.Hit{
	{Source: "bank_policy.pdf", Content: "Overdraft fee is $35 per item."},
	{Source: "bank_policy.pdf", Content: "At most 3 overdraft fees per day."},
	{Source: "fee_schedule.pdf", Content: "Wire transfers cost $25."},
}

func TestParseIntent(t *testing.T) {
	tests := map[string]Intent{
		"DATA":             IntentData,
		"policy":           IntentPolicy,
		"  BOTH\n":         IntentBoth,
		"DATA and POLICY":  IntentData,
		"GENERAL":          IntentGeneral,
		"I am not sure":    IntentBoth,
		"label: both data": IntentBoth,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseIntent(in), in)
	}
}

func TestCitations(t *testing.T) {
	assert.Equal(t, "\n\n---\n**Policy Citations:**\n**[1]** bank_policy.pdf\n**[2]** fee_schedule.pdf", Citations(overdraftHits))
	assert.Equal(t, "\n\n---\n**Policy Citations:**\n**[1]** Document 1", Citations([]vector.Hit{{Content: "x"}}))
	assert.Empty(t, Citations(nil))
}

func TestInvoke_Routing(t *testing.T) {
	tests := []struct {
		intent     string
		wantData   bool
		wantPolicy bool
	}{
		{"DATA", true, false},
		{"POLICY", false, true},
		{"GENERAL", false, true},
		{"BOTH", true, true},
		{"???", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			data := agenttest.Static(agents.SQL, "Jane has $1,200.00 in checking.")
			search := vectortest.New().WithHits(vector.IndexBankPolicy, overdraftHits...)
			mock := llmtest.NewMockLLM().
				On("intent classifier", tt.intent).
				On("bank policy excerpts", "The overdraft fee is $35 [1].")

			resp, err := New(mock, data, search).Invoke(context.Background(), &agents.Request{Query: "Jane's balance and overdraft fees"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantData, len(data.Calls()) == 1)
			assert.Equal(t, tt.wantPolicy, len(search.Queries()) == 1)
			if tt.wantData && tt.wantPolicy {
				assert.True(t, strings.HasPrefix(resp.Content, "Jane has $1,200.00 in checking.\n\n---\n\nThe overdraft fee is $35 [1]."), resp.Content)
			}
			if tt.wantPolicy {
				assert.Contains(t, resp.Content, "**Policy Citations:**\n**[1]** bank_policy.pdf")
			}
		})
	}
}

func TestInvoke_StepFailureIsInline(t *testing.T) {
	data := agenttest.Failing(agents.SQL, errors.New("database locked"))
	search := vectortest.New()
	mock := llmtest.NewMockLLM().On("intent classifier", "BOTH")

	resp, err := New(mock, data, search).Invoke(context.Background(), &agents.Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "⚠ data lookup encountered an error: database locked\n\n---\n\n"+noPolicyMessage, resp.Content)
}

func TestInvoke_PolicySearchError(t *testing.T) {
	search := vectortest.New().WithError(errors.New("index offline"))
	mock := llmtest.NewMockLLM().On("intent classifier", "POLICY")

	resp, err := New(mock, agenttest.Static(agents.SQL, ""), search).Invoke(context.Background(), &agents.Request{Query: "fees?"})
	require.NoError(t, err)
	assert.Equal(t, "⚠ policy lookup encountered an error: policy search: index offline", resp.Content)
}

func TestDataAgent_UsesBankingRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banking.db")
	rw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = rw.Exec(`CREATE TABLE accounts (account_id INTEGER PRIMARY KEY, customer_id INTEGER, account_type TEXT, balance REAL);
		INSERT INTO accounts VALUES (1, 7, 'Checking', 1200.0);`)
	require.NoError(t, err)
	require.NoError(t, rw.Close())
	ro, err := sqlite.OpenReadOnly(path)
	require.NoError(t, err)
	db := sqlquery.NewDatabase(ro, 0)
	t.Cleanup(func() { _ = db.Close() })

	mock := llmtest.NewMockLLM().
		On("expert SQL analyst", "SELECT account_type, balance FROM accounts WHERE customer_id = 7").
		On("bank customer-service assistant", "Customer 7 holds $1,200.00 in checking.")

	resp, err := NewDataAgent(mock, db).Invoke(context.Background(), &agents.Request{Query: "balance of customer 7"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Content, "Customer 7 holds $1,200.00 in checking.\n\n| account_type | balance |"))

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, llmtest.Join(calls[0]), "Banking rules:")
	assert.Contains(t, llmtest.Join(calls[0]), "CREATE TABLE accounts")
}
