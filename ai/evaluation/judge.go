package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/internal/strutil"
)

// ErrMalformedVerdict is returned when the judge reply cannot be read as a scorecard.
var ErrMalformedVerdict = errors.New("malformed evaluation reply")

const judgePrompt = `You are a strict quality evaluator for an AI assistant.
Grade the assistant's RESPONSE to the user's QUERY on four metrics, each an integer from 1 (poor) to 5 (excellent):

- relevance: does the response address the query?
- coherence: is it logically organised and consistent?
- fluency: is the language natural and grammatically correct?
- groundedness: are its claims supported by the CONTEXT (or, when no context is given, free of unsupported specifics)?

Reply with a single JSON object and nothing else:
{"relevance": {"score": 1-5, "reason": "..."}, "coherence": {...}, "fluency": {...}, "groundedness": {...}}
Keep every reason under 30 words.`

// Input is one answer to grade.
type Input struct {
	Query    string
	Response string
	// Context is optional grounding material, such as retrieved passages.
	Context string
}

// Judge grades answers with one LLM call per answer.
type Judge struct {
	llm llm.Service
}

// NewJudge creates a judge backed by llmService.
func NewJudge(llmService llm.Service) *Judge {
	return &Judge{llm: llmService}
}

// Evaluate grades in.
func (j *Judge) Evaluate(ctx context.Context, in Input) (*Scorecard, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "QUERY:\n%s\n\nRESPONSE:\n%s\n", in.Query, strutil.Truncate(in.Response, 6000))
	if in.Context != "" {
		fmt.Fprintf(&user, "\nCONTEXT:\n%s\n", strutil.Truncate(in.Context, 4000))
	}

	reply, _, err := j.llm.Chat(ctx,
		[]llm.Message{llm.SystemPrompt(judgePrompt), llm.UserMessage(user.String())},
		llm.WithTemperature(0), llm.WithMaxTokens(400), llm.WithJSONObject())
	if err != nil {
		return nil, fmt.Errorf("judge call: %w", err)
	}
	return parseVerdict(reply)
}

type metricReply struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

func parseVerdict(reply string) (*Scorecard, error) {
	raw := llm.StripCodeFence(reply)
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	var parsed map[string]metricReply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}

	scores := make([]Score, 0, len(Metrics))
	for _, metric := range Metrics {
		m, ok := parsed[metric]
		if !ok || m.Score == 0 {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformedVerdict, metric)
		}
		scores = append(scores, Score{Metric: metric, Score: m.Score, Reason: strings.TrimSpace(m.Reason)})
	}
	return NewScorecard(scores), nil
}
