// Package evaluation grades agent answers with an LLM judge.
//
// Every response gets a four-metric scorecard (relevance, coherence,
// fluency, groundedness) on a 1 to 5 scale. Evaluation is best-effort: a
// failing judge never fails the request it grades.
package evaluation

import (
	"fmt"
	"math"
	"strings"
)

// Metric names, in scorecard order.
const (
	MetricRelevance    = "relevance"
	MetricCoherence    = "coherence"
	MetricFluency      = "fluency"
	MetricGroundedness = "groundedness"
)

// Metrics lists the graded metrics in display order.
var Metrics = []string{MetricRelevance, MetricCoherence, MetricFluency, MetricGroundedness}

// Verdicts.
const (
	VerdictPass        = "pass"
	VerdictNeedsReview = "needs_review"
)

const (
	// MinScore and MaxScore bound every metric score.
	MinScore = 1
	MaxScore = 5

	// PassThreshold is the lowest overall score that still passes.
	PassThreshold = 3.5
)

// Score is one graded metric.
type Score struct {
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// Scorecard is the evaluation of one answer.
type Scorecard struct {
	Scores     []Score `json:"scores"`
	Overall    float64 `json:"overall_score"`
	OverallMax int     `json:"overall_max"`
	Verdict    string  `json:"overall_result"`
}

// NewScorecard derives overall and verdict from scores.
// Scores outside [MinScore, MaxScore] are clamped.
func NewScorecard(scores []Score) *Scorecard {
	sc := &Scorecard{OverallMax: MaxScore, Verdict: VerdictNeedsReview}
	if len(scores) == 0 {
		return sc
	}

	var sum float64
	for _, s := range scores {
		s.Score = clamp(s.Score)
		sum += s.Score
		sc.Scores = append(sc.Scores, s)
	}
	sc.Overall = math.Round(sum/float64(len(sc.Scores))*10) / 10
	if sc.Overall >= PassThreshold {
		sc.Verdict = VerdictPass
	}
	return sc
}

// Get returns the score of metric.
func (sc *Scorecard) Get(metric string) (Score, bool) {
	if sc == nil {
		return Score{}, false
	}
	for _, s := range sc.Scores {
		if s.Metric == metric {
			return s, true
		}
	}
	return Score{}, false
}

// Passed reports whether the scorecard passed.
func (sc *Scorecard) Passed() bool {
	return sc != nil && sc.Verdict == VerdictPass
}

// Markdown renders the scorecard as a table.
func (sc *Scorecard) Markdown() string {
	if sc == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Quality Evaluation Scorecard\n\n")
	b.WriteString("| Metric | Score | Reasoning |\n")
	b.WriteString("|--------|-------|-----------|\n")
	for _, s := range sc.Scores {
		reason := strings.ReplaceAll(s.Reason, "|", "/")
		if r := []rune(reason); len(r) > 150 {
			reason = string(r[:150])
		}
		fmt.Fprintf(&b, "| **%s** | %.1f/%d | %s |\n", title(s.Metric), s.Score, MaxScore, reason)
	}
	fmt.Fprintf(&b, "\n**Overall: %.1f/%d** (%s)", sc.Overall, sc.OverallMax, sc.Verdict)
	return b.String()
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < MinScore:
		return MinScore
	case v > MaxScore:
		return MaxScore
	}
	return v
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
