// Package stats tracks LLM token usage and cost for a single request.
package stats

import (
	"context"
	"math"
	"sync"
)

// Default per-1K-token prices in USD.
const (
	DefaultInputCostPer1K  = 0.002
	DefaultOutputCostPer1K = 0.008
)

// Rates are the per-1K-token prices used to estimate cost.
type Rates struct {
	InputPer1K  float64
	OutputPer1K float64
}

// DefaultRates returns the built-in pricing.
func DefaultRates() Rates {
	return Rates{InputPer1K: DefaultInputCostPer1K, OutputPer1K: DefaultOutputCostPer1K}
}

// Totals is a snapshot of an accumulator.
type Totals struct {
	InputTokens   int64   `json:"input_tokens"`
	OutputTokens  int64   `json:"output_tokens"`
	TotalTokens   int64   `json:"total_tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Accumulator sums token usage from concurrently running agent calls.
// The zero value is not usable; call NewAccumulator.
type Accumulator struct {
	mu     sync.Mutex
	input  int64
	output int64
	rates  Rates
}

// NewAccumulator creates an accumulator priced with rates.
func NewAccumulator(rates Rates) *Accumulator {
	if rates.InputPer1K <= 0 && rates.OutputPer1K <= 0 {
		rates = DefaultRates()
	}
	return &Accumulator{rates: rates}
}

// Reset zeroes the counters. Must run before the first dispatch of a request.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.input = 0
	a.output = 0
}

// Add records one call's usage. Negative values are ignored.
func (a *Accumulator) Add(input, output int) {
	if input < 0 {
		input = 0
	}
	if output < 0 {
		output = 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.input += int64(input)
	a.output += int64(output)
}

// Totals returns the current counters and the derived cost.
func (a *Accumulator) Totals() Totals {
	a.mu.Lock()
	in, out := a.input, a.output
	a.mu.Unlock()

	cost := float64(in)/1000*a.rates.InputPer1K + float64(out)/1000*a.rates.OutputPer1K
	return Totals{
		InputTokens:   in,
		OutputTokens:  out,
		TotalTokens:   in + out,
		EstimatedCost: math.Round(cost*1e6) / 1e6,
	}
}

type accumulatorKey struct{}

// WithAccumulator attaches acc to ctx so nested LLM calls can report usage.
func WithAccumulator(ctx context.Context, acc *Accumulator) context.Context {
	return context.WithValue(ctx, accumulatorKey{}, acc)
}

// FromContext returns the request accumulator, or nil when none is attached.
func FromContext(ctx context.Context) *Accumulator {
	acc, _ := ctx.Value(accumulatorKey{}).(*Accumulator)
	return acc
}

// Record adds usage to the accumulator carried by ctx, if any.
func Record(ctx context.Context, input, output int) {
	if acc := FromContext(ctx); acc != nil {
		acc.Add(input, output)
	}
}
