// Package assembler keeps tool output inside a token budget before it is
// appended to the conversation.
package assembler

import (
	"fmt"
	"sort"
)

// TokenEstimator estimates token usage of text content.
type TokenEstimator func(text string) int

// ClipLog summarizes one clipping decision.
type ClipLog struct {
	InputTokens int
	KeptTokens  int
	Clipped     bool
}

// Assembler clips text to a token budget.
type Assembler struct {
	estimate  TokenEstimator
	maxTokens int
}

// Option configures the Assembler.
type Option func(*Assembler)

// WithTokenEstimator sets the token estimator. Defaults to rune length.
func WithTokenEstimator(est TokenEstimator) Option {
	return func(a *Assembler) {
		if est != nil {
			a.estimate = est
		}
	}
}

// WithMaxTokens sets the maximum token budget. Non-positive means unlimited.
func WithMaxTokens(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// New creates a new Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		estimate:  func(s string) int { return len([]rune(s)) },
		maxTokens: 1_000_000_000,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxTokens returns the configured budget.
func (a *Assembler) MaxTokens() int { return a.maxTokens }

// Clip returns the longest rune prefix of text whose estimate fits the
// budget, followed by a truncation note when anything was cut.
// The estimator must be monotonic in prefix length.
func (a *Assembler) Clip(text string) (string, ClipLog) {
	total := a.estimate(text)
	if total <= a.maxTokens {
		return text, ClipLog{InputTokens: total, KeptTokens: total}
	}
	runes := []rune(text)
	// Largest n with estimate(runes[:n]) <= maxTokens.
	n := sort.Search(len(runes)+1, func(i int) bool {
		return a.estimate(string(runes[:i])) > a.maxTokens
	}) - 1
	if n < 0 {
		n = 0
	}
	kept := string(runes[:n])
	keptTokens := a.estimate(kept)
	note := fmt.Sprintf("\n[output truncated: kept %d of %d tokens]", keptTokens, total)
	return kept + note, ClipLog{InputTokens: total, KeptTokens: keptTokens, Clipped: true}
}

// ClipText is Clip without the log, shaped for agent.WithOutputClipper.
func (a *Assembler) ClipText(text string) string {
	out, _ := a.Clip(text)
	return out
}
