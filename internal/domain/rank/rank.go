// Package rank maps request priorities to acceptance thresholds, bands
// candidate totals into recommendation tiers and assigns dense ranks.
package rank

import (
	"sort"

	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/types"
)

// Tier band offsets relative to the priority threshold.
const (
	strongMargin     = 15.0
	acceptableMargin = 10.0

	// Threshold applied to unrecognized priorities.
	fallbackThreshold = 65.0
)

// Thresholds maps a request priority to its acceptance threshold.
type Thresholds map[model.Priority]float64

// DefaultThresholds returns the standard priority threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		model.PriorityP1: 85,
		model.PriorityP2: 75,
		model.PriorityP3: 65,
		model.PriorityP4: 55,
		model.PriorityP5: 50,
	}
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithThresholds overrides the priority threshold table.
func WithThresholds(t Thresholds) Option {
	return func(c *Classifier) {
		if len(t) > 0 {
			c.thresholds = t
		}
	}
}

// Classifier is an immutable threshold/tier lookup, configured once at
// construction time.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a classifier with configuration options.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		thresholds: DefaultThresholds(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Threshold returns the acceptance threshold for a priority.
func (c *Classifier) Threshold(p model.Priority) float64 {
	if t, ok := c.thresholds[p]; ok {
		return t
	}
	return fallbackThreshold
}

// Tier bands a total score against a threshold.
func (c *Classifier) Tier(total, threshold float64) model.Tier {
	switch {
	case total >= threshold+strongMargin:
		return model.TierStrong
	case total >= threshold:
		return model.TierRecommended
	case total >= threshold-acceptableMargin:
		return model.TierAcceptable
	default:
		return model.TierWeak
	}
}

// Order sorts candidates by descending total score (stable, so ties keep
// their original pool iteration order), truncates to topN when topN > 0,
// and assigns dense ranks 1..N.
func Order(candidates []types.Candidate, topN int) []types.Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TotalScore > candidates[j].TotalScore
	})

	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}

	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	return candidates
}

// QualifiedCount counts candidates at or above the threshold.
func QualifiedCount(candidates []types.Candidate, threshold float64) int {
	var n int
	for i := range candidates {
		if candidates[i].TotalScore >= threshold {
			n++
		}
	}
	return n
}
