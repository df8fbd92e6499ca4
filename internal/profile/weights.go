package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultWeight applies to every category without an explicit entry.
	DefaultWeight = 1.0
	MinWeight     = 0.0
	MaxWeight     = 2.0
)

// ErrInvalidWeight is returned for weights outside [MinWeight, MaxWeight].
var ErrInvalidWeight = errors.New("invalid weight")

// ScoringWeights maps a category to a multiplier in [0, 2].
type ScoringWeights map[string]float64

// DefaultWeights returns a fresh value with every category at DefaultWeight.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{}
}

// For returns the weight for category, or DefaultWeight when the category
// has no entry. A nil map behaves like an empty one.
func (w ScoringWeights) For(category string) float64 {
	if v, ok := w[category]; ok {
		return v
	}
	return DefaultWeight
}

// Set stores the weight for category.
func (w ScoringWeights) Set(category string, weight float64) error {
	if weight < MinWeight || weight > MaxWeight || math.IsNaN(weight) {
		return fmt.Errorf("%w: %s=%v, must be between %v and %v", ErrInvalidWeight, category, weight, MinWeight, MaxWeight)
	}
	w[category] = weight
	return nil
}

// Categories lists the categories with an explicit weight, sorted.
func (w ScoringWeights) Categories() []string {
	cats := make([]string, 0, len(w))
	for c := range w {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Clone returns an independent copy.
func (w ScoringWeights) Clone() ScoringWeights {
	out := make(ScoringWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// ClampWeight limits v to the accepted weight range.
func ClampWeight(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultWeight
	}
	if v < MinWeight {
		return MinWeight
	}
	if v > MaxWeight {
		return MaxWeight
	}
	return v
}
