package scoring

import (
	"fmt"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
)

// ReferenceEngine is a placeholder for a simulation-backed strategy. It is
// registered so it can be selected and pinned, and fails on every call.
type ReferenceEngine struct{}

// NewReferenceEngine returns a ReferenceEngine.
func NewReferenceEngine() *ReferenceEngine { return &ReferenceEngine{} }

// Name returns the registry name.
func (*ReferenceEngine) Name() string { return "reference" }

// Version returns the method version recorded on every result.
func (*ReferenceEngine) Version() string { return "0.0" }

// Describe returns the ranking method in prose.
func (*ReferenceEngine) Describe() string {
	return "Reference: full-simulation ranking against game progression. Not available yet."
}

// Rank always fails with ErrNotImplemented.
func (e *ReferenceEngine) Rank(*catalog.Catalog, *profile.Profile) ([]RankedUpgrade, error) {
	return nil, fmt.Errorf("rank with %s %s: %w", e.Name(), e.Version(), ErrNotImplemented)
}

// Explain always fails with ErrNotImplemented.
func (e *ReferenceEngine) Explain(RankedUpgrade) (string, error) {
	return "", fmt.Errorf("explain with %s %s: %w", e.Name(), e.Version(), ErrNotImplemented)
}
