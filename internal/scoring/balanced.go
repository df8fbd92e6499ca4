package scoring

import (
	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
)

// BalancedEngine ranks every upgrade globally by raw score times the
// category weight. Weights come from the profile unless an override is set.
type BalancedEngine struct {
	override profile.ScoringWeights
}

// NewBalancedEngine returns a BalancedEngine.
func NewBalancedEngine() *BalancedEngine { return &BalancedEngine{} }

// WithWeights returns a copy of e that scores with w instead of the profile's
// weights, for previewing a weighting without saving it.
func (e *BalancedEngine) WithWeights(w profile.ScoringWeights) *BalancedEngine {
	return &BalancedEngine{override: w.Clone()}
}

// Name returns the registry name.
func (*BalancedEngine) Name() string { return "balanced" }

// Version returns the method version recorded on every result.
func (*BalancedEngine) Version() string { return "1.0" }

// Describe returns the ranking method in prose.
func (*BalancedEngine) Describe() string {
	return "Balanced: score every upgrade that still has a level to buy as " +
		"(next effect - current effect) / next level cost, multiply by the profile's weight " +
		"for its category (1.0 when unset) and rank all of them together. Scores are rounded " +
		"to 12 decimal places; ties go to the cheaper next level, then to the earlier name."
}

func (e *BalancedEngine) weights(p *profile.Profile) profile.ScoringWeights {
	if e.override != nil {
		return e.override
	}
	return p.Weights
}

// Rank implements Engine.
func (e *BalancedEngine) Rank(cat *catalog.Catalog, p *profile.Profile) ([]RankedUpgrade, error) {
	p = snapshot(p)
	if cat == nil {
		return []RankedUpgrade{}, nil
	}

	w := e.weights(p)
	out := []RankedUpgrade{}
	for _, u := range cat.Upgrades() {
		_, set := w[u.Category]
		r, ok := candidate(e, u, p, w.For(u.Category), !set)
		if ok {
			out = append(out, r)
		}
	}

	Sort(out)
	if err := annotate(e, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Explain implements Engine.
func (*BalancedEngine) Explain(r RankedUpgrade) (string, error) {
	return explanation(r, true), nil
}
