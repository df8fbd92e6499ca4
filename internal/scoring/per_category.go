package scoring

import (
	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
)

// PerCategoryEngine picks the best next purchase inside each category and
// never compares across categories, so no weights are involved.
type PerCategoryEngine struct{}

// NewPerCategoryEngine returns a PerCategoryEngine.
func NewPerCategoryEngine() *PerCategoryEngine { return &PerCategoryEngine{} }

// Name returns the registry name.
func (*PerCategoryEngine) Name() string { return "per_category_best" }

// Version returns the method version recorded on every result.
func (*PerCategoryEngine) Version() string { return "1.0" }

// Describe returns the ranking method in prose.
func (*PerCategoryEngine) Describe() string {
	return "Per-category best: for every category, score each upgrade that still has a level " +
		"to buy as (next effect - current effect) / next level cost and keep the highest. " +
		"Categories are never compared with each other and weights are not applied. " +
		"Categories with every upgrade maxed are left out."
}

// Rank implements Engine.
func (e *PerCategoryEngine) Rank(cat *catalog.Catalog, p *profile.Profile) ([]RankedUpgrade, error) {
	p = snapshot(p)
	if cat == nil {
		return []RankedUpgrade{}, nil
	}

	out := []RankedUpgrade{}
	for _, category := range cat.Categories() {
		var best *RankedUpgrade
		for _, u := range cat.ByCategory(category) {
			r, ok := candidate(e, u, p, 1.0, false)
			if !ok {
				continue
			}
			if best == nil || less(r, *best) {
				best = &r
			}
		}
		if best != nil {
			out = append(out, *best)
		}
	}

	Sort(out)
	if err := annotate(e, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Explain implements Engine.
func (*PerCategoryEngine) Explain(r RankedUpgrade) (string, error) {
	return explanation(r, false), nil
}
