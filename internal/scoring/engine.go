package scoring

import (
	"errors"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
)

// ScorePrecision is the number of decimal places scores are rounded to
// before they are compared or shown.
const ScorePrecision = 12

var (
	// ErrNotImplemented is returned by engines that exist in the registry but
	// cannot rank yet.
	ErrNotImplemented = errors.New("ranking engine not implemented")
	// ErrUnknownEngine is returned when a registry lookup misses.
	ErrUnknownEngine = errors.New("unknown ranking engine")
)

// Engine ranks a catalog for a profile. Implementations are pure: they read
// the catalog and profile and never mutate either.
type Engine interface {
	Name() string
	Version() string
	// Describe explains the ranking method in prose.
	Describe() string
	Rank(cat *catalog.Catalog, p *profile.Profile) ([]RankedUpgrade, error)
	// Explain renders the numbers behind one ranked result.
	Explain(r RankedUpgrade) (string, error)
}

// RankedUpgrade is one entry of a ranking.
type RankedUpgrade struct {
	UpgradeID       string  `json:"upgrade_id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	EffectUnit      string  `json:"effect_unit,omitempty"`
	CurrentLevel    int     `json:"current_level"`
	NextLevel       int     `json:"next_level"`
	Cost            float64 `json:"cost"`
	CurrentEffect   float64 `json:"current_effect"`
	NextEffect      float64 `json:"next_effect"`
	MarginalBenefit float64 `json:"marginal_benefit"`
	// RawScore is the unweighted marginal benefit per cost, unrounded.
	RawScore        float64 `json:"raw_score"`
	Weight          float64 `json:"weight"`
	WeightDefaulted bool    `json:"weight_defaulted,omitempty"`
	// Score is RawScore times Weight, rounded to ScorePrecision places.
	Score         float64 `json:"score"`
	Affordable    bool    `json:"affordable"`
	Rank          int     `json:"rank"`
	Method        string  `json:"method"`
	MethodVersion string  `json:"method_version"`
	Explanation   string  `json:"explanation"`
}

// Round fixes v to ScorePrecision decimal places. Non-finite values are
// returned unchanged.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(ScorePrecision).Float64()
	return f
}

// less orders by descending score, then cheaper next level, then name.
// The id is a final key so the order is total even for duplicate names.
func less(a, b RankedUpgrade) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.UpgradeID < b.UpgradeID
}

// Sort orders rs in ranking order and assigns 1-based ranks.
func Sort(rs []RankedUpgrade) {
	sort.SliceStable(rs, func(i, j int) bool { return less(rs[i], rs[j]) })
	for i := range rs {
		rs[i].Rank = i + 1
	}
}

// candidate builds the ranked entry for u, or reports false when u is
// exhausted or cannot be scored, including a weighted score that overflows.
func candidate(e Engine, u catalog.Upgrade, p *profile.Profile, weight float64, defaulted bool) (RankedUpgrade, bool) {
	ms := ComputeMarginalScore(u, p.Level(u.ID))
	if ms.Status != Scored {
		return RankedUpgrade{}, false
	}
	weighted := ms.Score * weight
	if math.IsNaN(weighted) || math.IsInf(weighted, 0) {
		return RankedUpgrade{}, false
	}
	return RankedUpgrade{
		UpgradeID:       u.ID,
		Name:            u.Name,
		Category:        u.Category,
		EffectUnit:      u.EffectUnit,
		CurrentLevel:    ms.CurrentLevel,
		NextLevel:       ms.NextLevel,
		Cost:            ms.Cost,
		CurrentEffect:   ms.CurrentEffect,
		NextEffect:      ms.NextEffect,
		MarginalBenefit: ms.MarginalBenefit,
		RawScore:        ms.Score,
		Weight:          weight,
		WeightDefaulted: defaulted,
		Score:           Round(weighted),
		Affordable:      p.Currency >= ms.Cost,
		Method:          e.Name(),
		MethodVersion:   e.Version(),
	}, true
}

func snapshot(p *profile.Profile) *profile.Profile {
	if p == nil {
		return &profile.Profile{}
	}
	return p
}

// annotate fills each entry's explanation.
func annotate(e Engine, rs []RankedUpgrade) error {
	for i := range rs {
		text, err := e.Explain(rs[i])
		if err != nil {
			return err
		}
		rs[i].Explanation = text
	}
	return nil
}
