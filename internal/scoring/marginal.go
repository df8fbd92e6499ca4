package scoring

import (
	"math"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
)

// Status says whether a marginal score could be computed.
type Status int

const (
	// Scored means Score holds MarginalBenefit / Cost.
	Scored Status = iota
	// Exhausted means the upgrade is at (or past) its max level.
	Exhausted
	// Undefined means the level data cannot be scored, e.g. a zero cost.
	Undefined
)

func (s Status) String() string {
	switch s {
	case Scored:
		return "scored"
	case Exhausted:
		return "exhausted"
	case Undefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// MarginalScore is the value-per-cost of buying an upgrade's next level,
// with the inputs that produced it.
type MarginalScore struct {
	Status          Status
	CurrentLevel    int
	NextLevel       int
	Cost            float64
	CurrentEffect   float64
	NextEffect      float64
	MarginalBenefit float64
	Score           float64
}

// ComputeMarginalScore scores the next level of u for a player currently at
// currentLevel. Negative levels read as 0. The marginal benefit always comes
// from cumulative effects; the stored per-level delta is never consulted.
func ComputeMarginalScore(u catalog.Upgrade, currentLevel int) MarginalScore {
	if currentLevel < 0 {
		currentLevel = 0
	}

	ms := MarginalScore{
		CurrentLevel:  currentLevel,
		CurrentEffect: u.EffectAt(currentLevel),
	}

	if currentLevel >= u.MaxLevel {
		ms.Status = Exhausted
		ms.NextLevel = currentLevel
		ms.NextEffect = ms.CurrentEffect
		return ms
	}

	ms.NextLevel = currentLevel + 1
	next, ok := u.Level(ms.NextLevel)
	if !ok {
		ms.Status = Undefined
		ms.NextEffect = ms.CurrentEffect
		return ms
	}

	ms.Cost = next.Cost
	ms.NextEffect = next.CumulativeEffect
	ms.MarginalBenefit = ms.NextEffect - ms.CurrentEffect

	if ms.Cost <= 0 {
		ms.Status = Undefined
		return ms
	}

	ms.Score = ms.MarginalBenefit / ms.Cost
	if math.IsNaN(ms.Score) || math.IsInf(ms.Score, 0) {
		ms.Status = Undefined
		ms.Score = 0
		return ms
	}
	ms.Status = Scored
	return ms
}
