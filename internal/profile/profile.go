package profile

import (
	"fmt"
	"sort"
	"time"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
)

// Profile is a named player state: upgrade levels, spendable currency and
// category weights. Tags are for the player's own organisation and are never
// read by scoring.
type Profile struct {
	ID        string         `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
	Currency  float64        `json:"available_currency" db:"currency"`
	Levels    map[string]int `json:"levels" db:"levels"`
	Weights   ScoringWeights `json:"weights" db:"weights"`
	Tags      []string       `json:"tags" db:"tags"`
}

// Level returns the current level for upgradeID; missing entries are level 0.
func (p *Profile) Level(upgradeID string) int {
	return p.Levels[upgradeID]
}

// Clone returns a deep copy so callers can mutate without touching p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Levels = make(map[string]int, len(p.Levels))
	for k, v := range p.Levels {
		c.Levels[k] = v
	}
	c.Weights = p.Weights.Clone()
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

// LevelIssue describes a profile level outside its upgrade's range.
type LevelIssue struct {
	UpgradeID string
	Level     int
	MaxLevel  int
}

func (i LevelIssue) String() string {
	return fmt.Sprintf("%s: level %d outside 0..%d", i.UpgradeID, i.Level, i.MaxLevel)
}

// CatalogCheck is the outcome of comparing a profile with a catalog.
type CatalogCheck struct {
	OutOfRange []LevelIssue
	UnknownIDs []string
}

// OK reports whether every recorded level is in range. Unknown ids are
// tolerated and do not affect OK.
func (c CatalogCheck) OK() bool {
	return len(c.OutOfRange) == 0
}

// Validate compares p's levels with cat. Levels for ids the catalog does not
// know are reported but are otherwise harmless: scoring ignores them.
func (p *Profile) Validate(cat *catalog.Catalog) CatalogCheck {
	var check CatalogCheck

	ids := make([]string, 0, len(p.Levels))
	for id := range p.Levels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		level := p.Levels[id]
		u, ok := cat.Get(id)
		if !ok {
			check.UnknownIDs = append(check.UnknownIDs, id)
			continue
		}
		if level < 0 || level > u.MaxLevel {
			check.OutOfRange = append(check.OutOfRange, LevelIssue{UpgradeID: id, Level: level, MaxLevel: u.MaxLevel})
		}
	}
	return check
}

// normalize fills nil collections so stored documents and query results
// always carry empty values rather than null.
func (p *Profile) normalize() {
	if p.Levels == nil {
		p.Levels = map[string]int{}
	}
	if p.Weights == nil {
		p.Weights = DefaultWeights()
	}
	for c, w := range p.Weights {
		p.Weights[c] = ClampWeight(w)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
