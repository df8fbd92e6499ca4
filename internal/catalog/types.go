package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCatalog marks structural problems that make a catalog unusable.
var ErrInvalidCatalog = errors.New("invalid catalog")

// EffectKind controls how an upgrade's effect composes and its level-0 value.
type EffectKind string

const (
	Multiplicative EffectKind = "multiplicative"
	Additive       EffectKind = "additive"
)

// Valid reports whether k is a known effect kind.
func (k EffectKind) Valid() bool {
	return k == Multiplicative || k == Additive
}

// BaseValue is the effect an upgrade has before its first level is bought.
func (k EffectKind) BaseValue() float64 {
	if k == Multiplicative {
		return 1.0
	}
	return 0
}

// Level is one rung of an upgrade's ladder.
type Level struct {
	Level            int     `yaml:"level" json:"level"`
	Cost             float64 `yaml:"cost" json:"cost"`
	CumulativeEffect float64 `yaml:"cumulative_effect" json:"cumulative_effect"`
	EffectDelta      float64 `yaml:"effect_delta" json:"effect_delta"`
}

// Upgrade is a purchasable upgrade type with its per-level cost/effect table.
type Upgrade struct {
	ID           string     `yaml:"id" json:"id"`
	Name         string     `yaml:"name" json:"name"`
	Category     string     `yaml:"category" json:"category"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	EffectUnit   string     `yaml:"effect_unit,omitempty" json:"effect_unit,omitempty"`
	EffectKind   EffectKind `yaml:"effect_type" json:"effect_type"`
	MaxLevel     int        `yaml:"max_level" json:"max_level"`
	DisplayOrder int        `yaml:"display_order" json:"display_order"`
	Levels       []Level    `yaml:"levels" json:"levels"`
}

// BaseValue returns the effect at level 0.
func (u Upgrade) BaseValue() float64 {
	return u.EffectKind.BaseValue()
}

// Level returns the rung for level n (1-based).
func (u Upgrade) Level(n int) (Level, bool) {
	if n < 1 || n > len(u.Levels) {
		return Level{}, false
	}
	return u.Levels[n-1], true
}

// EffectAt returns the cumulative effect at level n. Level 0 (and below) maps
// to the base value; levels past the table clamp to the last rung.
func (u Upgrade) EffectAt(n int) float64 {
	if n <= 0 || len(u.Levels) == 0 {
		return u.BaseValue()
	}
	if n > len(u.Levels) {
		n = len(u.Levels)
	}
	return u.Levels[n-1].CumulativeEffect
}

// Catalog is the read-only set of upgrade definitions. It is safe to share
// across goroutines once built.
type Catalog struct {
	Version     string
	GameVersion string
	Source      string

	upgrades []Upgrade
	index    map[string]int
}

// New builds a catalog and checks the structural invariants every consumer
// relies on: unique non-empty ids, a known effect kind, and a contiguous
// level table of exactly MaxLevel rungs.
func New(version, gameVersion, source string, upgrades []Upgrade) (*Catalog, error) {
	c := &Catalog{
		Version:     version,
		GameVersion: gameVersion,
		Source:      source,
		upgrades:    make([]Upgrade, 0, len(upgrades)),
		index:       make(map[string]int, len(upgrades)),
	}

	for i, u := range upgrades {
		u.ID = strings.TrimSpace(u.ID)
		u.Name = strings.TrimSpace(u.Name)
		u.Category = strings.TrimSpace(u.Category)

		if u.ID == "" {
			return nil, fmt.Errorf("%w: upgrades[%d]: id is empty", ErrInvalidCatalog, i)
		}
		if u.Name == "" {
			return nil, fmt.Errorf("%w: upgrade %q: name is empty", ErrInvalidCatalog, u.ID)
		}
		if !u.EffectKind.Valid() {
			return nil, fmt.Errorf("%w: upgrade %q: unknown effect type %q", ErrInvalidCatalog, u.ID, u.EffectKind)
		}
		if u.MaxLevel < 1 {
			return nil, fmt.Errorf("%w: upgrade %q: max_level must be >= 1, got %d", ErrInvalidCatalog, u.ID, u.MaxLevel)
		}
		if len(u.Levels) != u.MaxLevel {
			return nil, fmt.Errorf("%w: upgrade %q: %d levels defined, max_level is %d",
				ErrInvalidCatalog, u.ID, len(u.Levels), u.MaxLevel)
		}
		for j, lv := range u.Levels {
			if lv.Level != j+1 {
				return nil, fmt.Errorf("%w: upgrade %q: expected level %d at position %d, got %d",
					ErrInvalidCatalog, u.ID, j+1, j, lv.Level)
			}
		}
		if _, dup := c.index[u.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate upgrade id %q", ErrInvalidCatalog, u.ID)
		}

		levels := make([]Level, len(u.Levels))
		copy(levels, u.Levels)
		u.Levels = levels

		c.index[u.ID] = len(c.upgrades)
		c.upgrades = append(c.upgrades, u)
	}
	return c, nil
}

// Len returns the number of upgrades.
func (c *Catalog) Len() int {
	return len(c.upgrades)
}

// Upgrades returns the upgrades in catalog order.
func (c *Catalog) Upgrades() []Upgrade {
	out := make([]Upgrade, len(c.upgrades))
	copy(out, c.upgrades)
	return out
}

// Get looks up an upgrade by id.
func (c *Catalog) Get(id string) (Upgrade, bool) {
	i, ok := c.index[id]
	if !ok {
		return Upgrade{}, false
	}
	return c.upgrades[i], true
}

// ByCategory returns the upgrades in category, in catalog order.
func (c *Catalog) ByCategory(category string) []Upgrade {
	var out []Upgrade
	for _, u := range c.upgrades {
		if u.Category == category {
			out = append(out, u)
		}
	}
	return out
}

// Categories returns each category once, ordered by the lowest display order
// among its upgrades.
func (c *Catalog) Categories() []string {
	ordered := c.Upgrades()
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})

	seen := make(map[string]bool)
	var cats []string
	for _, u := range ordered {
		if !seen[u.Category] {
			seen[u.Category] = true
			cats = append(cats, u.Category)
		}
	}
	return cats
}

// IDs returns all upgrade ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.upgrades))
	for i, u := range c.upgrades {
		ids[i] = u.ID
	}
	return ids
}
