package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
version: "2026-10-01"
game_version: "27.1"
source: manual
upgrades:
  - id: damage
    name: Damage
    category: attack
    effect_type: additive
    max_level: 3
    display_order: 1
    levels:
      - {level: 1, cost: 50, cumulative_effect: 5, effect_delta: 5}
      - {level: 2, cost: 120, cumulative_effect: 10, effect_delta: 5}
      - {level: 3, cost: 300, cumulative_effect: 15, effect_delta: 5}
  - id: health
    name: Health
    category: defense
    effect_type: multiplicative
    max_level: 2
    display_order: 0
    levels:
      - {level: 1, cost: 75, cumulative_effect: 1.1, effect_delta: 0.1}
      - {level: 2, cost: 150, cumulative_effect: 1.2, effect_delta: 0.1}
`

func testUpgrade(id, category string, kind EffectKind, costs []float64, effects []float64) Upgrade {
	u := Upgrade{ID: id, Name: id, Category: category, EffectKind: kind, MaxLevel: len(costs)}
	prev := kind.BaseValue()
	for i := range costs {
		u.Levels = append(u.Levels, Level{
			Level:            i + 1,
			Cost:             costs[i],
			CumulativeEffect: effects[i],
			EffectDelta:      effects[i] - prev,
		})
		prev = effects[i]
	}
	return u
}

func TestParseYAML(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "2026-10-01", c.Version)
	assert.Equal(t, "27.1", c.GameVersion)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"damage", "health"}, c.IDs())

	u, ok := c.Get("health")
	require.True(t, ok)
	assert.Equal(t, Multiplicative, u.EffectKind)
	assert.Equal(t, 1.0, u.BaseValue())
	assert.Equal(t, 150.0, u.Levels[1].Cost)
}

func TestParseJSON(t *testing.T) {
	doc := `{"version": "v1", "game_version": "1", "source": "test", "upgrades": [
		{"id": "coins", "name": "Coins", "category": "utility", "effect_type": "multiplicative",
		 "max_level": 1, "display_order": 0,
		 "levels": [{"level": 1, "cost": 10, "cumulative_effect": 1.5, "effect_delta": 0.5}]}
	]}`

	c, err := Parse([]byte(doc))
	require.NoError(t, err)
	u, ok := c.Get("coins")
	require.True(t, ok)
	assert.Equal(t, "utility", u.Category)
}

func TestParseRejectsStringNumbers(t *testing.T) {
	doc := `
version: v1
game_version: "1"
source: test
upgrades:
  - id: damage
    name: Damage
    category: attack
    effect_type: additive
    max_level: 1
    levels:
      - {level: 1, cost: "1.2M", cumulative_effect: 5, effect_delta: 5}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCatalog))
	assert.Contains(t, err.Error(), "1.2M")
}

func TestNewStructuralErrors(t *testing.T) {
	good := testUpgrade("a", "attack", Additive, []float64{1, 2}, []float64{1, 2})

	tests := []struct {
		name   string
		mutate func(u *Upgrade)
		want   string
	}{
		{"empty id", func(u *Upgrade) { u.ID = "  " }, "id is empty"},
		{"empty name", func(u *Upgrade) { u.Name = "" }, "name is empty"},
		{"unknown kind", func(u *Upgrade) { u.EffectKind = "exponential" }, "unknown effect type"},
		{"length mismatch", func(u *Upgrade) { u.MaxLevel = 3 }, "2 levels defined, max_level is 3"},
		{"gap", func(u *Upgrade) { u.Levels[1].Level = 3 }, "expected level 2"},
		{"zero max", func(u *Upgrade) { u.MaxLevel = 0; u.Levels = nil }, "max_level must be >= 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := good
			u.Levels = append([]Level(nil), good.Levels...)
			tt.mutate(&u)

			_, err := New("v", "g", "s", []Upgrade{u})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	a := testUpgrade("a", "attack", Additive, []float64{1}, []float64{1})
	_, err := New("v", "g", "s", []Upgrade{a, a})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate upgrade id "a"`)
}

func TestCatalogIsolatedFromInput(t *testing.T) {
	a := testUpgrade("a", "attack", Additive, []float64{1, 2}, []float64{1, 2})
	c, err := New("v", "g", "s", []Upgrade{a})
	require.NoError(t, err)

	a.Levels[0].Cost = 999
	got, _ := c.Get("a")
	assert.Equal(t, 1.0, got.Levels[0].Cost)
}

func TestCategoriesOrderedByDisplayOrder(t *testing.T) {
	a := testUpgrade("a", "utility", Additive, []float64{1}, []float64{1})
	a.DisplayOrder = 5
	b := testUpgrade("b", "attack", Additive, []float64{1}, []float64{1})
	b.DisplayOrder = 1
	d := testUpgrade("d", "defense", Additive, []float64{1}, []float64{1})
	d.DisplayOrder = 2
	e := testUpgrade("e", "attack", Additive, []float64{1}, []float64{1})
	e.DisplayOrder = 9

	c, err := New("v", "g", "s", []Upgrade{a, b, d, e})
	require.NoError(t, err)

	assert.Equal(t, []string{"attack", "defense", "utility"}, c.Categories())
	assert.Len(t, c.ByCategory("attack"), 2)
	assert.Empty(t, c.ByCategory("economy"))
}

func TestEffectAt(t *testing.T) {
	mult := testUpgrade("m", "attack", Multiplicative, []float64{10, 20}, []float64{1.1, 1.3})
	add := testUpgrade("a", "attack", Additive, []float64{10, 20}, []float64{4, 9})

	tests := []struct {
		u     Upgrade
		level int
		want  float64
	}{
		{mult, 0, 1.0},
		{mult, 1, 1.1},
		{mult, 2, 1.3},
		{mult, 7, 1.3},
		{add, 0, 0},
		{add, -1, 0},
		{add, 2, 9},
	}

	for _, tt := range tests {
		got := tt.u.EffectAt(tt.level)
		if got != tt.want {
			t.Errorf("EffectAt(%s, %d) = %v, want %v", tt.u.ID, tt.level, got, tt.want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upgrades.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
