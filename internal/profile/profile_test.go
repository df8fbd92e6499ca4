package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightsFor(t *testing.T) {
	w := ScoringWeights{"attack": 1.5, "defense": 0}

	tests := []struct {
		category string
		want     float64
	}{
		{"attack", 1.5},
		{"defense", 0},
		{"utility", 1.0},
		{"", 1.0},
	}
	for _, tt := range tests {
		if got := w.For(tt.category); got != tt.want {
			t.Errorf("For(%q) = %v, want %v", tt.category, got, tt.want)
		}
	}

	var nilWeights ScoringWeights
	assert.Equal(t, 1.0, nilWeights.For("anything"))
}

func TestWeightsSet(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, w.Set("attack", 2))
	require.NoError(t, w.Set("defense", 0))

	for _, bad := range []float64{-0.1, 2.01, math.NaN()} {
		err := w.Set("utility", bad)
		assert.True(t, errors.Is(err, ErrInvalidWeight), "weight %v", bad)
	}
	assert.Equal(t, []string{"attack", "defense"}, w.Categories())
}

func TestDefaultWeightsNotShared(t *testing.T) {
	a := DefaultWeights()
	b := DefaultWeights()
	require.NoError(t, a.Set("attack", 2))
	assert.Equal(t, 1.0, b.For("attack"))
}

func TestClampWeight(t *testing.T) {
	assert.Equal(t, 0.0, ClampWeight(-3))
	assert.Equal(t, 2.0, ClampWeight(9))
	assert.Equal(t, 0.7, ClampWeight(0.7))
	assert.Equal(t, 1.0, ClampWeight(math.NaN()))
}

func TestProfileLevelDefaultsToZero(t *testing.T) {
	p := &Profile{Levels: map[string]int{"damage": 3}}
	assert.Equal(t, 3, p.Level("damage"))
	assert.Equal(t, 0, p.Level("health"))

	empty := &Profile{}
	assert.Equal(t, 0, empty.Level("damage"))
}

func TestProfileClone(t *testing.T) {
	p := &Profile{
		ID:      "x",
		Levels:  map[string]int{"damage": 1},
		Weights: ScoringWeights{"attack": 1.2},
		Tags:    []string{"farm"},
	}
	c := p.Clone()
	c.Levels["damage"] = 9
	c.Weights["attack"] = 0.1
	c.Tags[0] = "push"

	assert.Equal(t, 1, p.Levels["damage"])
	assert.Equal(t, 1.2, p.Weights["attack"])
	assert.Equal(t, "farm", p.Tags[0])
}

func TestProfileValidate(t *testing.T) {
	cat, err := catalog.New("v", "g", "s", []catalog.Upgrade{{
		ID: "damage", Name: "Damage", Category: "attack", EffectKind: catalog.Additive, MaxLevel: 2,
		Levels: []catalog.Level{
			{Level: 1, Cost: 10, CumulativeEffect: 1, EffectDelta: 1},
			{Level: 2, Cost: 20, CumulativeEffect: 2, EffectDelta: 1},
		},
	}})
	require.NoError(t, err)

	p := &Profile{Levels: map[string]int{"damage": 3, "retired_upgrade": 4}}
	check := p.Validate(cat)
	assert.False(t, check.OK())
	require.Len(t, check.OutOfRange, 1)
	assert.Equal(t, "damage: level 3 outside 0..2", check.OutOfRange[0].String())
	assert.Equal(t, []string{"retired_upgrade"}, check.UnknownIDs)

	p.Levels["damage"] = 2
	assert.True(t, p.Validate(cat).OK())
}

func TestNormalizeClampsWeights(t *testing.T) {
	p := &Profile{Weights: ScoringWeights{"attack": -1, "defense": 5, "utility": 1.25}}
	p.normalize()
	assert.Equal(t, ScoringWeights{"attack": 0, "defense": 2, "utility": 1.25}, p.Weights)
	assert.NotNil(t, p.Levels)
	assert.NotNil(t, p.Tags)
}
