package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

func testCatalog(t *testing.T, cost float64) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New("2026.10", "1.0", "test", []catalog.Upgrade{{
		ID: "damage", Name: "Damage", Category: "attack", EffectKind: catalog.Additive, MaxLevel: 1,
		Levels: []catalog.Level{{Level: 1, Cost: cost, CumulativeEffect: 1, EffectDelta: 1}},
	}})
	require.NoError(t, err)
	return cat
}

func TestKeyCoversScoringInputs(t *testing.T) {
	cat := testCatalog(t, 10)
	base := &profile.Profile{
		ID: "p1", Name: "Main", Currency: 50,
		Levels:  map[string]int{"damage": 0},
		Weights: profile.ScoringWeights{"attack": 1.5},
	}
	key := Key("balanced", "1.0", cat, base)
	assert.True(t, strings.HasPrefix(key, "advisor:rank:balanced:1.0:"))
	assert.Equal(t, key, Key("balanced", "1.0", cat, base.Clone()), "stable for equal inputs")

	renamed := base.Clone()
	renamed.Name = "Renamed"
	renamed.Tags = []string{"farm"}
	renamed.UpdatedAt = time.Now()
	assert.Equal(t, key, Key("balanced", "1.0", cat, renamed), "names, tags and timestamps do not matter")

	changes := map[string]func(p *profile.Profile){
		"currency": func(p *profile.Profile) { p.Currency = 51 },
		"level":    func(p *profile.Profile) { p.Levels["damage"] = 1 },
		"weight":   func(p *profile.Profile) { p.Weights["attack"] = 1.0 },
	}
	for name, change := range changes {
		p := base.Clone()
		change(p)
		assert.NotEqual(t, key, Key("balanced", "1.0", cat, p), name)
	}

	assert.NotEqual(t, key, Key("per_category_best", "1.0", cat, base))
	assert.NotEqual(t, key, Key("balanced", "1.1", cat, base))
	assert.NotEqual(t, key, Key("balanced", "1.0", testCatalog(t, 11), base))
}

func TestKeyTreatsEmptyMapsAsMissing(t *testing.T) {
	cat := testCatalog(t, 10)
	a := &profile.Profile{}
	b := &profile.Profile{Levels: map[string]int{}, Weights: profile.DefaultWeights()}
	assert.Equal(t, Key("balanced", "1.0", cat, a), Key("balanced", "1.0", cat, b))
}

// Runs against a real Redis when ADVISOR_TEST_REDIS_URL is set.
func TestRankingCacheRoundTrip(t *testing.T) {
	url := os.Getenv("ADVISOR_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ADVISOR_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	c := New(client, time.Minute)
	key := Key("balanced", "1.0", testCatalog(t, 10), &profile.Profile{ID: t.Name()})
	defer client.Del(ctx, key)

	_, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	want := []scoring.RankedUpgrade{{UpgradeID: "damage", Score: 0.1, Rank: 1, Method: "balanced"}}
	require.NoError(t, c.Set(ctx, key, want))

	got, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
