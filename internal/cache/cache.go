package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

// KeyPrefix namespaces every ranking entry.
const KeyPrefix = "advisor:rank"

// RankingCache stores computed rankings in Redis. Entries are keyed by every
// input that can change a ranking, so they never need invalidating.
type RankingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a RankingCache. A non-positive ttl keeps entries forever.
func New(client *redis.Client, ttl time.Duration) *RankingCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RankingCache{client: client, ttl: ttl}
}

// Get returns the cached ranking for key. A miss is (nil, false, nil).
func (c *RankingCache) Get(ctx context.Context, key string) ([]scoring.RankedUpgrade, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get ranking %s: %w", key, err)
	}

	var rs []scoring.RankedUpgrade
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, false, fmt.Errorf("decode ranking %s: %w", key, err)
	}
	return rs, true, nil
}

// Set stores rs under key.
func (c *RankingCache) Set(ctx context.Context, key string, rs []scoring.RankedUpgrade) error {
	data, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("encode ranking: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set ranking %s: %w", key, err)
	}
	return nil
}

// fingerprint holds exactly the inputs scoring reads. Names, tags and
// timestamps are left out so renaming a profile keeps its cache entries.
type fingerprint struct {
	CatalogVersion string                 `json:"catalog_version"`
	GameVersion    string                 `json:"game_version"`
	Upgrades       []catalog.Upgrade      `json:"upgrades"`
	Currency       float64                `json:"currency"`
	Levels         map[string]int         `json:"levels"`
	Weights        profile.ScoringWeights `json:"weights"`
}

// Key builds the cache key for ranking cat against p with engine.
func Key(engine, version string, cat *catalog.Catalog, p *profile.Profile) string {
	fp := fingerprint{}
	if cat != nil {
		fp.CatalogVersion = cat.Version
		fp.GameVersion = cat.GameVersion
		fp.Upgrades = cat.Upgrades()
	}
	if p != nil {
		fp.Currency = p.Currency
		if len(p.Levels) > 0 {
			fp.Levels = p.Levels
		}
		if len(p.Weights) > 0 {
			fp.Weights = p.Weights
		}
	}

	// encoding/json writes map keys sorted, so equal inputs hash equally.
	data, _ := json.Marshal(fp)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s:%s:%s", KeyPrefix, engine, version, hex.EncodeToString(sum[:]))
}
