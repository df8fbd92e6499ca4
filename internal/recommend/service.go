package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sbenjam1n/upgradeadvisor/internal/cache"
	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
	"github.com/sbenjam1n/upgradeadvisor/internal/queue"
	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

// AlternativesCount is how many runners-up follow the top pick.
const AlternativesCount = 10

// Cache stores rankings by key. *cache.RankingCache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]scoring.RankedUpgrade, bool, error)
	Set(ctx context.Context, key string, rs []scoring.RankedUpgrade) error
}

// Events receives one event per recommendation. *queue.Queue satisfies it.
type Events interface {
	PushRecommendation(ctx context.Context, ev queue.RecommendationEvent) (string, error)
}

// Recommendation is a ranking split for display.
type Recommendation struct {
	Engine       string                  `json:"engine"`
	Version      string                  `json:"version"`
	Method       string                  `json:"method"`
	Top          *scoring.RankedUpgrade  `json:"top,omitempty"`
	Alternatives []scoring.RankedUpgrade `json:"alternatives"`
	All          []scoring.RankedUpgrade `json:"all"`
	Total        int                     `json:"total"`
	Cached       bool                    `json:"cached"`
}

// Explanation returns the explanation text for upgradeID if it is ranked.
func (r *Recommendation) Explanation(upgradeID string) (string, bool) {
	for _, u := range r.All {
		if u.UpgradeID == upgradeID {
			return u.Explanation, true
		}
	}
	return "", false
}

// Service runs engines and takes care of caching and event publishing.
// Cache and event failures are logged and never fail a recommendation.
type Service struct {
	registry *scoring.Registry
	cache    Cache
	events   Events
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables ranking caching.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithEvents enables recommendation events.
func WithEvents(e Events) Option {
	return func(s *Service) { s.events = e }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(registry *scoring.Registry, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{registry: registry, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the engines the service selects from.
func (s *Service) Registry() *scoring.Registry {
	return s.registry
}

func (s *Service) engine(name string) (scoring.Engine, error) {
	if name == "" {
		name = scoring.DefaultEngine
	}
	return s.registry.Get(name)
}

// Rank runs engineName over cat and p, consulting the cache first. The
// second result reports a cache hit.
func (s *Service) Rank(ctx context.Context, engineName string, cat *catalog.Catalog, p *profile.Profile) ([]scoring.RankedUpgrade, bool, error) {
	engine, err := s.engine(engineName)
	if err != nil {
		return nil, false, err
	}
	return s.rankWith(ctx, engine, cat, p, true)
}

func (s *Service) rankWith(ctx context.Context, engine scoring.Engine, cat *catalog.Catalog, p *profile.Profile, useCache bool) ([]scoring.RankedUpgrade, bool, error) {
	if p != nil && cat != nil {
		if check := p.Validate(cat); len(check.UnknownIDs) > 0 {
			s.logger.Debug("profile references unknown upgrades",
				zap.String("profile", p.ID), zap.Strings("ids", check.UnknownIDs))
		}
	}

	useCache = useCache && s.cache != nil
	var key string
	if useCache {
		key = cache.Key(engine.Name(), engine.Version(), cat, p)
		rs, hit, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("ranking cache read failed", zap.Error(err))
		case hit:
			s.logger.Debug("ranking cache hit", zap.String("key", key))
			return rs, true, nil
		default:
			s.logger.Debug("ranking cache miss", zap.String("key", key))
		}
	}

	rs, err := engine.Rank(cat, p)
	if err != nil {
		return nil, false, fmt.Errorf("recommend with %s: %w", engine.Name(), err)
	}

	if useCache {
		if err := s.cache.Set(ctx, key, rs); err != nil {
			s.logger.Warn("ranking cache write failed", zap.Error(err))
		}
	}
	return rs, false, nil
}

// Recommend ranks and splits the result into the top pick, up to
// AlternativesCount runners-up, and the first limit entries (all when
// limit <= 0).
func (s *Service) Recommend(ctx context.Context, engineName string, cat *catalog.Catalog, p *profile.Profile, limit int) (*Recommendation, error) {
	engine, err := s.engine(engineName)
	if err != nil {
		return nil, err
	}
	return s.recommendWith(ctx, engine, cat, p, limit, true)
}

// RecommendWith is Recommend with an explicit engine, e.g. a balanced
// engine carrying preview weights. The cache is bypassed because the
// engine's configuration is not part of the cache key.
func (s *Service) RecommendWith(ctx context.Context, engine scoring.Engine, cat *catalog.Catalog, p *profile.Profile, limit int) (*Recommendation, error) {
	return s.recommendWith(ctx, engine, cat, p, limit, false)
}

func (s *Service) recommendWith(ctx context.Context, engine scoring.Engine, cat *catalog.Catalog, p *profile.Profile, limit int, useCache bool) (*Recommendation, error) {
	rs, cached, err := s.rankWith(ctx, engine, cat, p, useCache)
	if err != nil {
		return nil, err
	}

	rec := &Recommendation{
		Engine:       engine.Name(),
		Version:      engine.Version(),
		Method:       engine.Describe(),
		Alternatives: []scoring.RankedUpgrade{},
		All:          rs,
		Total:        len(rs),
		Cached:       cached,
	}
	if limit > 0 && len(rs) > limit {
		rec.All = rs[:limit]
	}
	if len(rs) > 0 {
		top := rs[0]
		rec.Top = &top
		end := min(len(rs), 1+AlternativesCount)
		rec.Alternatives = rs[1:end]
	}

	s.publish(ctx, rec, p)
	return rec, nil
}

func (s *Service) publish(ctx context.Context, rec *Recommendation, p *profile.Profile) {
	if s.events == nil {
		return
	}
	ev := queue.RecommendationEvent{
		Engine:        rec.Engine,
		EngineVersion: rec.Version,
		Candidates:    rec.Total,
		CreatedAt:     s.now().UTC(),
	}
	if p != nil {
		ev.ProfileID = p.ID
	}
	if rec.Top != nil {
		ev.TopUpgradeID = rec.Top.UpgradeID
		ev.TopScore = rec.Top.Score
		ev.Affordable = rec.Top.Affordable
	}
	if _, err := s.events.PushRecommendation(ctx, ev); err != nil {
		s.logger.Warn("publish recommendation failed", zap.Error(err))
	}
}
