package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
	"github.com/sbenjam1n/upgradeadvisor/internal/queue"
	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]scoring.RankedUpgrade, bool, error) {
	args := m.Called(ctx, key)
	rs, _ := args.Get(0).([]scoring.RankedUpgrade)
	return rs, args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, rs []scoring.RankedUpgrade) error {
	args := m.Called(ctx, key, rs)
	return args.Error(0)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PushRecommendation(ctx context.Context, ev queue.RecommendationEvent) (string, error) {
	args := m.Called(ctx, ev)
	return args.String(0), args.Error(1)
}

// fifteen additive upgrades with strictly decreasing scores u00 > u01 > ...
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	var ups []catalog.Upgrade
	for i := 0; i < 15; i++ {
		ups = append(ups, catalog.Upgrade{
			ID: fmt.Sprintf("u%02d", i), Name: fmt.Sprintf("Upgrade %02d", i),
			Category: "attack", EffectKind: catalog.Additive, MaxLevel: 1,
			Levels: []catalog.Level{{Level: 1, Cost: float64(10 * (i + 1)), CumulativeEffect: 1, EffectDelta: 1}},
		})
	}
	cat, err := catalog.New("test", "1.0", "unit", ups)
	require.NoError(t, err)
	return cat
}

func TestRecommendSplitsRanking(t *testing.T) {
	s := NewService(scoring.DefaultRegistry(), zap.NewNop())
	p := &profile.Profile{ID: "p1", Currency: 25}

	rec, err := s.Recommend(context.Background(), "", testCatalog(t), p, 5)
	require.NoError(t, err)

	assert.Equal(t, "balanced", rec.Engine)
	assert.Equal(t, "1.0", rec.Version)
	assert.NotEmpty(t, rec.Method)
	require.NotNil(t, rec.Top)
	assert.Equal(t, "u00", rec.Top.UpgradeID)
	assert.True(t, rec.Top.Affordable)
	assert.Len(t, rec.Alternatives, AlternativesCount)
	assert.Equal(t, "u01", rec.Alternatives[0].UpgradeID)
	assert.Equal(t, "u10", rec.Alternatives[AlternativesCount-1].UpgradeID)
	assert.Len(t, rec.All, 5)
	assert.Equal(t, 15, rec.Total)
	assert.False(t, rec.Cached)

	text, ok := rec.Explanation("u03")
	assert.True(t, ok)
	assert.Contains(t, text, "Upgrade 03")
	_, ok = rec.Explanation("u12")
	assert.False(t, ok, "outside the limit")
}

func TestRecommendEmptyRanking(t *testing.T) {
	s := NewService(scoring.DefaultRegistry(), zap.NewNop())
	empty, err := catalog.New("test", "1.0", "unit", nil)
	require.NoError(t, err)

	rec, err := s.Recommend(context.Background(), "per_category_best", empty, &profile.Profile{}, 0)
	require.NoError(t, err)
	assert.Nil(t, rec.Top)
	assert.Empty(t, rec.Alternatives)
	assert.Empty(t, rec.All)
}

func TestRecommendEngineErrors(t *testing.T) {
	s := NewService(scoring.DefaultRegistry(), zap.NewNop())
	ctx := context.Background()

	_, err := s.Recommend(ctx, "reference", testCatalog(t), &profile.Profile{}, 0)
	assert.True(t, errors.Is(err, scoring.ErrNotImplemented))

	_, err = s.Recommend(ctx, "nope", testCatalog(t), &profile.Profile{}, 0)
	assert.True(t, errors.Is(err, scoring.ErrUnknownEngine))
}

func TestRankUsesCache(t *testing.T) {
	ctx := context.Background()
	cached := []scoring.RankedUpgrade{{UpgradeID: "from-cache", Rank: 1}}

	c := &MockCache{}
	c.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(cached, true, nil).Once()
	s := NewService(scoring.DefaultRegistry(), zap.NewNop(), WithCache(c))

	rs, hit, err := s.Rank(ctx, "balanced", testCatalog(t), &profile.Profile{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, cached, rs)
	c.AssertExpectations(t)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestRankStoresMissAndSurvivesCacheErrors(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection refused")

	c := &MockCache{}
	c.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(nil, false, down)
	c.On("Set", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(down)
	s := NewService(scoring.DefaultRegistry(), zap.NewNop(), WithCache(c))

	rs, hit, err := s.Rank(ctx, "balanced", testCatalog(t), &profile.Profile{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, rs, 15)
	c.AssertExpectations(t)
}

func TestPreviewBypassesCache(t *testing.T) {
	c := &MockCache{}
	s := NewService(scoring.DefaultRegistry(), zap.NewNop(), WithCache(c))

	engine := scoring.NewBalancedEngine().WithWeights(profile.ScoringWeights{"attack": 2})
	rec, err := s.RecommendWith(context.Background(), engine, testCatalog(t), &profile.Profile{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, rec.Top.Weight)
	c.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRecommendPublishesEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	ev := &MockEvents{}
	ev.On("PushRecommendation", mock.Anything, queue.RecommendationEvent{
		ProfileID:     "p1",
		Engine:        "balanced",
		EngineVersion: "1.0",
		TopUpgradeID:  "u00",
		TopScore:      0.1,
		Affordable:    false,
		Candidates:    15,
		CreatedAt:     now,
	}).Return("1-0", nil).Once()

	s := NewService(scoring.DefaultRegistry(), zap.NewNop(), WithEvents(ev), WithClock(func() time.Time { return now }))
	_, err := s.Recommend(ctx, "balanced", testCatalog(t), &profile.Profile{ID: "p1"}, 0)
	require.NoError(t, err)
	ev.AssertExpectations(t)
}

func TestRecommendSurvivesEventFailure(t *testing.T) {
	ev := &MockEvents{}
	ev.On("PushRecommendation", mock.Anything, mock.Anything).Return("", errors.New("redis down"))

	s := NewService(scoring.DefaultRegistry(), zap.NewNop(), WithEvents(ev))
	rec, err := s.Recommend(context.Background(), "balanced", testCatalog(t), &profile.Profile{}, 0)
	require.NoError(t, err)
	assert.NotNil(t, rec.Top)
	ev.AssertExpectations(t)
}
