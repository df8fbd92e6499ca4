package queue

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFieldsSurviveStreamEncoding(t *testing.T) {
	ev := RecommendationEvent{
		ProfileID:     "p1",
		Engine:        "balanced",
		EngineVersion: "1.0",
		TopUpgradeID:  "crit_chance",
		TopScore:      0.0008,
		Affordable:    true,
		Candidates:    12,
		CreatedAt:     time.Date(2026, 10, 14, 9, 0, 0, 123, time.UTC),
	}

	values := encode(ev)
	for _, v := range values {
		_, isString := v.(string)
		assert.True(t, isString, "stream values are sent as strings")
	}
	got := decode(values)
	assert.Equal(t, ev.ProfileID, got.ProfileID)
	assert.Equal(t, ev.TopScore, got.TopScore)
	assert.Equal(t, ev.Candidates, got.Candidates)
	assert.True(t, got.Affordable)
	assert.True(t, ev.CreatedAt.Equal(got.CreatedAt))
}

func TestDecodeToleratesMissingFields(t *testing.T) {
	got := decode(map[string]any{"engine": "balanced", "candidates": 3})
	assert.Equal(t, "balanced", got.Engine)
	assert.Zero(t, got.Candidates)
	assert.True(t, got.CreatedAt.IsZero())
}

func TestConnectRedisRejectsBadURL(t *testing.T) {
	_, err := ConnectRedis("not a url")
	assert.Error(t, err)
}

// Runs against a real Redis when ADVISOR_TEST_REDIS_URL is set. The test
// works on the shared stream name, so point it at a scratch database.
func TestQueueRoundTrip(t *testing.T) {
	url := os.Getenv("ADVISOR_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ADVISOR_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := ConnectRedis(url)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Del(ctx, StreamRecommendations).Err())

	q := New(client)
	require.NoError(t, q.EnsureStreams(ctx))
	require.NoError(t, q.EnsureStreams(ctx), "second call must tolerate the existing group")

	_, _, err = q.ReadRecommendation(ctx, "test", -1)
	assert.True(t, errors.Is(err, ErrNoMessages))

	id, err := q.PushRecommendation(ctx, RecommendationEvent{ProfileID: "p1", Engine: "balanced", TopUpgradeID: "damage"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	ev, msgID, err := q.ReadRecommendation(ctx, "test", time.Second)
	require.NoError(t, err)
	assert.Equal(t, id, msgID)
	assert.Equal(t, "damage", ev.TopUpgradeID)
	assert.False(t, ev.CreatedAt.IsZero())

	length, pending, err := q.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
	assert.Equal(t, int64(1), pending)

	require.NoError(t, q.Ack(ctx, msgID))
	_, pending, err = q.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	require.NoError(t, client.Del(ctx, StreamRecommendations).Err())
}
