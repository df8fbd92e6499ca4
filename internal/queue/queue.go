package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// StreamRecommendations is the Redis stream the advisor pushes every
	// fresh recommendation to.
	StreamRecommendations = "advisor_recommendations"

	// GroupPresentation is the consumer group for whatever renders
	// recommendations (dashboards, bots).
	GroupPresentation = "presentation"
)

// ErrNoMessages is returned by a non-blocking read that finds nothing.
var ErrNoMessages = errors.New("no messages")

// RecommendationEvent is the payload pushed to the recommendations stream.
type RecommendationEvent struct {
	ProfileID     string    `json:"profile_id"`
	Engine        string    `json:"engine"`
	EngineVersion string    `json:"engine_version"`
	TopUpgradeID  string    `json:"top_upgrade_id,omitempty"`
	TopScore      float64   `json:"top_score"`
	Affordable    bool      `json:"affordable"`
	Candidates    int       `json:"candidates"`
	CreatedAt     time.Time `json:"created_at"`
}

// Queue publishes and consumes recommendation events over a Redis stream.
type Queue struct {
	client *redis.Client
}

// New creates a Queue from a Redis client.
func New(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// ConnectRedis creates a Redis client from a URL.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// EnsureStreams creates the consumer group (and stream) if they don't exist.
func (q *Queue) EnsureStreams(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, StreamRecommendations, GroupPresentation, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", GroupPresentation, StreamRecommendations, err)
	}
	return nil
}

// PushRecommendation adds an event to the recommendations stream.
func (q *Queue) PushRecommendation(ctx context.Context, ev RecommendationEvent) (string, error) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	result, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamRecommendations,
		Values: encode(ev),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("push recommendation: %w", err)
	}
	return result, nil
}

// ReadRecommendation reads one event for consumer. A zero block waits
// forever; a negative block returns ErrNoMessages immediately when idle.
func (q *Queue) ReadRecommendation(ctx context.Context, consumer string, block time.Duration) (*RecommendationEvent, string, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    GroupPresentation,
		Consumer: consumer,
		Streams:  []string{StreamRecommendations, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, "", ErrNoMessages
	}
	if err != nil {
		return nil, "", fmt.Errorf("read recommendation: %w", err)
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			return decode(msg.Values), msg.ID, nil
		}
	}
	return nil, "", ErrNoMessages
}

// Ack acknowledges a recommendation event.
func (q *Queue) Ack(ctx context.Context, msgID string) error {
	return q.client.XAck(ctx, StreamRecommendations, GroupPresentation, msgID).Err()
}

// Status returns the stream length and the number of delivered but
// unacknowledged events in the presentation group.
func (q *Queue) Status(ctx context.Context) (length, pending int64, err error) {
	length, err = q.client.XLen(ctx, StreamRecommendations).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("stream length: %w", err)
	}
	summary, err := q.client.XPending(ctx, StreamRecommendations, GroupPresentation).Result()
	if err != nil {
		if strings.HasPrefix(err.Error(), "NOGROUP") {
			return length, 0, nil
		}
		return 0, 0, fmt.Errorf("pending count: %w", err)
	}
	return length, summary.Count, nil
}

func encode(ev RecommendationEvent) map[string]any {
	return map[string]any{
		"profile_id":     ev.ProfileID,
		"engine":         ev.Engine,
		"engine_version": ev.EngineVersion,
		"top_upgrade_id": ev.TopUpgradeID,
		"top_score":      strconv.FormatFloat(ev.TopScore, 'g', -1, 64),
		"affordable":     strconv.FormatBool(ev.Affordable),
		"candidates":     strconv.Itoa(ev.Candidates),
		"created_at":     ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decode(values map[string]any) *RecommendationEvent {
	ev := &RecommendationEvent{
		ProfileID:     getString(values, "profile_id"),
		Engine:        getString(values, "engine"),
		EngineVersion: getString(values, "engine_version"),
		TopUpgradeID:  getString(values, "top_upgrade_id"),
	}
	ev.TopScore, _ = strconv.ParseFloat(getString(values, "top_score"), 64)
	ev.Affordable, _ = strconv.ParseBool(getString(values, "affordable"))
	ev.Candidates, _ = strconv.Atoi(getString(values, "candidates"))
	ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, getString(values, "created_at"))
	return ev
}

func getString(values map[string]any, key string) string {
	if v, ok := values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
