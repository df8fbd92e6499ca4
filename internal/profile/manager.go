package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidLevel    = errors.New("invalid level")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidName     = errors.New("invalid profile name")
	ErrNoBackup        = errors.New("store does not support backups")
)

// Manager applies user actions to profiles and persists the result. Every
// mutation loads a fresh copy, changes it and saves it with a new UpdatedAt.
type Manager struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewManager returns a Manager backed by store.
func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// List returns all profiles sorted case-insensitively by name.
func (m *Manager) List(ctx context.Context) ([]*Profile, error) {
	profiles, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return strings.ToLower(profiles[i].Name) < strings.ToLower(profiles[j].Name)
	})
	return profiles, nil
}

// Get loads a profile by id.
func (m *Manager) Get(ctx context.Context, id string) (*Profile, error) {
	return m.store.Get(ctx, id)
}

// Create stores a new profile with default weights, zero currency and no
// levels.
func (m *Manager) Create(ctx context.Context, name string, tags ...string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is empty", ErrInvalidName)
	}

	now := m.now().UTC()
	p := &Profile{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Levels:    map[string]int{},
		Weights:   DefaultWeights(),
		Tags:      cleanTags(tags),
	}
	if err := m.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	m.logger.Info("profile created", zap.String("profile_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Save persists p with a refreshed UpdatedAt and returns the stored copy.
func (m *Manager) Save(ctx context.Context, p *Profile) (*Profile, error) {
	out := p.Clone()
	out.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a profile.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("profile deleted", zap.String("profile_id", id))
	return nil
}

// Duplicate copies a profile under a new id and name.
func (m *Manager) Duplicate(ctx context.Context, id, newName string) (*Profile, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	orig, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	cp := orig.Clone()
	cp.ID = uuid.NewString()
	cp.Name = newName
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if err := m.store.Save(ctx, cp); err != nil {
		return nil, fmt.Errorf("duplicate profile: %w", err)
	}
	m.logger.Info("profile duplicated", zap.String("from", id), zap.String("profile_id", cp.ID))
	return cp, nil
}

// SetLevel records the level for one upgrade. Level 0 removes the entry.
func (m *Manager) SetLevel(ctx context.Context, id, upgradeID string, level int) (*Profile, error) {
	if level < 0 {
		return nil, fmt.Errorf("%w: level must be >= 0, got %d", ErrInvalidLevel, level)
	}
	return m.update(ctx, id, "level", func(p *Profile) error {
		if level == 0 {
			delete(p.Levels, upgradeID)
		} else {
			p.Levels[upgradeID] = level
		}
		return nil
	}, zap.String("upgrade_id", upgradeID), zap.Int("level", level))
}

// SetCurrency records the currency available to spend.
func (m *Manager) SetCurrency(ctx context.Context, id string, amount float64) (*Profile, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("%w: currency must be a finite number >= 0, got %v", ErrInvalidCurrency, amount)
	}
	return m.update(ctx, id, "currency", func(p *Profile) error {
		p.Currency = amount
		return nil
	}, zap.Float64("currency", amount))
}

// SetWeight sets the scoring weight for one category.
func (m *Manager) SetWeight(ctx context.Context, id, category string, weight float64) (*Profile, error) {
	return m.update(ctx, id, "weight", func(p *Profile) error {
		return p.Weights.Set(category, weight)
	}, zap.String("category", category), zap.Float64("weight", weight))
}

// SetWeights replaces all category weights.
func (m *Manager) SetWeights(ctx context.Context, id string, weights ScoringWeights) (*Profile, error) {
	next := DefaultWeights()
	for cat, w := range weights {
		if err := next.Set(cat, w); err != nil {
			return nil, err
		}
	}
	return m.update(ctx, id, "weights", func(p *Profile) error {
		p.Weights = next
		return nil
	})
}

// SetTags replaces the profile's tags.
func (m *Manager) SetTags(ctx context.Context, id string, tags []string) (*Profile, error) {
	cleaned := cleanTags(tags)
	return m.update(ctx, id, "tags", func(p *Profile) error {
		p.Tags = cleaned
		return nil
	}, zap.Strings("tags", cleaned))
}

// Backup snapshots a profile when the store supports it.
func (m *Manager) Backup(ctx context.Context, id string) (string, error) {
	b, ok := m.store.(Backuper)
	if !ok {
		return "", ErrNoBackup
	}
	path, err := b.Backup(ctx, id)
	if err != nil {
		return "", err
	}
	m.logger.Info("profile backed up", zap.String("profile_id", id), zap.String("path", path))
	return path, nil
}

func (m *Manager) update(ctx context.Context, id, what string, apply func(p *Profile) error, fields ...zap.Field) (*Profile, error) {
	p, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.normalize()
	if err := apply(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("update %s: %w", what, err)
	}
	m.logger.Info("profile updated", append([]zap.Field{zap.String("profile_id", id), zap.String("field", what)}, fields...)...)
	return p, nil
}

func cleanTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
