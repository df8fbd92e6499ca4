package profile

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a profile id has no stored profile.
var ErrNotFound = errors.New("profile not found")

// Store persists profiles. Save must be atomic: a reader never observes a
// partially written profile.
type Store interface {
	List(ctx context.Context) ([]*Profile, error)
	Get(ctx context.Context, id string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id string) error
}

// Backuper is implemented by stores that can snapshot a single profile.
type Backuper interface {
	Backup(ctx context.Context, id string) (string, error)
}
