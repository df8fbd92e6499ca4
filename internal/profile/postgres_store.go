package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the subset of *pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps profiles in the profiles table created by
// migrations/001_initial.sql.
type PostgresStore struct {
	db querier
}

// NewPostgresStore wraps a pool (or any pgx querier).
func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `id::text, name, created_at, updated_at, currency, levels, weights, tags`

// List returns every profile ordered by name.
func (s *PostgresStore) List(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY lower(name), id`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

// Get loads one profile.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id::text = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Save upserts the profile in a single statement.
func (s *PostgresStore) Save(ctx context.Context, p *Profile) error {
	out := p.Clone()
	out.normalize()

	_, err := s.db.Exec(ctx, `
		INSERT INTO profiles (id, name, created_at, updated_at, currency, levels, weights, tags)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at,
			currency = EXCLUDED.currency,
			levels = EXCLUDED.levels,
			weights = EXCLUDED.weights,
			tags = EXCLUDED.tags
	`, out.ID, out.Name, out.CreatedAt, out.UpdatedAt, out.Currency,
		out.Levels, map[string]float64(out.Weights), out.Tags)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes a profile.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM profiles WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p       Profile
		weights map[string]float64
	)
	err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &p.Currency, &p.Levels, &weights, &p.Tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.Weights = ScoringWeights(weights)
	p.normalize()
	return &p, nil
}
