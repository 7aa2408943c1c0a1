package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/directory/pkg/db"
	"github.com/dmitrymomot/directory/pkg/profile"
	"github.com/dmitrymomot/directory/pkg/slug"
)

// Profiles stores directory profiles.
type Profiles struct {
	pool *pgxpool.Pool
}

// NewProfiles creates a profile.Repository backed by pool.
func NewProfiles(pool *pgxpool.Pool) *Profiles {
	return &Profiles{pool: pool}
}

// WithinTx runs fn in a transaction. Slug races are settled by the unique index.
func (r *Profiles) WithinTx(ctx context.Context, fn func(ctx context.Context, tx profile.Tx) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &profileTx{q: tx})
	})
}

type profileTx struct {
	q db.Querier
}

const profileColumns = `id, kind, business_name, personal_name, slug, manual_slug, created_at, updated_at`

func (tx *profileTx) ListSlugs(ctx context.Context) (slug.Set, error) {
	return listSlugs(ctx, tx.q, `SELECT slug FROM profiles WHERE slug <> ''`, "repository.Profiles.ListSlugs")
}

func (tx *profileTx) Get(ctx context.Context, id uuid.UUID) (profile.Profile, error) {
	row := tx.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = @id`,
		pgx.NamedArgs{"id": id})
	p, err := scanProfile(row)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("repository.Profiles.Get: %w", err)
	}
	return p, nil
}

func (tx *profileTx) GetBySlug(ctx context.Context, s string) (profile.Profile, error) {
	if s == "" {
		return profile.Profile{}, profile.ErrNotFound
	}
	row := tx.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(slug) = lower(@slug)`,
		pgx.NamedArgs{"slug": s})
	p, err := scanProfile(row)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("repository.Profiles.GetBySlug: %w", err)
	}
	return p, nil
}

func (tx *profileTx) Create(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	const q = `
		INSERT INTO profiles (kind, business_name, personal_name, slug)
		VALUES (@kind, @business_name, @personal_name, @slug)
		RETURNING ` + profileColumns

	row := tx.q.QueryRow(ctx, q, pgx.NamedArgs{
		"kind":          string(p.Kind),
		"business_name": p.BusinessName,
		"personal_name": p.PersonalName,
		"slug":          p.Slug,
	})
	created, err := scanProfile(row)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("repository.Profiles.Create: %w", profileWriteErr(err))
	}
	return created, nil
}

func (tx *profileTx) Update(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	const q = `
		UPDATE profiles
		SET kind = @kind, business_name = @business_name, personal_name = @personal_name,
		    slug = @slug, updated_at = now()
		WHERE id = @id
		RETURNING ` + profileColumns

	row := tx.q.QueryRow(ctx, q, pgx.NamedArgs{
		"id":            p.ID,
		"kind":          string(p.Kind),
		"business_name": p.BusinessName,
		"personal_name": p.PersonalName,
		"slug":          p.Slug,
	})
	updated, err := scanProfile(row)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("repository.Profiles.Update: %w", profileWriteErr(err))
	}
	return updated, nil
}

func (tx *profileTx) ListWithoutSlug(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := tx.q.Query(ctx, `
		SELECT id FROM profiles
		WHERE slug = ''
		ORDER BY created_at, id
		LIMIT @limit`, pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repository.Profiles.ListWithoutSlug: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository.Profiles.ListWithoutSlug: scan: %w", err)
		}
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.Profiles.ListWithoutSlug: rows: %w", err)
	}
	return ids, nil
}

func (tx *profileTx) MarkManual(ctx context.Context, id uuid.UUID) error {
	return setManual(ctx, tx.q, "profiles", id, true, profile.ErrNotFound)
}

func (tx *profileTx) Clear(ctx context.Context, id uuid.UUID) error {
	return setManual(ctx, tx.q, "profiles", id, false, profile.ErrNotFound)
}

func (tx *profileTx) IsManual(ctx context.Context, id uuid.UUID) (bool, error) {
	return isManual(ctx, tx.q, "profiles", id, profile.ErrNotFound)
}

func scanProfile(s scanner) (profile.Profile, error) {
	var (
		p    profile.Profile
		id   pgtype.UUID
		kind string
	)
	err := s.Scan(&id, &kind, &p.BusinessName, &p.PersonalName, &p.Slug, &p.ManualSlug, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, err
	}
	p.ID = uuid.UUID(id.Bytes)
	p.Kind = profile.Kind(kind)
	return p, nil
}

func profileWriteErr(err error) error {
	if name, ok := db.IsUniqueViolation(err); ok && name == profileSlugKey {
		return fmt.Errorf("%w: %w", slug.ErrTaken, err)
	}
	return err
}

var (
	_ profile.Repository = (*Profiles)(nil)
	_ profile.Tx         = (*profileTx)(nil)
)
