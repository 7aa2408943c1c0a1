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
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

// Links stores which categories a profile is listed under. These rows are what
// taxonomy.ErrReferencesExist protects.
type Links struct {
	pool *pgxpool.Pool
}

// NewLinks creates a Links store backed by pool.
func NewLinks(pool *pgxpool.Pool) *Links {
	return &Links{pool: pool}
}

// Link lists the profile under the category. Linking twice is a no-op.
func (r *Links) Link(ctx context.Context, profileID, categoryID uuid.UUID) error {
	const q = `
		INSERT INTO profile_categories (profile_id, category_id)
		VALUES (@profile_id, @category_id)
		ON CONFLICT (profile_id, category_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, q, pgx.NamedArgs{"profile_id": profileID, "category_id": categoryID})
	if err != nil {
		if name, ok := db.IsForeignKeyViolation(err); ok {
			switch name {
			case linkProfileFKey:
				return profile.ErrNotFound
			case linkCategoryFKey:
				return taxonomy.ErrNotFound
			}
		}
		return fmt.Errorf("repository.Links.Link: %w", err)
	}
	return nil
}

// Unlink removes the profile from the category. Unlinking a missing pair is a no-op.
func (r *Links) Unlink(ctx context.Context, profileID, categoryID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM profile_categories WHERE profile_id = @profile_id AND category_id = @category_id`,
		pgx.NamedArgs{"profile_id": profileID, "category_id": categoryID})
	if err != nil {
		return fmt.Errorf("repository.Links.Unlink: %w", err)
	}
	return nil
}

// CategoriesOf returns the ids of the categories the profile is listed under.
func (r *Links) CategoriesOf(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category_id FROM profile_categories WHERE profile_id = @profile_id ORDER BY created_at`,
		pgx.NamedArgs{"profile_id": profileID})
	if err != nil {
		return nil, fmt.Errorf("repository.Links.CategoriesOf: %w", err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowTo[pgtype.UUID])
	if err != nil {
		return nil, fmt.Errorf("repository.Links.CategoriesOf: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	return ids, nil
}
