package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/directory/pkg/db"
	"github.com/dmitrymomot/directory/pkg/slug"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

// Categories stores the category hierarchy.
type Categories struct {
	pool    *pgxpool.Pool
	lockKey int64
}

// NewCategories creates a taxonomy.Repository backed by pool.
func NewCategories(pool *pgxpool.Pool) *Categories {
	return &Categories{pool: pool, lockKey: db.LockKey(hierarchyLockName)}
}

// WithinTx runs fn in a read-committed transaction. Structural changes serialize on the
// hierarchy advisory lock taken by Tx.LockHierarchy.
func (r *Categories) WithinTx(ctx context.Context, fn func(ctx context.Context, tx taxonomy.Tx) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &categoryTx{q: tx, lockKey: r.lockKey})
	})
}

type categoryTx struct {
	q       db.Querier
	lockKey int64
}

const categoryColumns = `id, parent_id, name, slug, visible, manual_slug, created_at, updated_at`

func (tx *categoryTx) LockHierarchy(ctx context.Context) error {
	if err := db.AdvisoryXactLock(ctx, tx.q, tx.lockKey); err != nil {
		return fmt.Errorf("repository.Categories.LockHierarchy: %w", err)
	}
	return nil
}

func (tx *categoryTx) ListEdges(ctx context.Context) ([]taxonomy.Edge, error) {
	rows, err := tx.q.Query(ctx, `SELECT id, parent_id FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("repository.Categories.ListEdges: %w", err)
	}
	defer rows.Close()

	edges := []taxonomy.Edge{}
	for rows.Next() {
		var id, parent pgtype.UUID
		if err := rows.Scan(&id, &parent); err != nil {
			return nil, fmt.Errorf("repository.Categories.ListEdges: scan: %w", err)
		}
		edges = append(edges, taxonomy.Edge{ID: uuid.UUID(id.Bytes), ParentID: uuidPtr(parent)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.Categories.ListEdges: rows: %w", err)
	}
	return edges, nil
}

func (tx *categoryTx) ListSlugs(ctx context.Context) (slug.Set, error) {
	return listSlugs(ctx, tx.q, `SELECT slug FROM categories`, "repository.Categories.ListSlugs")
}

func (tx *categoryTx) List(ctx context.Context) ([]taxonomy.Node, error) {
	rows, err := tx.q.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, slug`)
	if err != nil {
		return nil, fmt.Errorf("repository.Categories.List: %w", err)
	}
	defer rows.Close()

	nodes := []taxonomy.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.Categories.List: scan: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.Categories.List: rows: %w", err)
	}
	return nodes, nil
}

func (tx *categoryTx) Get(ctx context.Context, id uuid.UUID) (taxonomy.Node, error) {
	row := tx.q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = @id`,
		pgx.NamedArgs{"id": id})
	n, err := scanNode(row)
	if err != nil {
		return taxonomy.Node{}, fmt.Errorf("repository.Categories.Get: %w", err)
	}
	return n, nil
}

func (tx *categoryTx) GetBySlug(ctx context.Context, s string) (taxonomy.Node, error) {
	row := tx.q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE lower(slug) = lower(@slug)`,
		pgx.NamedArgs{"slug": s})
	n, err := scanNode(row)
	if err != nil {
		return taxonomy.Node{}, fmt.Errorf("repository.Categories.GetBySlug: %w", err)
	}
	return n, nil
}

func (tx *categoryTx) Create(ctx context.Context, n taxonomy.Node) (taxonomy.Node, error) {
	const q = `
		INSERT INTO categories (parent_id, name, slug, visible)
		VALUES (@parent_id, @name, @slug, @visible)
		RETURNING ` + categoryColumns

	row := tx.q.QueryRow(ctx, q, pgx.NamedArgs{
		"parent_id": n.ParentID,
		"name":      n.Name,
		"slug":      n.Slug,
		"visible":   n.Visible,
	})
	created, err := scanNode(row)
	if err != nil {
		return taxonomy.Node{}, fmt.Errorf("repository.Categories.Create: %w", categoryWriteErr(err))
	}
	return created, nil
}

func (tx *categoryTx) Update(ctx context.Context, n taxonomy.Node) (taxonomy.Node, error) {
	const q = `
		UPDATE categories
		SET name = @name, slug = @slug, visible = @visible, updated_at = now()
		WHERE id = @id
		RETURNING ` + categoryColumns

	row := tx.q.QueryRow(ctx, q, pgx.NamedArgs{
		"id":      n.ID,
		"name":    n.Name,
		"slug":    n.Slug,
		"visible": n.Visible,
	})
	updated, err := scanNode(row)
	if err != nil {
		return taxonomy.Node{}, fmt.Errorf("repository.Categories.Update: %w", categoryWriteErr(err))
	}
	return updated, nil
}

func (tx *categoryTx) SetParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) (taxonomy.Node, error) {
	const q = `
		UPDATE categories
		SET parent_id = @parent_id, updated_at = now()
		WHERE id = @id
		RETURNING ` + categoryColumns

	row := tx.q.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "parent_id": parentID})
	updated, err := scanNode(row)
	if err != nil {
		return taxonomy.Node{}, fmt.Errorf("repository.Categories.SetParent: %w", categoryWriteErr(err))
	}
	return updated, nil
}

func (tx *categoryTx) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := tx.q.Exec(ctx, `DELETE FROM categories WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		if name, ok := db.IsForeignKeyViolation(err); ok {
			switch name {
			case categoryParentFKey:
				return taxonomy.ErrChildrenExist
			case linkCategoryFKey:
				return taxonomy.ErrReferencesExist
			}
		}
		return fmt.Errorf("repository.Categories.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return taxonomy.ErrNotFound
	}
	return nil
}

func (tx *categoryTx) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := tx.q.QueryRow(ctx, `SELECT count(*) FROM categories WHERE parent_id = @id`,
		pgx.NamedArgs{"id": id}).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repository.Categories.CountChildren: %w", err)
	}
	return n, nil
}

func (tx *categoryTx) CountLinkedEntities(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := tx.q.QueryRow(ctx, `SELECT count(*) FROM profile_categories WHERE category_id = @id`,
		pgx.NamedArgs{"id": id}).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repository.Categories.CountLinkedEntities: %w", err)
	}
	return n, nil
}

func (tx *categoryTx) MarkManual(ctx context.Context, id uuid.UUID) error {
	return setManual(ctx, tx.q, "categories", id, true, taxonomy.ErrNotFound)
}

func (tx *categoryTx) Clear(ctx context.Context, id uuid.UUID) error {
	return setManual(ctx, tx.q, "categories", id, false, taxonomy.ErrNotFound)
}

func (tx *categoryTx) IsManual(ctx context.Context, id uuid.UUID) (bool, error) {
	return isManual(ctx, tx.q, "categories", id, taxonomy.ErrNotFound)
}

func scanNode(s scanner) (taxonomy.Node, error) {
	var (
		n      taxonomy.Node
		id     pgtype.UUID
		parent pgtype.UUID
	)
	err := s.Scan(&id, &parent, &n.Name, &n.Slug, &n.Visible, &n.ManualSlug, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return taxonomy.Node{}, taxonomy.ErrNotFound
		}
		return taxonomy.Node{}, err
	}
	n.ID = uuid.UUID(id.Bytes)
	n.ParentID = uuidPtr(parent)
	return n, nil
}

func categoryWriteErr(err error) error {
	if name, ok := db.IsUniqueViolation(err); ok && name == categorySlugKey {
		return fmt.Errorf("%w: %w", slug.ErrTaken, err)
	}
	if name, ok := db.IsForeignKeyViolation(err); ok && name == categoryParentFKey {
		return taxonomy.ErrParentNotFound
	}
	if name, ok := db.IsCheckViolation(err); ok && name == categoryNotOwnParent {
		return taxonomy.ErrSelfParent
	}
	return err
}

var (
	_ taxonomy.Repository = (*Categories)(nil)
	_ taxonomy.Tx         = (*categoryTx)(nil)
)
