package storage

import (
	"context"
	"fmt"
	"strings"
)

const storeColumns = "id, user_id, name, slug, description, template, logo_url, banner_url, primary_color, is_active, created_at, updated_at"

func scanStore(row interface{ Scan(...any) error }) (*Store, error) {
	var s Store
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Slug, &s.Description, &s.Template,
		&s.LogoURL, &s.BannerURL, &s.PrimaryColor, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateStoreParams holds the fields for a new store. Slug uniqueness is the
// caller's concern (see api slug generation); the unique index is the
// backstop.
type CreateStoreParams struct {
	UserID       int64
	Name         string
	Slug         string
	Description  string
	Template     string
	PrimaryColor string
}

// CreateStore inserts a new store.
func (d *DB) CreateStore(ctx context.Context, p CreateStoreParams) (*Store, error) {
	row := d.pool.QueryRow(ctx, `
		INSERT INTO stores (user_id, name, slug, description, template, primary_color)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+storeColumns,
		p.UserID, p.Name, p.Slug, p.Description, p.Template, p.PrimaryColor)

	s, err := scanStore(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("store slug %s: %w", p.Slug, ErrDuplicate)
		}
		return nil, fmt.Errorf("creating store: %w", err)
	}
	return s, nil
}

// SlugExists reports whether a store slug is taken.
func (d *DB) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM stores WHERE slug = $1)", slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return exists, nil
}

// StoresByUser lists a user's stores, newest first.
func (d *DB) StoresByUser(ctx context.Context, userID int64) ([]Store, error) {
	rows, err := d.pool.Query(ctx,
		"SELECT "+storeColumns+" FROM stores WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	defer rows.Close()

	var stores []Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning store: %w", err)
		}
		stores = append(stores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	return stores, nil
}

// StoreByID fetches a store by ID.
func (d *DB) StoreByID(ctx context.Context, id int64) (*Store, error) {
	row := d.pool.QueryRow(ctx,
		"SELECT "+storeColumns+" FROM stores WHERE id = $1", id)

	s, err := scanStore(row)
	if err != nil {
		return nil, mapRowErr(err, "store by id")
	}
	return s, nil
}

// ActiveStoreBySlug fetches an active store by slug, for the public
// storefront.
func (d *DB) ActiveStoreBySlug(ctx context.Context, slug string) (*Store, error) {
	row := d.pool.QueryRow(ctx,
		"SELECT "+storeColumns+" FROM stores WHERE slug = $1 AND is_active", slug)

	s, err := scanStore(row)
	if err != nil {
		return nil, mapRowErr(err, "store by slug")
	}
	return s, nil
}

// StorePatch is a partial store update; nil fields are left unchanged.
type StorePatch struct {
	Name         *string
	Description  *string
	Template     *string
	LogoURL      *string
	BannerURL    *string
	PrimaryColor *string
	IsActive     *bool
}

// UpdateStore applies a partial update and returns the updated row.
func (d *DB) UpdateStore(ctx context.Context, id int64, patch StorePatch) (*Store, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Template != nil {
		add("template", *patch.Template)
	}
	if patch.LogoURL != nil {
		add("logo_url", *patch.LogoURL)
	}
	if patch.BannerURL != nil {
		add("banner_url", *patch.BannerURL)
	}
	if patch.PrimaryColor != nil {
		add("primary_color", *patch.PrimaryColor)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}

	if len(sets) == 0 {
		return d.StoreByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE stores SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), storeColumns)

	s, err := scanStore(d.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapRowErr(err, "updating store")
	}
	return s, nil
}

// DeleteStore removes a store and, via ON DELETE CASCADE, its imported
// products, orders, and analytics.
func (d *DB) DeleteStore(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, "DELETE FROM stores WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountStores returns the total number of stores.
func (d *DB) CountStores(ctx context.Context) (int64, error) {
	var n int64
	if err := d.pool.QueryRow(ctx, "SELECT count(*) FROM stores").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting stores: %w", err)
	}
	return n, nil
}
