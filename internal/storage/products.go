package storage

import (
	"context"
	"fmt"
	"strings"
)

const productColumns = `id, sku, name, description, category, subcategory,
cost_price, base_price, suggested_retail, stock_quantity, low_stock_threshold,
image_url, images, specifications, tags, demand_score, margin_potential,
is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Subcategory,
		&p.CostPrice, &p.BasePrice, &p.SuggestedRetail, &p.StockQuantity, &p.LowStockThreshold,
		&p.ImageURL, &p.Images, &p.Specifications, &p.Tags, &p.DemandScore, &p.MarginPotential,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	return products, nil
}

// Catalog sort columns accepted by ProductFilter.SortBy. Whitelisted to keep
// user input out of the ORDER BY clause.
var productSortColumns = map[string]bool{
	"name":         true,
	"base_price":   true,
	"demand_score": true,
	"created_at":   true,
}

// ProductFilter selects and pages the active catalog.
type ProductFilter struct {
	Category string
	Search   string // case-insensitive substring on name
	MinPrice float64
	MaxPrice float64
	InStock  bool

	SortBy string // one of productSortColumns; default demand_score
	Asc    bool   // ascending order; default descending

	Limit  int
	Offset int
}

// ListProducts browses the active catalog with filters, sorting, and
// pagination.
func (d *DB) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	where := []string{"is_active"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.Search != "" {
		where = append(where, "name ILIKE "+arg("%"+f.Search+"%"))
	}
	if f.MinPrice > 0 {
		where = append(where, "suggested_retail >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		where = append(where, "suggested_retail <= "+arg(f.MaxPrice))
	}
	if f.InStock {
		where = append(where, "stock_quantity > 0")
	}

	sortBy := f.SortBy
	if !productSortColumns[sortBy] {
		sortBy = "demand_score"
	}
	dir := "DESC"
	if f.Asc {
		dir = "ASC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY %s %s LIMIT %s OFFSET %s",
		productColumns, strings.Join(where, " AND "), sortBy, dir, arg(limit), arg(f.Offset))

	return d.queryProducts(ctx, query, args...)
}

// ProductByID fetches a catalog product.
func (d *DB) ProductByID(ctx context.Context, id int64) (*Product, error) {
	row := d.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)

	p, err := scanProduct(row)
	if err != nil {
		return nil, mapRowErr(err, "product by id")
	}
	return p, nil
}

// Categories lists the distinct categories of active products.
func (d *DB) Categories(ctx context.Context) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		"SELECT DISTINCT category FROM products WHERE is_active ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// TopProductsByDemand lists active products ordered by demand score
// descending. limit <= 0 means no limit (the full active catalog).
func (d *DB) TopProductsByDemand(ctx context.Context, limit int) ([]Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE is_active ORDER BY demand_score DESC"
	if limit > 0 {
		return d.queryProducts(ctx, query+" LIMIT $1", limit)
	}
	return d.queryProducts(ctx, query)
}

// CreateProduct inserts a catalog product. Returns ErrDuplicate when the SKU
// is taken.
func (d *DB) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	row := d.pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, description, category, subcategory,
			cost_price, base_price, suggested_retail, stock_quantity, low_stock_threshold,
			image_url, images, specifications, tags, demand_score, margin_potential)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+productColumns,
		p.SKU, p.Name, p.Description, p.Category, p.Subcategory,
		p.CostPrice, p.BasePrice, p.SuggestedRetail, p.StockQuantity, p.LowStockThreshold,
		p.ImageURL, p.Images, p.Specifications, p.Tags, p.DemandScore, p.MarginPotential)

	created, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("product sku %s: %w", p.SKU, ErrDuplicate)
		}
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return created, nil
}

// ProductPatch is a partial catalog product update; nil fields are left
// unchanged.
type ProductPatch struct {
	Name            *string
	Description     *string
	Category        *string
	Subcategory     *string
	CostPrice       *float64
	BasePrice       *float64
	SuggestedRetail *float64
	StockQuantity   *int
	ImageURL        *string
	Images          *[]string
	Specifications  *map[string]any
	Tags            *[]string
	DemandScore     *float64
	IsActive        *bool
}

// UpdateProduct applies a partial update and returns the updated row.
func (d *DB) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*Product, error) {
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
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Subcategory != nil {
		add("subcategory", *patch.Subcategory)
	}
	if patch.CostPrice != nil {
		add("cost_price", *patch.CostPrice)
	}
	if patch.BasePrice != nil {
		add("base_price", *patch.BasePrice)
	}
	if patch.SuggestedRetail != nil {
		add("suggested_retail", *patch.SuggestedRetail)
	}
	if patch.StockQuantity != nil {
		add("stock_quantity", *patch.StockQuantity)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.Images != nil {
		add("images", *patch.Images)
	}
	if patch.Specifications != nil {
		add("specifications", *patch.Specifications)
	}
	if patch.Tags != nil {
		add("tags", *patch.Tags)
	}
	if patch.DemandScore != nil {
		add("demand_score", *patch.DemandScore)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}

	if len(sets) == 0 {
		return d.ProductByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), productColumns)

	p, err := scanProduct(d.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapRowErr(err, "updating product")
	}
	return p, nil
}

// DeactivateProduct soft-deletes a catalog product. Imported copies stay in
// stores but drop out of public storefronts and the catalog.
func (d *DB) DeactivateProduct(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx,
		"UPDATE products SET is_active = false, updated_at = now() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deactivating product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListAllProducts lists the catalog for the admin view, newest first.
func (d *DB) ListAllProducts(ctx context.Context, includeInactive bool) ([]Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	if !includeInactive {
		query += " WHERE is_active"
	}
	query += " ORDER BY created_at DESC"
	return d.queryProducts(ctx, query)
}

// CountActiveProducts returns the number of active catalog products.
func (d *DB) CountActiveProducts(ctx context.Context) (int64, error) {
	var n int64
	err := d.pool.QueryRow(ctx, "SELECT count(*) FROM products WHERE is_active").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

// LowStockProducts lists active products below their low-stock threshold.
func (d *DB) LowStockProducts(ctx context.Context, limit int) ([]Product, error) {
	return d.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE stock_quantity < low_stock_threshold AND is_active LIMIT $1",
		limit)
}
