package storage

import (
	"context"
	"fmt"
	"strings"
)

// store_products joined with the catalog row. Custom columns are nullable,
// coalesced to zero values here and resolved against the catalog at the API
// layer.
const storeProductColumns = `sp.id, sp.store_id, sp.product_id,
COALESCE(sp.custom_name, ''), COALESCE(sp.custom_description, ''), COALESCE(sp.custom_price, 0),
sp.is_featured, sp.is_active, sp.created_at`

func scanStoreProduct(row interface{ Scan(...any) error }) (*StoreProduct, error) {
	var sp StoreProduct
	p := &sp.Product
	err := row.Scan(&sp.ID, &sp.StoreID, &sp.ProductID,
		&sp.CustomName, &sp.CustomDescription, &sp.CustomPrice,
		&sp.IsFeatured, &sp.IsActive, &sp.CreatedAt,
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Subcategory,
		&p.CostPrice, &p.BasePrice, &p.SuggestedRetail, &p.StockQuantity, &p.LowStockThreshold,
		&p.ImageURL, &p.Images, &p.Specifications, &p.Tags, &p.DemandScore, &p.MarginPotential,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func storeProductJoin() string {
	cols := strings.ReplaceAll(productColumns, "\n", " ")
	// Prefix every catalog column with the products alias.
	aliased := "p." + strings.Join(strings.Split(cols, ", "), ", p.")
	return "SELECT " + storeProductColumns + ", " + aliased +
		" FROM store_products sp JOIN products p ON p.id = sp.product_id"
}

// ImportProduct copies a catalog product into a store. Returns ErrDuplicate
// when the store already carries the product.
func (d *DB) ImportProduct(ctx context.Context, storeID, productID int64, customPrice float64) (*StoreProduct, error) {
	var price any
	if customPrice > 0 {
		price = customPrice
	}
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO store_products (store_id, product_id, custom_price)
		VALUES ($1, $2, $3)
		RETURNING id`,
		storeID, productID, price).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("product %d in store %d: %w", productID, storeID, ErrDuplicate)
		}
		return nil, fmt.Errorf("importing product: %w", err)
	}
	return d.storeProductByID(ctx, id)
}

func (d *DB) storeProductByID(ctx context.Context, id int64) (*StoreProduct, error) {
	row := d.pool.QueryRow(ctx, storeProductJoin()+" WHERE sp.id = $1", id)
	sp, err := scanStoreProduct(row)
	if err != nil {
		return nil, mapRowErr(err, "store product by id")
	}
	return sp, nil
}

func (d *DB) queryStoreProducts(ctx context.Context, query string, args ...any) ([]StoreProduct, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying store products: %w", err)
	}
	defer rows.Close()

	var products []StoreProduct
	for rows.Next() {
		sp, err := scanStoreProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning store product: %w", err)
		}
		products = append(products, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying store products: %w", err)
	}
	return products, nil
}

// StoreProducts lists everything a store has imported, featured first.
func (d *DB) StoreProducts(ctx context.Context, storeID int64) ([]StoreProduct, error) {
	return d.queryStoreProducts(ctx,
		storeProductJoin()+" WHERE sp.store_id = $1 ORDER BY sp.is_featured DESC, sp.created_at DESC",
		storeID)
}

// PublicStoreProducts lists a store's active imports whose catalog product is
// still active, for the public storefront.
func (d *DB) PublicStoreProducts(ctx context.Context, storeID int64) ([]StoreProduct, error) {
	return d.queryStoreProducts(ctx,
		storeProductJoin()+" WHERE sp.store_id = $1 AND sp.is_active AND p.is_active"+
			" ORDER BY sp.is_featured DESC, sp.created_at DESC",
		storeID)
}

// StoreProductPatch is a partial update to a store's import; nil fields are
// left unchanged.
type StoreProductPatch struct {
	CustomName        *string
	CustomDescription *string
	CustomPrice       *float64
	IsFeatured        *bool
	IsActive          *bool
}

// UpdateStoreProduct applies a partial update to an import, scoped to the
// store so one seller cannot touch another's rows.
func (d *DB) UpdateStoreProduct(ctx context.Context, storeID, id int64, patch StoreProductPatch) (*StoreProduct, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.CustomName != nil {
		add("custom_name", *patch.CustomName)
	}
	if patch.CustomDescription != nil {
		add("custom_description", *patch.CustomDescription)
	}
	if patch.CustomPrice != nil {
		add("custom_price", *patch.CustomPrice)
	}
	if patch.IsFeatured != nil {
		add("is_featured", *patch.IsFeatured)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}

	if len(sets) == 0 {
		sp, err := d.storeProductByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sp.StoreID != storeID {
			return nil, fmt.Errorf("store product %d: %w", id, ErrNotFound)
		}
		return sp, nil
	}

	args = append(args, id, storeID)
	query := fmt.Sprintf("UPDATE store_products SET %s WHERE id = $%d AND store_id = $%d RETURNING id",
		strings.Join(sets, ", "), len(args)-1, len(args))

	var updated int64
	if err := d.pool.QueryRow(ctx, query, args...).Scan(&updated); err != nil {
		return nil, mapRowErr(err, "updating store product")
	}
	return d.storeProductByID(ctx, updated)
}

// RemoveStoreProduct removes an import from a store.
func (d *DB) RemoveStoreProduct(ctx context.Context, storeID, id int64) error {
	tag, err := d.pool.Exec(ctx,
		"DELETE FROM store_products WHERE id = $1 AND store_id = $2", id, storeID)
	if err != nil {
		return fmt.Errorf("removing store product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store product %d: %w", id, ErrNotFound)
	}
	return nil
}

// StoreProductIDs lists the catalog IDs a store has imported, for excluding
// owned products from recommendations.
func (d *DB) StoreProductIDs(ctx context.Context, storeID int64) ([]int64, error) {
	rows, err := d.pool.Query(ctx,
		"SELECT product_id FROM store_products WHERE store_id = $1", storeID)
	if err != nil {
		return nil, fmt.Errorf("listing store product ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning store product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing store product ids: %w", err)
	}
	return ids, nil
}

// CountStoreProducts returns the number of imports in a store.
func (d *DB) CountStoreProducts(ctx context.Context, storeID int64) (int64, error) {
	var n int64
	err := d.pool.QueryRow(ctx,
		"SELECT count(*) FROM store_products WHERE store_id = $1", storeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting store products: %w", err)
	}
	return n, nil
}
