package storage

import (
	"context"
	"fmt"
)

const orderColumns = `id, store_id, order_number, customer_name, customer_email,
subtotal, shipping_cost, tax, total_amount, status, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.StoreID, &o.OrderNumber, &o.Customer, &o.Email,
		&o.Subtotal, &o.Shipping, &o.Tax, &o.Total, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CountOrdersByStore returns the number of orders placed against a store.
func (d *DB) CountOrdersByStore(ctx context.Context, storeID int64) (int64, error) {
	var n int64
	err := d.pool.QueryRow(ctx,
		"SELECT count(*) FROM orders WHERE store_id = $1", storeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

// CountOrders returns the platform-wide order count.
func (d *DB) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := d.pool.QueryRow(ctx, "SELECT count(*) FROM orders").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

// TotalRevenue sums completed order totals across the platform. Cancelled
// orders are excluded.
func (d *DB) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := d.pool.QueryRow(ctx,
		"SELECT COALESCE(sum(total_amount), 0) FROM orders WHERE status <> $1",
		OrderCancelled).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing revenue: %w", err)
	}
	return total, nil
}

// RecentOrders lists the newest orders across the platform for the admin
// dashboard.
func (d *DB) RecentOrders(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.pool.Query(ctx,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}
