package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getRevenueByDay = `-- name: GetRevenueByDay :many
SELECT to_char(paid_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
       SUM(total)::numeric AS total_revenue,
       COUNT(*) AS order_count
FROM orders
WHERE status = 'PAID'
GROUP BY 1
ORDER BY 1
`

type GetRevenueByDayRow struct {
	Day          string
	TotalRevenue pgtype.Numeric
	OrderCount   int64
}

func (q *Queries) GetRevenueByDay(ctx context.Context) ([]GetRevenueByDayRow, error) {
	rows, err := q.db.Query(ctx, getRevenueByDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GetRevenueByDayRow
	for rows.Next() {
		var r GetRevenueByDayRow
		if err := rows.Scan(&r.Day, &r.TotalRevenue, &r.OrderCount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Popular items counts lines from orders of every status, not just paid
// ones. The name carried forward is the first inserted line's snapshot.
const getPopularItems = `-- name: GetPopularItems :many
SELECT l.menu_item_id,
       (array_agg(l.item_name ORDER BY l.id))[1] AS item_name,
       SUM(l.quantity)::bigint AS total_sold
FROM order_lines l
GROUP BY l.menu_item_id
ORDER BY total_sold DESC
LIMIT $1
`

type GetPopularItemsRow struct {
	MenuItemID uuid.UUID
	ItemName   string
	TotalSold  int64
}

func (q *Queries) GetPopularItems(ctx context.Context, limit int32) ([]GetPopularItemsRow, error) {
	rows, err := q.db.Query(ctx, getPopularItems, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GetPopularItemsRow
	for rows.Next() {
		var r GetPopularItemsRow
		if err := rows.Scan(&r.MenuItemID, &r.ItemName, &r.TotalSold); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const getAverageServiceMinutes = `-- name: GetAverageServiceMinutes :one
SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (paid_at - created_at)) / 60), 0)::float8
FROM orders
WHERE status = 'PAID'
  AND paid_at IS NOT NULL
`

// GetAverageServiceMinutes returns 0 rather than an error when no paid
// orders exist.
func (q *Queries) GetAverageServiceMinutes(ctx context.Context) (float64, error) {
	row := q.db.QueryRow(ctx, getAverageServiceMinutes)
	var minutes float64
	err := row.Scan(&minutes)
	return minutes, err
}

// Inner join: paid orders whose server account was deleted drop out of the
// report, matching the lookup-and-unwind behavior of the stats pipeline.
const getServerPerformance = `-- name: GetServerPerformance :many
SELECT o.server_id,
       u.name AS server_name,
       SUM(o.total)::numeric AS total_revenue,
       COUNT(*) AS total_orders
FROM orders o
JOIN users u ON u.id = o.server_id
WHERE o.status = 'PAID'
GROUP BY o.server_id, u.name
ORDER BY total_revenue DESC
`

type GetServerPerformanceRow struct {
	ServerID     uuid.UUID
	ServerName   string
	TotalRevenue pgtype.Numeric
	TotalOrders  int64
}

func (q *Queries) GetServerPerformance(ctx context.Context) ([]GetServerPerformanceRow, error) {
	rows, err := q.db.Query(ctx, getServerPerformance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GetServerPerformanceRow
	for rows.Next() {
		var r GetServerPerformanceRow
		if err := rows.Scan(&r.ServerID, &r.ServerName, &r.TotalRevenue, &r.TotalOrders); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Inner join on menu_items: lines referencing a deleted menu item are
// silently dropped. Revenue uses the line's snapshot price, not the
// current menu price.
const getSalesByCategory = `-- name: GetSalesByCategory :many
SELECT m.category,
       SUM(l.quantity * l.unit_price)::numeric AS total_revenue,
       SUM(l.quantity)::bigint AS total_quantity
FROM orders o
JOIN order_lines l ON l.order_id = o.id
JOIN menu_items m ON m.id = l.menu_item_id
WHERE o.status = 'PAID'
GROUP BY m.category
ORDER BY total_revenue DESC
`

type GetSalesByCategoryRow struct {
	Category      string
	TotalRevenue  pgtype.Numeric
	TotalQuantity int64
}

func (q *Queries) GetSalesByCategory(ctx context.Context) ([]GetSalesByCategoryRow, error) {
	rows, err := q.db.Query(ctx, getSalesByCategory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GetSalesByCategoryRow
	for rows.Next() {
		var r GetSalesByCategoryRow
		if err := rows.Scan(&r.Category, &r.TotalRevenue, &r.TotalQuantity); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
