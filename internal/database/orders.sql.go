package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (table_number, server_id, status, total)
VALUES ($1, $2, $3, $4)
RETURNING id, table_number, server_id, status, total, created_at, served_at, paid_at
`

type CreateOrderParams struct {
	TableNumber int32
	ServerID    uuid.UUID
	Status      string
	Total       pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder, arg.TableNumber, arg.ServerID, arg.Status, arg.Total)
	return scanOrder(row)
}

const createOrderLine = `-- name: CreateOrderLine :one
INSERT INTO order_lines (order_id, menu_item_id, item_name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, menu_item_id, item_name, quantity, unit_price
`

type CreateOrderLineParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	ItemName   string
	Quantity   int32
	UnitPrice  pgtype.Numeric
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, createOrderLine,
		arg.OrderID, arg.MenuItemID, arg.ItemName, arg.Quantity, arg.UnitPrice)
	var l OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.ItemName, &l.Quantity, &l.UnitPrice)
	return l, err
}

const getOrder = `-- name: GetOrder :one
SELECT id, table_number, server_id, status, total, created_at, served_at, paid_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT id, table_number, server_id, status, total, created_at, served_at, paid_at
FROM orders
WHERE id = $1
FOR UPDATE
`

// GetOrderForUpdate locks the order row for the duration of the enclosing
// transaction, serializing concurrent content edits on the same order.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrdersWithServer = `-- name: ListOrdersWithServer :many
SELECT o.id, o.table_number, o.server_id, o.status, o.total,
       o.created_at, o.served_at, o.paid_at,
       u.name AS server_name, u.role AS server_role
FROM orders o
JOIN users u ON u.id = o.server_id
ORDER BY o.created_at, o.id
`

type ListOrdersWithServerRow struct {
	ID          uuid.UUID
	TableNumber int32
	ServerID    uuid.UUID
	Status      string
	Total       pgtype.Numeric
	CreatedAt   time.Time
	ServedAt    pgtype.Timestamptz
	PaidAt      pgtype.Timestamptz
	ServerName  string
	ServerRole  string
}

func (q *Queries) ListOrdersWithServer(ctx context.Context) ([]ListOrdersWithServerRow, error) {
	rows, err := q.db.Query(ctx, listOrdersWithServer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []ListOrdersWithServerRow
	for rows.Next() {
		var r ListOrdersWithServerRow
		if err := rows.Scan(&r.ID, &r.TableNumber, &r.ServerID, &r.Status, &r.Total,
			&r.CreatedAt, &r.ServedAt, &r.PaidAt, &r.ServerName, &r.ServerRole); err != nil {
			return nil, err
		}
		orders = append(orders, r)
	}
	return orders, rows.Err()
}

const listOrderLinesByOrder = `-- name: ListOrderLinesByOrder :many
SELECT id, order_id, menu_item_id, item_name, quantity, unit_price
FROM order_lines
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLinesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.ItemName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const deleteOrderLinesByOrder = `-- name: DeleteOrderLinesByOrder :exec
DELETE FROM order_lines
WHERE order_id = $1
`

func (q *Queries) DeleteOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderLinesByOrder, orderID)
	return err
}

const updateOrderContent = `-- name: UpdateOrderContent :one
UPDATE orders
SET table_number = $2,
    total        = $3
WHERE id = $1
RETURNING id, table_number, server_id, status, total, created_at, served_at, paid_at
`

type UpdateOrderContentParams struct {
	ID          uuid.UUID
	TableNumber int32
	Total       pgtype.Numeric
}

func (q *Queries) UpdateOrderContent(ctx context.Context, arg UpdateOrderContentParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderContent, arg.ID, arg.TableNumber, arg.Total)
	return scanOrder(row)
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status    = $2,
    served_at = CASE WHEN $2::text = 'SERVED' THEN now() ELSE served_at END,
    paid_at   = CASE WHEN $2::text = 'PAID'   THEN now() ELSE paid_at   END
WHERE id = $1
RETURNING id, table_number, server_id, status, total, created_at, served_at, paid_at
`

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status string
}

// UpdateOrderStatus sets the status and stamps served_at / paid_at as a
// side effect of entering SERVED / PAID. Other statuses touch neither
// timestamp.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status)
	return scanOrder(row)
}

const listOpenOrdersByServer = `-- name: ListOpenOrdersByServer :many
SELECT id, table_number, server_id, status, total, created_at, served_at, paid_at
FROM orders
WHERE server_id = $1
  AND status NOT IN ('PAID', 'CANCELLED')
ORDER BY created_at, id
`

func (q *Queries) ListOpenOrdersByServer(ctx context.Context, serverID uuid.UUID) ([]Order, error) {
	return q.queryOrders(ctx, listOpenOrdersByServer, serverID)
}

const listOrdersByStatus = `-- name: ListOrdersByStatus :many
SELECT id, table_number, server_id, status, total, created_at, served_at, paid_at
FROM orders
WHERE status = $1
ORDER BY created_at, id
`

func (q *Queries) ListOrdersByStatus(ctx context.Context, status string) ([]Order, error) {
	return q.queryOrders(ctx, listOrdersByStatus, status)
}

func (q *Queries) queryOrders(ctx context.Context, sql string, args ...interface{}) ([]Order, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.TableNumber, &o.ServerID, &o.Status, &o.Total,
			&o.CreatedAt, &o.ServedAt, &o.PaidAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.TableNumber, &o.ServerID, &o.Status, &o.Total,
		&o.CreatedAt, &o.ServedAt, &o.PaidAt)
	return o, err
}
