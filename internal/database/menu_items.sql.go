package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (name, description, price, category, available, image_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, description, price, category, available, image_url, created_at, updated_at
`

type CreateMenuItemParams struct {
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Category    string
	Available   bool
	ImageUrl    pgtype.Text
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.Name, arg.Description, arg.Price, arg.Category, arg.Available, arg.ImageUrl)
	return scanMenuItem(row)
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT id, name, description, price, category, available, image_url, created_at, updated_at
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const getMenuItemForOrder = `-- name: GetMenuItemForOrder :one
SELECT id, name, price, available
FROM menu_items
WHERE id = $1
`

type GetMenuItemForOrderRow struct {
	ID        uuid.UUID
	Name      string
	Price     pgtype.Numeric
	Available bool
}

func (q *Queries) GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (GetMenuItemForOrderRow, error) {
	row := q.db.QueryRow(ctx, getMenuItemForOrder, id)
	var r GetMenuItemForOrderRow
	err := row.Scan(&r.ID, &r.Name, &r.Price, &r.Available)
	return r, err
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT id, name, description, price, category, available, image_url, created_at, updated_at
FROM menu_items
ORDER BY category, name
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Category,
			&m.Available, &m.ImageUrl, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const updateMenuItem = `-- name: UpdateMenuItem :one
UPDATE menu_items
SET name        = $2,
    description = $3,
    price       = $4,
    category    = $5,
    available   = COALESCE($6, available),
    image_url   = COALESCE($7, image_url),
    updated_at  = now()
WHERE id = $1
RETURNING id, name, description, price, category, available, image_url, created_at, updated_at
`

// UpdateMenuItemParams carries Available and ImageUrl as nullable values:
// NULL keeps the stored column untouched.
type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Category    string
	Available   pgtype.Bool
	ImageUrl    pgtype.Text
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.Category, arg.Available, arg.ImageUrl)
	return scanMenuItem(row)
}

const deleteMenuItem = `-- name: DeleteMenuItem :one
DELETE FROM menu_items
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteMenuItem, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}

func scanMenuItem(row interface{ Scan(dest ...interface{}) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Category,
		&m.Available, &m.ImageUrl, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}
