package database

import (
	"context"

	"github.com/google/uuid"
)

const createUser = `-- name: CreateUser :one
INSERT INTO users (name, role, hashed_password)
VALUES ($1, $2, $3)
RETURNING id, name, role, hashed_password, created_at
`

type CreateUserParams struct {
	Name           string
	Role           string
	HashedPassword string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Name, arg.Role, arg.HashedPassword)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.HashedPassword, &u.CreatedAt)
	return u, err
}

const getUserByName = `-- name: GetUserByName :one
SELECT id, name, role, hashed_password, created_at
FROM users
WHERE name = $1
`

func (q *Queries) GetUserByName(ctx context.Context, name string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByName, name)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.HashedPassword, &u.CreatedAt)
	return u, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, name, role, hashed_password, created_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.HashedPassword, &u.CreatedAt)
	return u, err
}

const listUsers = `-- name: ListUsers :many
SELECT id, name, role, hashed_password, created_at
FROM users
ORDER BY name
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.HashedPassword, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const deleteUser = `-- name: DeleteUser :one
DELETE FROM users
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteUser, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
