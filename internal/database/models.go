package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Name           string
	Role           string
	HashedPassword string
	CreatedAt      time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Category    string
	Available   bool
	ImageUrl    pgtype.Text
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID          uuid.UUID
	TableNumber int32
	ServerID    uuid.UUID
	Status      string
	Total       pgtype.Numeric
	CreatedAt   time.Time
	ServedAt    pgtype.Timestamptz
	PaidAt      pgtype.Timestamptz
}

// OrderLine rows are embedded in their order: they carry the name and unit
// price snapshotted at write time, so later menu edits never change them.
type OrderLine struct {
	ID         int64
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	ItemName   string
	Quantity   int32
	UnitPrice  pgtype.Numeric
}
