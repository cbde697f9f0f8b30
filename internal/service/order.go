package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/brasserie-pos/api/internal/database"
	"github.com/brasserie-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrInvalidTableNumber  = errors.New("table_number must be > 0")
	ErrMissingServer       = errors.New("server_id is required")
	ErrEmptyItems          = errors.New("items are required")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID   = errors.New("invalid menu_item_id")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item unavailable")
	ErrServerNotFound      = errors.New("server not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotEditable    = errors.New("order can no longer be modified")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create and edit orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (database.GetMenuItemForOrderRow, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) (database.OrderLine, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	DeleteOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) error
	UpdateOrderContent(ctx context.Context, arg database.UpdateOrderContentParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderItemRequest is a single requested line: a menu item and how many.
type OrderItemRequest struct {
	MenuItemID string
	Quantity   int32
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	TableNumber int32
	ServerID    uuid.UUID
	Items       []OrderItemRequest
}

// UpdateOrderContentRequest replaces an order's table number and lines.
type UpdateOrderContentRequest struct {
	OrderID     uuid.UUID
	TableNumber int32
	Items       []OrderItemRequest
}

// OrderResult is an order together with its lines.
type OrderResult struct {
	Order database.Order
	Lines []database.OrderLine
}

// OrderService owns order creation and content edits: the two operations
// that snapshot prices and therefore must run inside one transaction.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates every requested line against the menu, snapshots
// names and unit prices, and persists the order atomically with status
// PREPARING. Any missing or unavailable menu item rejects the whole
// request; nothing is persisted.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if req.TableNumber <= 0 {
		return nil, ErrInvalidTableNumber
	}
	if req.ServerID == uuid.Nil {
		return nil, ErrMissingServer
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetUserByID(ctx, req.ServerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("get server: %w", err)
	}

	lineParams, total, err := snapshotLines(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableNumber: req.TableNumber,
		ServerID:    req.ServerID,
		Status:      enum.OrderStatusPreparing,
		Total:       decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	lines := make([]database.OrderLine, 0, len(lineParams))
	for _, lp := range lineParams {
		lp.OrderID = order.ID
		line, err := store.CreateOrderLine(ctx, lp)
		if err != nil {
			return nil, fmt.Errorf("create order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Lines: lines}, nil
}

// UpdateOrderContent replaces the table number and line list of an order
// that is still PREPARING. The same validation and snapshotting as
// creation applies; status and creation timestamp are untouched. The
// order row is locked for the duration of the transaction so concurrent
// edits serialize instead of interleaving.
func (s *OrderService) UpdateOrderContent(ctx context.Context, req UpdateOrderContentRequest) (*OrderResult, error) {
	if req.TableNumber <= 0 {
		return nil, ErrInvalidTableNumber
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if current.Status != enum.OrderStatusPreparing {
		return nil, ErrOrderNotEditable
	}

	lineParams, total, err := snapshotLines(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}

	if err := store.DeleteOrderLinesByOrder(ctx, req.OrderID); err != nil {
		return nil, fmt.Errorf("delete order lines: %w", err)
	}

	lines := make([]database.OrderLine, 0, len(lineParams))
	for _, lp := range lineParams {
		lp.OrderID = req.OrderID
		line, err := store.CreateOrderLine(ctx, lp)
		if err != nil {
			return nil, fmt.Errorf("create order line: %w", err)
		}
		lines = append(lines, line)
	}

	order, err := store.UpdateOrderContent(ctx, database.UpdateOrderContentParams{
		ID:          req.OrderID,
		TableNumber: req.TableNumber,
		Total:       decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Lines: lines}, nil
}

// snapshotLines validates the requested items against the menu and builds
// line params carrying the name and unit price in force right now. Returns
// the order total, rounded to 2 decimal places.
func snapshotLines(ctx context.Context, store OrderStore, items []OrderItemRequest) ([]database.CreateOrderLineParams, decimal.Decimal, error) {
	total := decimal.Zero
	params := make([]database.CreateOrderLineParams, 0, len(items))

	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}

		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
		}

		menuItem, err := store.GetMenuItemForOrder(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, decimal.Zero, fmt.Errorf("menu item %s: %w", item.MenuItemID, ErrMenuItemNotFound)
			}
			return nil, decimal.Zero, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		if !menuItem.Available {
			return nil, decimal.Zero, fmt.Errorf("menu item %s: %w", item.MenuItemID, ErrMenuItemUnavailable)
		}

		unitPrice := numericToDecimal(menuItem.Price)
		total = total.Add(unitPrice.Mul(decimal.NewFromInt32(item.Quantity)))

		params = append(params, database.CreateOrderLineParams{
			MenuItemID: menuItemID,
			ItemName:   menuItem.Name,
			Quantity:   item.Quantity,
			UnitPrice:  decimalToNumeric(unitPrice),
		})
	}

	return params, total.Round(2), nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
