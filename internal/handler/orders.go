package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/brasserie-pos/api/internal/database"
	"github.com/brasserie-pos/api/internal/enum"
	"github.com/brasserie-pos/api/internal/middleware"
	"github.com/brasserie-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderServicer defines the transactional order operations.
// Satisfied by *service.OrderService.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	UpdateOrderContent(ctx context.Context, req service.UpdateOrderContentRequest) (*service.OrderResult, error)
}

// OrderStore defines the read and status-update methods needed by order
// handlers. Satisfied by *database.Queries.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrdersWithServer(ctx context.Context) ([]database.ListOrdersWithServerRow, error)
	ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// Notifier pushes order events to connected clients. Satisfied by *ws.Hub;
// may be nil, in which case events are dropped.
type Notifier interface {
	BroadcastEvent(eventType string, payload interface{})
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	svc      OrderServicer
	store    OrderStore
	notifier Notifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, notifier Notifier) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, notifier: notifier}
}

// --- Request / Response types ---

type orderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

type createOrderRequest struct {
	TableNumber int32              `json:"table_number"`
	ServerID    string             `json:"server_id"`
	Items       []orderItemRequest `json:"items"`
}

type updateOrderContentRequest struct {
	TableNumber int32              `json:"table_number"`
	Items       []orderItemRequest `json:"items"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type orderLineResponse struct {
	ID         int64     `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	ItemName   string    `json:"item_name"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
}

type orderResponse struct {
	ID          uuid.UUID           `json:"id"`
	TableNumber int32               `json:"table_number"`
	ServerID    uuid.UUID           `json:"server_id"`
	ServerName  string              `json:"server_name,omitempty"`
	Status      string              `json:"status"`
	Total       string              `json:"total"`
	CreatedAt   time.Time           `json:"created_at"`
	ServedAt    *time.Time          `json:"served_at"`
	PaidAt      *time.Time          `json:"paid_at"`
	Items       []orderLineResponse `json:"items"`
}

func toOrderLineResponses(lines []database.OrderLine) []orderLineResponse {
	resp := make([]orderLineResponse, len(lines))
	for i, l := range lines {
		resp[i] = orderLineResponse{
			ID:         l.ID,
			MenuItemID: l.MenuItemID,
			ItemName:   l.ItemName,
			Quantity:   l.Quantity,
			UnitPrice:  numericToString(l.UnitPrice),
		}
	}
	return resp
}

func toOrderResponse(o database.Order, lines []database.OrderLine) orderResponse {
	return orderResponse{
		ID:          o.ID,
		TableNumber: o.TableNumber,
		ServerID:    o.ServerID,
		Status:      o.Status,
		Total:       numericToString(o.Total),
		CreatedAt:   o.CreatedAt,
		ServedAt:    timestamptzOrNil(o.ServedAt),
		PaidAt:      timestamptzOrNil(o.PaidAt),
		Items:       toOrderLineResponses(lines),
	}
}

// --- Handlers ---

// Create opens a new order for a table. Servers always create orders under
// their own account; a manager may create one on behalf of another server
// by passing server_id.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	serverID := claims.UserID
	if req.ServerID != "" && claims.Role == enum.UserRoleManager {
		parsed, err := uuid.Parse(req.ServerID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid server_id"})
			return
		}
		serverID = parsed
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TableNumber: req.TableNumber,
		ServerID:    serverID,
		Items:       toServiceItems(req.Items),
	})
	if err != nil {
		h.writeOrderServiceError(w, "create order", err)
		return
	}

	resp := toOrderResponse(result.Order, result.Lines)
	h.broadcast("order_created", resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List returns every order with its server and lines, oldest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrdersWithServer(r.Context())
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		lines, err := h.store.ListOrderLinesByOrder(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order lines: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp = append(resp, orderResponse{
			ID:          o.ID,
			TableNumber: o.TableNumber,
			ServerID:    o.ServerID,
			ServerName:  o.ServerName,
			Status:      o.Status,
			Total:       numericToString(o.Total),
			CreatedAt:   o.CreatedAt,
			ServedAt:    timestamptzOrNil(o.ServedAt),
			PaidAt:      timestamptzOrNil(o.PaidAt),
			Items:       toOrderLineResponses(lines),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single order with its lines.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines, err := h.store.ListOrderLinesByOrder(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list order lines: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, lines))
}

// UpdateContent replaces the table number and lines of an order that is
// still in preparation.
func (h *OrderHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.UpdateOrderContent(r.Context(), service.UpdateOrderContentRequest{
		OrderID:     id,
		TableNumber: req.TableNumber,
		Items:       toServiceItems(req.Items),
	})
	if err != nil {
		h.writeOrderServiceError(w, "update order content", err)
		return
	}

	resp := toOrderResponse(result.Order, result.Lines)
	h.broadcast("order_updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus moves an order to a new lifecycle status. Entering SERVED or
// PAID stamps the matching timestamp.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !isValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	order, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:     id,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines, err := h.store.ListOrderLinesByOrder(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list order lines: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(order, lines)
	h.broadcast("order_status_updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (h *OrderHandler) broadcast(eventType string, payload interface{}) {
	if h.notifier != nil {
		h.notifier.BroadcastEvent(eventType, payload)
	}
}

func (h *OrderHandler) writeOrderServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrServerNotFound),
		errors.Is(err, service.ErrMenuItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotEditable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTableNumber),
		errors.Is(err, service.ErrMissingServer),
		errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrMenuItemUnavailable):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toServiceItems(items []orderItemRequest) []service.OrderItemRequest {
	out := make([]service.OrderItemRequest, len(items))
	for i, it := range items {
		out[i] = service.OrderItemRequest{MenuItemID: it.MenuItemID, Quantity: it.Quantity}
	}
	return out
}

// isValidOrderStatus accepts any known status value. Transitions are not
// restricted beyond membership: the floor staff regularly walks statuses
// backwards to fix mistakes, and a cancelled order can be reopened.
func isValidOrderStatus(status string) bool {
	switch status {
	case enum.OrderStatusOpen, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusServed, enum.OrderStatusPaid, enum.OrderStatusCancelled:
		return true
	}
	return false
}

func timestamptzOrNil(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
