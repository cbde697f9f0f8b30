package handler

import (
	"context"
	"log"
	"math"
	"net/http"

	"github.com/brasserie-pos/api/internal/database"
	"github.com/brasserie-pos/api/internal/enum"
	"github.com/brasserie-pos/api/internal/middleware"
	"github.com/google/uuid"
)

// DashboardStore defines the queries behind the landing dashboard.
// Satisfied by *database.Queries.
type DashboardStore interface {
	GetRevenueByDay(ctx context.Context) ([]database.GetRevenueByDayRow, error)
	GetPopularItems(ctx context.Context, limit int32) ([]database.GetPopularItemsRow, error)
	GetAverageServiceMinutes(ctx context.Context) (float64, error)
	ListOpenOrdersByServer(ctx context.Context, serverID uuid.UUID) ([]database.Order, error)
	ListOrdersByStatus(ctx context.Context, status string) ([]database.Order, error)
	ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
}

// DashboardHandler serves the role-specific landing view. One endpoint,
// one assembly path; the caller's role picks which sections are filled in.
type DashboardHandler struct {
	store DashboardStore
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store DashboardStore) *DashboardHandler {
	return &DashboardHandler{store: store}
}

type dashboardResponse struct {
	Role string `json:"role"`

	// Manager sections.
	RevenueByDay   []revenueByDayResponse `json:"revenue_by_day,omitempty"`
	PopularItems   []popularItemResponse  `json:"popular_items,omitempty"`
	AverageMinutes *float64               `json:"average_service_minutes,omitempty"`

	// Server section: the caller's orders not yet paid or cancelled.
	OpenOrders []orderResponse `json:"open_orders,omitempty"`

	// Cook section: everything currently in preparation.
	Kitchen []orderResponse `json:"kitchen_queue,omitempty"`
}

// Get assembles the dashboard for the authenticated user.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	resp := dashboardResponse{Role: claims.Role}

	var err error
	switch claims.Role {
	case enum.UserRoleManager:
		err = h.fillManagerSections(r.Context(), &resp)
	case enum.UserRoleServer:
		resp.OpenOrders, err = h.ordersWithLines(r.Context(), func(ctx context.Context) ([]database.Order, error) {
			return h.store.ListOpenOrdersByServer(ctx, claims.UserID)
		})
	case enum.UserRoleCook:
		resp.Kitchen, err = h.ordersWithLines(r.Context(), func(ctx context.Context) ([]database.Order, error) {
			return h.store.ListOrdersByStatus(ctx, enum.OrderStatusPreparing)
		})
	}
	if err != nil {
		log.Printf("ERROR: dashboard for %s: %v", claims.Role, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *DashboardHandler) fillManagerSections(ctx context.Context, resp *dashboardResponse) error {
	revenue, err := h.store.GetRevenueByDay(ctx)
	if err != nil {
		return err
	}
	resp.RevenueByDay = make([]revenueByDayResponse, len(revenue))
	for i, row := range revenue {
		resp.RevenueByDay[i] = revenueByDayResponse{
			Day:          row.Day,
			TotalRevenue: numericToString(row.TotalRevenue),
			OrderCount:   row.OrderCount,
		}
	}

	popular, err := h.store.GetPopularItems(ctx, defaultPopularItemsLimit)
	if err != nil {
		return err
	}
	resp.PopularItems = make([]popularItemResponse, len(popular))
	for i, row := range popular {
		resp.PopularItems[i] = popularItemResponse{
			MenuItemID: row.MenuItemID,
			ItemName:   row.ItemName,
			TotalSold:  row.TotalSold,
		}
	}

	minutes, err := h.store.GetAverageServiceMinutes(ctx)
	if err != nil {
		return err
	}
	rounded := math.Round(minutes*100) / 100
	resp.AverageMinutes = &rounded

	return nil
}

func (h *DashboardHandler) ordersWithLines(ctx context.Context, list func(context.Context) ([]database.Order, error)) ([]orderResponse, error) {
	orders, err := list(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		lines, err := h.store.ListOrderLinesByOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, toOrderResponse(o, lines))
	}
	return resp, nil
}
