package handler

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/brasserie-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const defaultPopularItemsLimit = 5

// ReportStore defines the aggregation queries behind the reports screens.
// Satisfied by *database.Queries.
type ReportStore interface {
	GetRevenueByDay(ctx context.Context) ([]database.GetRevenueByDayRow, error)
	GetPopularItems(ctx context.Context, limit int32) ([]database.GetPopularItemsRow, error)
	GetAverageServiceMinutes(ctx context.Context) (float64, error)
	GetServerPerformance(ctx context.Context) ([]database.GetServerPerformanceRow, error)
	GetSalesByCategory(ctx context.Context) ([]database.GetSalesByCategoryRow, error)
}

// ReportHandler handles the manager reporting endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted behind the manager role gate: /reports
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/revenue-by-day", h.RevenueByDay)
	r.Get("/popular-items", h.PopularItems)
	r.Get("/average-service-time", h.AverageServiceTime)
	r.Get("/server-performance", h.ServerPerformance)
	r.Get("/sales-by-category", h.SalesByCategory)
}

// --- Response types ---

type revenueByDayResponse struct {
	Day          string `json:"day"`
	TotalRevenue string `json:"total_revenue"`
	OrderCount   int64  `json:"order_count"`
}

type popularItemResponse struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	ItemName   string    `json:"item_name"`
	TotalSold  int64     `json:"total_sold"`
}

type averageServiceTimeResponse struct {
	AverageMinutes float64 `json:"average_minutes"`
}

type serverPerformanceResponse struct {
	ServerID     uuid.UUID `json:"server_id"`
	ServerName   string    `json:"server_name"`
	TotalRevenue string    `json:"total_revenue"`
	TotalOrders  int64     `json:"total_orders"`
}

type salesByCategoryResponse struct {
	Category      string `json:"category"`
	TotalRevenue  string `json:"total_revenue"`
	TotalQuantity int64  `json:"total_quantity"`
}

// --- Handlers ---

// RevenueByDay reports paid revenue grouped by payment date (UTC), oldest
// day first.
func (h *ReportHandler) RevenueByDay(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GetRevenueByDay(r.Context())
	if err != nil {
		log.Printf("ERROR: revenue by day report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]revenueByDayResponse, len(rows))
	for i, row := range rows {
		resp[i] = revenueByDayResponse{
			Day:          row.Day,
			TotalRevenue: numericToString(row.TotalRevenue),
			OrderCount:   row.OrderCount,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// PopularItems reports the most ordered menu items across orders of every
// status. Accepts an optional limit query parameter, default 5.
func (h *ReportHandler) PopularItems(w http.ResponseWriter, r *http.Request) {
	limit := int32(defaultPopularItemsLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return
		}
		limit = int32(parsed)
	}

	rows, err := h.store.GetPopularItems(r.Context(), limit)
	if err != nil {
		log.Printf("ERROR: popular items report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]popularItemResponse, len(rows))
	for i, row := range rows {
		resp[i] = popularItemResponse{
			MenuItemID: row.MenuItemID,
			ItemName:   row.ItemName,
			TotalSold:  row.TotalSold,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// AverageServiceTime reports the mean minutes between creation and payment
// over paid orders. With no paid orders the average is 0.
func (h *ReportHandler) AverageServiceTime(w http.ResponseWriter, r *http.Request) {
	minutes, err := h.store.GetAverageServiceMinutes(r.Context())
	if err != nil {
		log.Printf("ERROR: average service time report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, averageServiceTimeResponse{
		AverageMinutes: math.Round(minutes*100) / 100,
	})
}

// ServerPerformance reports paid revenue and order counts per server,
// highest revenue first.
func (h *ReportHandler) ServerPerformance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GetServerPerformance(r.Context())
	if err != nil {
		log.Printf("ERROR: server performance report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]serverPerformanceResponse, len(rows))
	for i, row := range rows {
		resp[i] = serverPerformanceResponse{
			ServerID:     row.ServerID,
			ServerName:   row.ServerName,
			TotalRevenue: numericToString(row.TotalRevenue),
			TotalOrders:  row.TotalOrders,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// SalesByCategory reports paid revenue and quantities grouped by menu
// category, highest revenue first. Line snapshot prices are used, so menu
// price changes after payment do not rewrite history.
func (h *ReportHandler) SalesByCategory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GetSalesByCategory(r.Context())
	if err != nil {
		log.Printf("ERROR: sales by category report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]salesByCategoryResponse, len(rows))
	for i, row := range rows {
		resp[i] = salesByCategoryResponse{
			Category:      row.Category,
			TotalRevenue:  numericToString(row.TotalRevenue),
			TotalQuantity: row.TotalQuantity,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
