package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/brasserie-pos/api/internal/database"
	"github.com/brasserie-pos/api/internal/enum"
	"github.com/brasserie-pos/api/internal/handler"
	"github.com/brasserie-pos/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// --- Mock Store ---

type mockDashboardStore struct {
	revenueByDay  []database.GetRevenueByDayRow
	popularItems  []database.GetPopularItemsRow
	avgMinutes    float64
	openByServer  map[uuid.UUID][]database.Order
	byStatus      map[string][]database.Order
	lines         map[uuid.UUID][]database.OrderLine
	openQueriedBy uuid.UUID
}

func (m *mockDashboardStore) GetRevenueByDay(ctx context.Context) ([]database.GetRevenueByDayRow, error) {
	return m.revenueByDay, nil
}

func (m *mockDashboardStore) GetPopularItems(ctx context.Context, limit int32) ([]database.GetPopularItemsRow, error) {
	return m.popularItems, nil
}

func (m *mockDashboardStore) GetAverageServiceMinutes(ctx context.Context) (float64, error) {
	return m.avgMinutes, nil
}

func (m *mockDashboardStore) ListOpenOrdersByServer(ctx context.Context, serverID uuid.UUID) ([]database.Order, error) {
	m.openQueriedBy = serverID
	return m.openByServer[serverID], nil
}

func (m *mockDashboardStore) ListOrdersByStatus(ctx context.Context, status string) ([]database.Order, error) {
	return m.byStatus[status], nil
}

func (m *mockDashboardStore) ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error) {
	return m.lines[orderID], nil
}

// --- Test Helpers ---

func setupDashboardRouter(store handler.DashboardStore) http.Handler {
	h := handler.NewDashboardHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Get("/dashboard", h.Get)
	return r
}

type dashboardBody struct {
	Role         string `json:"role"`
	RevenueByDay []struct {
		Day          string `json:"day"`
		TotalRevenue string `json:"total_revenue"`
	} `json:"revenue_by_day"`
	PopularItems []struct {
		ItemName string `json:"item_name"`
	} `json:"popular_items"`
	AverageMinutes *float64 `json:"average_service_minutes"`
	OpenOrders     []struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	} `json:"open_orders"`
	Kitchen []struct {
		ID    uuid.UUID `json:"id"`
		Items []struct {
			ItemName string `json:"item_name"`
			Quantity int32  `json:"quantity"`
		} `json:"items"`
	} `json:"kitchen_queue"`
}

// --- Tests ---

func TestDashboardManagerSections(t *testing.T) {
	store := &mockDashboardStore{
		revenueByDay: []database.GetRevenueByDayRow{
			{Day: "2026-03-01", TotalRevenue: toNumeric("120.50"), OrderCount: 8},
		},
		popularItems: []database.GetPopularItemsRow{
			{MenuItemID: uuid.New(), ItemName: "Steak Frites", TotalSold: 42},
		},
		avgMinutes: 33.333,
	}
	router := setupDashboardRouter(store)

	token := tokenFor(t, uuid.New(), "boss", enum.UserRoleManager)
	rec := doJSON(t, router, http.MethodGet, "/dashboard", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp dashboardBody
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Role != enum.UserRoleManager {
		t.Errorf("role: got %s, want %s", resp.Role, enum.UserRoleManager)
	}
	if len(resp.RevenueByDay) != 1 || resp.RevenueByDay[0].TotalRevenue != "120.50" {
		t.Errorf("revenue_by_day: got %+v", resp.RevenueByDay)
	}
	if len(resp.PopularItems) != 1 || resp.PopularItems[0].ItemName != "Steak Frites" {
		t.Errorf("popular_items: got %+v", resp.PopularItems)
	}
	if resp.AverageMinutes == nil || *resp.AverageMinutes != 33.33 {
		t.Errorf("average_service_minutes: got %v, want 33.33", resp.AverageMinutes)
	}
	if resp.OpenOrders != nil || resp.Kitchen != nil {
		t.Error("manager dashboard should not carry server or cook sections")
	}
}

func TestDashboardServerSeesOwnOpenOrders(t *testing.T) {
	serverID := uuid.New()
	order := sampleOrder(serverID, enum.OrderStatusReady)
	store := &mockDashboardStore{
		openByServer: map[uuid.UUID][]database.Order{serverID: {order}},
		lines:        map[uuid.UUID][]database.OrderLine{order.ID: sampleLines(order.ID)},
	}
	router := setupDashboardRouter(store)

	token := tokenFor(t, serverID, "alice", enum.UserRoleServer)
	rec := doJSON(t, router, http.MethodGet, "/dashboard", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	if store.openQueriedBy != serverID {
		t.Errorf("queried server: got %s, want caller %s", store.openQueriedBy, serverID)
	}

	var resp dashboardBody
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Role != enum.UserRoleServer {
		t.Errorf("role: got %s", resp.Role)
	}
	if len(resp.OpenOrders) != 1 || resp.OpenOrders[0].ID != order.ID {
		t.Errorf("open_orders: got %+v", resp.OpenOrders)
	}
	if resp.RevenueByDay != nil || resp.AverageMinutes != nil {
		t.Error("server dashboard should not carry manager sections")
	}
}

func TestDashboardCookSeesPreparingQueue(t *testing.T) {
	order := sampleOrder(uuid.New(), enum.OrderStatusPreparing)
	otherOrder := sampleOrder(uuid.New(), enum.OrderStatusReady)
	store := &mockDashboardStore{
		byStatus: map[string][]database.Order{
			enum.OrderStatusPreparing: {order},
			enum.OrderStatusReady:     {otherOrder},
		},
		lines: map[uuid.UUID][]database.OrderLine{order.ID: sampleLines(order.ID)},
	}
	router := setupDashboardRouter(store)

	token := tokenFor(t, uuid.New(), "chef", enum.UserRoleCook)
	rec := doJSON(t, router, http.MethodGet, "/dashboard", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp dashboardBody
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Role != enum.UserRoleCook {
		t.Errorf("role: got %s", resp.Role)
	}
	if len(resp.Kitchen) != 1 || resp.Kitchen[0].ID != order.ID {
		t.Fatalf("kitchen_queue: got %+v", resp.Kitchen)
	}
	if len(resp.Kitchen[0].Items) != 2 || resp.Kitchen[0].Items[0].ItemName != "Steak Frites" {
		t.Errorf("kitchen items: got %+v", resp.Kitchen[0].Items)
	}
}
