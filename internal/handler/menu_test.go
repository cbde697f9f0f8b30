package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brasserie-pos/api/internal/database"
	"github.com/brasserie-pos/api/internal/enum"
	"github.com/brasserie-pos/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock Store ---

type mockMenuStore struct {
	items      map[uuid.UUID]database.MenuItem
	lastCreate database.CreateMenuItemParams
	lastUpdate database.UpdateMenuItemParams
	deleted    []uuid.UUID
	createErr  error
	updateErr  error
}

func (m *mockMenuStore) CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	if m.createErr != nil {
		return database.MenuItem{}, m.createErr
	}
	m.lastCreate = arg
	return database.MenuItem{
		ID:          uuid.New(),
		Name:        arg.Name,
		Description: arg.Description,
		Price:       arg.Price,
		Category:    arg.Category,
		Available:   arg.Available,
		ImageUrl:    arg.ImageUrl,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}, nil
}

func (m *mockMenuStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	item, ok := m.items[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (m *mockMenuStore) ListMenuItems(ctx context.Context) ([]database.MenuItem, error) {
	var items []database.MenuItem
	for _, item := range m.items {
		items = append(items, item)
	}
	return items, nil
}

func (m *mockMenuStore) UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error) {
	item, ok := m.items[arg.ID]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	if m.updateErr != nil {
		return database.MenuItem{}, m.updateErr
	}
	m.lastUpdate = arg
	item.Name = arg.Name
	item.Description = arg.Description
	item.Price = arg.Price
	item.Category = arg.Category
	// NULL keeps the stored value, mirroring the COALESCE in the query
	if arg.Available.Valid {
		item.Available = arg.Available.Bool
	}
	if arg.ImageUrl.Valid {
		item.ImageUrl = arg.ImageUrl
	}
	item.UpdatedAt = time.Now()
	m.items[arg.ID] = item
	return item, nil
}

func (m *mockMenuStore) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.items[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return id, nil
}

// --- Test Helpers ---

func setupMenuRouter(store handler.MenuStore, uploadDir string) http.Handler {
	h := handler.NewMenuHandler(store, uploadDir)
	r := chi.NewRouter()
	r.Route("/menu", func(r chi.Router) {
		h.RegisterRoutes(r)
		h.RegisterManagerRoutes(r)
	})
	return r
}

func menuItemFixture(name, price, category string) database.MenuItem {
	return database.MenuItem{
		ID:        uuid.New(),
		Name:      name,
		Price:     toNumeric(price),
		Category:  category,
		Available: true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// --- Create ---

func TestCreateMenuItemJSON(t *testing.T) {
	store := &mockMenuStore{}
	router := setupMenuRouter(store, t.TempDir())

	rec := doJSON(t, router, http.MethodPost, "/menu", "", map[string]interface{}{
		"name":        "Steak Frites",
		"description": "Rib steak, hand-cut fries",
		"price":       "18.5",
		"category":    enum.CategoryMain,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["price"] != "18.50" {
		t.Errorf("price: got %v, want 18.50", resp["price"])
	}
	if resp["available"] != true {
		t.Errorf("available should default to true, got %v", resp["available"])
	}
	if resp["image_url"] != nil {
		t.Errorf("image_url: got %v, want null", resp["image_url"])
	}
}

func TestCreateMenuItemInvalidPrice(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{}, t.TempDir())

	for _, price := range []string{"abc", "-1.00", ""} {
		rec := doJSON(t, router, http.MethodPost, "/menu", "", map[string]interface{}{
			"name":     "Mystery Dish",
			"price":    price,
			"category": enum.CategoryMain,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("price %q: got %d, want %d", price, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestCreateMenuItemInvalidCategory(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{}, t.TempDir())

	rec := doJSON(t, router, http.MethodPost, "/menu", "", map[string]interface{}{
		"name":     "Side Dish",
		"price":    "4.00",
		"category": "SIDE",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateMenuItemWithImageUpload(t *testing.T) {
	store := &mockMenuStore{}
	uploadDir := t.TempDir()
	router := setupMenuRouter(store, uploadDir)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("name", "Creme Brulee")
	mw.WriteField("price", "6.50")
	mw.WriteField("category", enum.CategoryDessert)
	fw, err := mw.CreateFormFile("image", "brulee.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("not really a jpeg"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/menu", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	if !store.lastCreate.ImageUrl.Valid {
		t.Fatal("image URL not stored")
	}
	url := store.lastCreate.ImageUrl.String
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".jpg") {
		t.Errorf("image URL: got %s", url)
	}

	// The file must exist on disk under the upload dir
	saved := filepath.Join(uploadDir, strings.TrimPrefix(url, "/uploads/"))
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("uploaded file not saved: %v", err)
	}
	if string(data) != "not really a jpeg" {
		t.Errorf("saved file content: got %q", data)
	}
}

func TestCreateMenuItemRejectsUnknownImageType(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{}, t.TempDir())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("name", "House Salad")
	mw.WriteField("price", "6.00")
	mw.WriteField("category", enum.CategoryStarter)
	fw, _ := mw.CreateFormFile("image", "salad.exe")
	fw.Write([]byte("nope"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/menu", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateMenuItemDuplicateName(t *testing.T) {
	store := &mockMenuStore{createErr: &pgconn.PgError{Code: "23505"}}
	router := setupMenuRouter(store, t.TempDir())

	rec := doJSON(t, router, http.MethodPost, "/menu", "", map[string]interface{}{
		"name":     "Steak Frites",
		"price":    "18.50",
		"category": enum.CategoryMain,
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusConflict, rec.Body.String())
	}
}

// --- Read ---

func TestGetMenuItemNotFound(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{items: map[uuid.UUID]database.MenuItem{}}, t.TempDir())

	rec := doJSON(t, router, http.MethodGet, "/menu/"+uuid.New().String(), "", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListMenuItems(t *testing.T) {
	item := menuItemFixture("Onion Soup", "7.50", enum.CategoryStarter)
	store := &mockMenuStore{items: map[uuid.UUID]database.MenuItem{item.ID: item}}
	router := setupMenuRouter(store, t.TempDir())

	rec := doJSON(t, router, http.MethodGet, "/menu", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp) != 1 || resp[0]["name"] != "Onion Soup" || resp[0]["price"] != "7.50" {
		t.Errorf("items: got %+v", resp)
	}
}

// --- Update / Delete ---

func TestUpdateMenuItemKeepsImageWhenNotReplaced(t *testing.T) {
	item := menuItemFixture("Steak Frites", "18.50", enum.CategoryMain)
	item.ImageUrl = pgtype.Text{String: "/uploads/menu_1.jpg", Valid: true}
	store := &mockMenuStore{items: map[uuid.UUID]database.MenuItem{item.ID: item}}
	router := setupMenuRouter(store, t.TempDir())

	rec := doJSON(t, router, http.MethodPut, "/menu/"+item.ID.String(), "", map[string]interface{}{
		"name":      "Steak Frites",
		"price":     "19.50",
		"category":  enum.CategoryMain,
		"available": false,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	if store.lastUpdate.ImageUrl.Valid {
		t.Error("update without upload should pass a NULL image URL so the stored one is kept")
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["price"] != "19.50" {
		t.Errorf("price: got %v, want 19.50", resp["price"])
	}
	if resp["available"] != false {
		t.Errorf("available: got %v, want false", resp["available"])
	}
	if resp["image_url"] != "/uploads/menu_1.jpg" {
		t.Errorf("image_url: got %v, want /uploads/menu_1.jpg", resp["image_url"])
	}
}

func TestUpdateMenuItemOmittedAvailableKeepsStored(t *testing.T) {
	item := menuItemFixture("Duck Confit", "21.00", enum.CategoryMain)
	item.Available = false
	store := &mockMenuStore{items: map[uuid.UUID]database.MenuItem{item.ID: item}}
	router := setupMenuRouter(store, t.TempDir())

	rec := doJSON(t, router, http.MethodPut, "/menu/"+item.ID.String(), "", map[string]interface{}{
		"name":     "Duck Confit",
		"price":    "22.00",
		"category": enum.CategoryMain,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	if store.lastUpdate.Available.Valid {
		t.Error("update without an available field should pass NULL so the stored value is kept")
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["available"] != false {
		t.Errorf("available: got %v, want false (a price edit must not re-enable the item)", resp["available"])
	}
}

func TestUpdateMenuItemDuplicateName(t *testing.T) {
	item := menuItemFixture("Onion Soup", "7.50", enum.CategoryStarter)
	store := &mockMenuStore{
		items:     map[uuid.UUID]database.MenuItem{item.ID: item},
		updateErr: &pgconn.PgError{Code: "23505"},
	}
	router := setupMenuRouter(store, t.TempDir())

	rec := doJSON(t, router, http.MethodPut, "/menu/"+item.ID.String(), "", map[string]interface{}{
		"name":     "Steak Frites",
		"price":    "7.50",
		"category": enum.CategoryStarter,
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusConflict, rec.Body.String())
	}
}

func TestUpdateMenuItemNotFound(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{items: map[uuid.UUID]database.MenuItem{}}, t.TempDir())

	rec := doJSON(t, router, http.MethodPut, "/menu/"+uuid.New().String(), "", map[string]interface{}{
		"name":     "Ghost Dish",
		"price":    "1.00",
		"category": enum.CategoryMain,
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteMenuItem(t *testing.T) {
	item := menuItemFixture("Mineral Water", "2.50", enum.CategoryDrink)
	store := &mockMenuStore{items: map[uuid.UUID]database.MenuItem{item.ID: item}}
	router := setupMenuRouter(store, t.TempDir())

	rec := doJSON(t, router, http.MethodDelete, "/menu/"+item.ID.String(), "", nil)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(store.deleted) != 1 || store.deleted[0] != item.ID {
		t.Errorf("deleted: got %v, want [%s]", store.deleted, item.ID)
	}
}
