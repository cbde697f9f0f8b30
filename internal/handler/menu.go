package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/brasserie-pos/api/internal/database"
	"github.com/brasserie-pos/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// maxImageBytes caps uploaded menu item images at 5 MiB.
const maxImageBytes = 5 << 20

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// MenuHandler handles menu item CRUD, including image uploads.
type MenuHandler struct {
	store     MenuStore
	uploadDir string
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore, uploadDir string) *MenuHandler {
	return &MenuHandler{store: store, uploadDir: uploadDir}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Mutations are expected to be mounted behind the manager role gate.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterManagerRoutes registers the mutating menu endpoints.
func (h *MenuHandler) RegisterManagerRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

// menuItemInput is the decoded form or JSON body of a create/update.
// Available defaults to true on create when omitted.
type menuItemInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       string  `json:"price"`
	Category    string  `json:"category"`
	Available   *bool   `json:"available"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	Available   bool      `json:"available"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: textOrNil(m.Description),
		Price:       numericToString(m.Price),
		Category:    m.Category,
		Available:   m.Available,
		ImageURL:    textOrNil(m.ImageUrl),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// --- Handlers ---

// List returns the full menu, ordered by category then name.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single menu item by ID.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create adds a menu item. Accepts JSON, or multipart/form-data when an
// image is attached.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, imageURL, err := h.decodeMenuItemBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	price, err := validateMenuItemInput(input)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	available := true
	if input.Available != nil {
		available = *input.Available
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Name:        input.Name,
		Description: textFromPtr(input.Description),
		Price:       decimalToNumeric(price),
		Category:    input.Category,
		Available:   available,
		ImageUrl:    imageURL,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item name already taken"})
			return
		}
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update replaces a menu item's fields. The stored image is kept unless a
// new one is uploaded.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	input, imageURL, err := h.decodeMenuItemBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	price, err := validateMenuItemInput(input)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// An omitted available field keeps the stored value: an innocuous
	// edit must not re-enable a disabled item
	var available pgtype.Bool
	if input.Available != nil {
		available = pgtype.Bool{Bool: *input.Available, Valid: true}
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		Name:        input.Name,
		Description: textFromPtr(input.Description),
		Price:       decimalToNumeric(price),
		Category:    input.Category,
		Available:   available,
		ImageUrl:    imageURL,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item name already taken"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete removes a menu item. Existing order lines keep their snapshot of
// the item's name and price.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	if _, err := h.store.DeleteMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Body decoding ---

// decodeMenuItemBody reads the request body as either JSON or multipart
// form data. When multipart, an optional "image" file is saved under the
// upload directory and its public URL is returned.
func (h *MenuHandler) decodeMenuItemBody(r *http.Request) (menuItemInput, pgtype.Text, error) {
	var input menuItemInput
	var imageURL pgtype.Text

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageBytes + 1<<20); err != nil {
			return input, imageURL, fmt.Errorf("invalid multipart form")
		}

		input.Name = r.FormValue("name")
		input.Price = r.FormValue("price")
		input.Category = r.FormValue("category")
		if desc := r.FormValue("description"); desc != "" {
			input.Description = &desc
		}
		if avail := r.FormValue("available"); avail != "" {
			parsed, err := strconv.ParseBool(avail)
			if err != nil {
				return input, imageURL, fmt.Errorf("invalid available value")
			}
			input.Available = &parsed
		}

		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			url, err := h.saveImage(file, header)
			if err != nil {
				return input, imageURL, err
			}
			imageURL = pgtype.Text{String: url, Valid: true}
		} else if !errors.Is(err, http.ErrMissingFile) {
			return input, imageURL, fmt.Errorf("invalid image upload")
		}

		return input, imageURL, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return input, imageURL, fmt.Errorf("invalid request body")
	}
	return input, imageURL, nil
}

// saveImage writes an uploaded image into the upload directory and returns
// the URL it will be served from.
func (h *MenuHandler) saveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > maxImageBytes {
		return "", fmt.Errorf("image exceeds 5 MiB limit")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
	default:
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("menu_%d%s", time.Now().UnixNano(), ext)
	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxImageBytes)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	return "/uploads/" + name, nil
}

func validateMenuItemInput(input menuItemInput) (decimal.Decimal, error) {
	if input.Name == "" {
		return decimal.Zero, fmt.Errorf("name is required")
	}
	if !isValidCategory(input.Category) {
		return decimal.Zero, fmt.Errorf("invalid category")
	}

	price, err := decimal.NewFromString(input.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price")
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price must not be negative")
	}
	return price, nil
}

func isValidCategory(category string) bool {
	switch category {
	case enum.CategoryStarter, enum.CategoryMain, enum.CategoryDessert, enum.CategoryDrink:
		return true
	}
	return false
}

// --- Helpers shared across handlers ---

func textOrNil(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
