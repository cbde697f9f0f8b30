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
	"github.com/jackc/pgx/v5"
)

// --- Mock Store ---

type mockUserStore struct {
	users   []database.User
	deleted []uuid.UUID
}

func (m *mockUserStore) ListUsers(ctx context.Context) ([]database.User, error) {
	return m.users, nil
}

func (m *mockUserStore) DeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	for _, u := range m.users {
		if u.ID == id {
			m.deleted = append(m.deleted, id)
			return id, nil
		}
	}
	return uuid.Nil, pgx.ErrNoRows
}

// --- Test Helpers ---

func setupUserRouter(store handler.UserStore) http.Handler {
	h := handler.NewUserHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Use(middleware.RequireRole(enum.UserRoleManager))
	r.Route("/users", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestListUsersExcludesPasswordHash(t *testing.T) {
	store := &mockUserStore{
		users: []database.User{
			userFixture(t, "alice", enum.UserRoleServer, "secret123"),
			userFixture(t, "bob", enum.UserRoleCook, "secret123"),
		},
	}
	router := setupUserRouter(store)

	token := tokenFor(t, uuid.New(), "boss", enum.UserRoleManager)
	rec := doJSON(t, router, http.MethodGet, "/users", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("users: got %d, want 2", len(resp))
	}
	for _, u := range resp {
		if _, leaked := u["hashed_password"]; leaked {
			t.Error("hashed_password leaked in response")
		}
	}
	if resp[0]["name"] != "alice" || resp[1]["role"] != enum.UserRoleCook {
		t.Errorf("users: got %+v", resp)
	}
}

func TestListUsersForbiddenForServers(t *testing.T) {
	router := setupUserRouter(&mockUserStore{})

	token := tokenFor(t, uuid.New(), "alice", enum.UserRoleServer)
	rec := doJSON(t, router, http.MethodGet, "/users", token, nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestDeleteUser(t *testing.T) {
	user := userFixture(t, "alice", enum.UserRoleServer, "secret123")
	store := &mockUserStore{users: []database.User{user}}
	router := setupUserRouter(store)

	token := tokenFor(t, uuid.New(), "boss", enum.UserRoleManager)
	rec := doJSON(t, router, http.MethodDelete, "/users/"+user.ID.String(), token, nil)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(store.deleted) != 1 || store.deleted[0] != user.ID {
		t.Errorf("deleted: got %v, want [%s]", store.deleted, user.ID)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	router := setupUserRouter(&mockUserStore{})

	token := tokenFor(t, uuid.New(), "boss", enum.UserRoleManager)
	rec := doJSON(t, router, http.MethodDelete, "/users/"+uuid.New().String(), token, nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteUserInvalidID(t *testing.T) {
	router := setupUserRouter(&mockUserStore{})

	token := tokenFor(t, uuid.New(), "boss", enum.UserRoleManager)
	rec := doJSON(t, router, http.MethodDelete, "/users/not-a-uuid", token, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
