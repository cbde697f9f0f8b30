package router

import (
	"net/http"

	"github.com/brasserie-pos/api/internal/config"
	"github.com/brasserie-pos/api/internal/database"
	"github.com/brasserie-pos/api/internal/enum"
	"github.com/brasserie-pos/api/internal/handler"
	mw "github.com/brasserie-pos/api/internal/middleware"
	"github.com/brasserie-pos/api/internal/service"
	"github.com/brasserie-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // Vite dev server
			"http://localhost:3000",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Uploaded menu item images
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Role-specific landing view
		dashboardHandler := handler.NewDashboardHandler(queries)
		r.Get("/dashboard", dashboardHandler.Get)

		// Menu: readable by all staff, mutable by managers only
		menuHandler := handler.NewMenuHandler(queries, cfg.UploadDir)
		r.Route("/menu", func(r chi.Router) {
			menuHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleManager))
				menuHandler.RegisterManagerRoutes(r)
			})
		})

		// Orders
		newOrderStore := func(db database.DBTX) service.OrderStore {
			return database.New(db)
		}
		orderService := service.NewOrderService(pool, newOrderStore)
		orderHandler := handler.NewOrderHandler(orderService, queries, hub)
		r.Route("/orders", func(r chi.Router) {
			takesOrders := mw.RequireRole(enum.UserRoleServer, enum.UserRoleManager)
			r.With(takesOrders).Post("/", orderHandler.Create)
			r.Get("/", orderHandler.List)
			r.Get("/{id}", orderHandler.Get)
			r.With(takesOrders).Put("/{id}", orderHandler.UpdateContent)
			// Cooks move orders to READY, servers to SERVED/PAID: every
			// role gets to update status
			r.Patch("/{id}/status", orderHandler.UpdateStatus)
		})

		// Manager-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleManager))

			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)

			reportHandler := handler.NewReportHandler(queries)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})
	})

	return r
}
