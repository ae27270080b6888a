package cmd

import (
	"net/http"

	"nexus-admin-backend/internal/config"
	"nexus-admin-backend/internal/handlers"
	"nexus-admin-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (a *app) router(cfg *config.Config) http.Handler {
	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(a.coord)
	consoleHandler := handlers.NewConsoleHandler(a.coord)
	userHandler := handlers.NewUserHandler(a.coord)
	paymentHandler := handlers.NewPaymentHandler(a.coord, cfg.Receipts.MaxBytes)
	wsHandler := handlers.NewWebSocketHandler(a.hub, a.coord, a.session, originChecker(cfg.CORS.AllowedOrigins))

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", consoleHandler.Health)
		r.Post("/session/login", sessionHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(a.session))

			r.Post("/session/logout", sessionHandler.Logout)
			r.Get("/state", consoleHandler.GetState)
			r.Get("/dashboard", consoleHandler.GetDashboard)
			r.Put("/view", consoleHandler.SetView)

			r.Get("/users", userHandler.ListUsers)
			r.Delete("/users/{user_id}", userHandler.DeleteUser)
			r.Post("/editor", userHandler.OpenEditor)
			r.Patch("/editor", userHandler.UpdateEditor)
			r.Post("/editor/save", userHandler.SaveEditor)
			r.Delete("/editor", userHandler.CloseEditor)

			r.Get("/payments", paymentHandler.ListPayments)
			r.Post("/processor", paymentHandler.OpenProcessor)
			r.Post("/processor/receipt", paymentHandler.UploadReceipt)
			r.Delete("/processor/receipt", paymentHandler.ClearReceipt)
			r.Post("/processor/decision", paymentHandler.Decide)
			r.Delete("/processor", paymentHandler.CloseProcessor)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// originChecker accepts WebSocket upgrades from the configured CORS origins
func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return nil
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}
