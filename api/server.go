/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/documents/*   Document lifecycle, balances, payments, audit
  /api/payments/*    Payment edit and soft-delete
  /api/parties/*     Party management and ledger history
  /api/health        Liveness probe

SECURITY NOTE:
  No authentication middleware currently. Actor attribution comes from
  trusted frontend headers; all endpoints are otherwise public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-Name", "X-Actor-Role"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Document routes
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.ListDocuments)
			r.Post("/", h.CreateDocument)
			r.Get("/{id}", h.GetDocument)
			r.Put("/{id}", h.UpdateDocument)
			r.Post("/{id}/cancel", h.CancelDocument)
			r.Post("/{id}/reactivate", h.ReactivateDocument)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/audit", h.GetAudit)
			r.Post("/{id}/repair", h.RepairDocument)
			r.Get("/{id}/payments", h.ListPayments)
			r.Post("/{id}/payments", h.CreatePayment)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Put("/{id}", h.UpdatePayment)
			r.Delete("/{id}", h.DeletePayment)
		})

		// Party routes
		r.Route("/parties", func(r chi.Router) {
			r.Get("/", h.ListParties)
			r.Post("/", h.CreateParty)
			r.Get("/{id}/ledger", h.GetPartyLedger)
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
