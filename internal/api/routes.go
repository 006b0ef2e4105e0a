package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/optin-service/internal/pkg/httputil"
)

// SetupRoutes configures the public HTTP surface.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// The subscribe and contact forms are embedded on third-party sites, so
	// the origin is open. Preflight requests are answered by this handler.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/subscribe", h.Subscribe)
	r.Get("/confirm", h.Confirm)
	r.Post("/contact", h.Contact)

	// Everything else, wrong method or unknown path alike, is 405
	r.NotFound(methodNotAllowed)
	r.MethodNotAllowed(methodNotAllowed)

	return r
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.Text(w, http.StatusMethodNotAllowed, "Method not allowed")
}
