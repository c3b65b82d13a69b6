package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/contactkeep/contactkeep/internal/auth"
	"github.com/contactkeep/contactkeep/internal/config"
	"github.com/contactkeep/contactkeep/internal/contact"
	"github.com/contactkeep/contactkeep/internal/httputil"
	"github.com/contactkeep/contactkeep/internal/logging"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	contactHandler *contact.Handler,
	authMiddleware *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/confirm/{token}", authHandler.ConfirmEmail)
			r.Post("/request-confirm", authHandler.RequestConfirm)

			// Logout and avatar need an authenticated caller
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Patch("/avatar", authHandler.UpdateAvatar)
			})
		})

		// Contact routes (require authentication)
		r.Route("/contacts", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Post("/", contactHandler.Create)
			r.Get("/", contactHandler.List)
			r.Get("/search", contactHandler.Search)
			r.Get("/birthdays", contactHandler.Birthdays)
			r.Get("/{contactID}", contactHandler.GetByID)
			r.Put("/{contactID}", contactHandler.Update)
			r.Patch("/{contactID}/notes", contactHandler.ReplaceNotes)
			r.Delete("/{contactID}", contactHandler.Delete)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
