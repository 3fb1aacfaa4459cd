package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"stylesnap/internal/http/handlers"
	"stylesnap/internal/middleware"
)

// NewRouter wires the full HTTP surface. Every response carries the
// permissive CORS headers; unmatched routes and methods get structured JSON
// errors instead of chi's plain-text defaults.
func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer(app.Logger))
	r.Use(middleware.CORS)
	r.Use(middleware.Logger(app.Logger, app.Country))
	if app.Config != nil && app.Config.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
	}

	r.NotFound(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		writeJSONError(w, stdhttp.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		writeJSONError(w, stdhttp.StatusNotFound, "Not found")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.Health)
		r.Get("/credits/{userId}", app.Credits)

		r.Route("/generate", func(r chi.Router) {
			r.Post("/text", app.GenerateText)
			r.Post("/image", app.GenerateImage)
		})

		r.Route("/purchase", func(r chi.Router) {
			r.Post("/create-checkout", app.CreateCheckout)
			r.Get("/verify/{sessionId}", app.VerifyPurchase)
		})

		r.Post("/webhooks/stripe", app.StripeWebhook)
	})

	return r
}

func writeJSONError(w stdhttp.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
