package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"stylesnap/internal/cache"
	"stylesnap/internal/infra"
	"stylesnap/internal/ledger"
	"stylesnap/internal/middleware"
	"stylesnap/internal/providers/replicate"
	"stylesnap/internal/providers/stripe"
	"stylesnap/internal/storage"
)

// ImageGenerator is the slice of the generation provider the handlers use.
type ImageGenerator interface {
	Generate(ctx context.Context, input replicate.GenerationInput) ([]string, error)
}

// CheckoutProvider is the slice of the payment provider the handlers use.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error)
	CheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Config   *infra.Config
	Logger   zerolog.Logger
	Ledger   *ledger.Ledger
	Images   ImageGenerator
	Payments CheckoutProvider
	Uploads  storage.UploadStore
	Sessions *cache.Cache // optional, nil when Redis is not configured
	Country  middleware.CountryLookup
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes the flat {"error": ...} body the frontend alerts with.
func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

// providerError maps an external provider failure to a 500 with the
// underlying message passed through for the client alert.
func (a *App) providerError(w http.ResponseWriter, r *http.Request, err error) {
	a.Logger.Error().
		Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("provider call failed")
	a.json(w, http.StatusInternalServerError, map[string]string{
		"error":   "Internal server error",
		"message": err.Error(),
	})
}

func (a *App) generateTimeout() time.Duration {
	if a.Config != nil && a.Config.GenerateTimeout > 0 {
		return a.Config.GenerateTimeout
	}
	return 120 * time.Second
}

func (a *App) webhookSecret() string {
	if a.Config == nil {
		return ""
	}
	return a.Config.StripeWebhookSecret
}

func (a *App) frontendURL() string {
	if a.Config == nil || a.Config.FrontendURL == "" {
		return "http://localhost:5173"
	}
	return a.Config.FrontendURL
}
