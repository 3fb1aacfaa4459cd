package handlers

import (
	"io"
	"net/http"

	"stylesnap/internal/middleware"
	"stylesnap/internal/providers/stripe"
)

const maxWebhookBytes = 1 << 20

// StripeWebhook is the pushed confirmation path. The raw body is verified
// against the shared webhook secret before anything is parsed; a completed
// checkout event credits the ledger through the same idempotent operation
// the verify path uses, so duplicate deliveries cannot double-credit.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	event, err := stripe.ConstructEvent(body, r.Header.Get("Stripe-Signature"), a.webhookSecret(), stripe.DefaultTolerance)
	if err != nil {
		a.Logger.Warn().
			Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("webhook signature rejected")
		a.error(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	if event.Type == stripe.EventCheckoutCompleted {
		session, err := event.Session()
		if err != nil {
			a.error(w, http.StatusBadRequest, "Invalid payload")
			return
		}
		userID, credits, err := purchaseMetadata(session.Metadata)
		if err != nil {
			a.Logger.Error().Err(err).Str("session_id", session.ID).Msg("webhook session has unusable metadata")
			a.error(w, http.StatusBadRequest, "Invalid payload")
			return
		}

		country := middleware.ResolveCountry(r, a.Country)
		balance, credited, err := a.Ledger.CreditPurchase(r.Context(), session.ID, userID, credits, country)
		if err != nil {
			a.providerError(w, r, err)
			return
		}
		if credited {
			a.Logger.Info().
				Str("session_id", session.ID).
				Str("user_id", userID).
				Int("credits", credits).
				Int("balance", balance).
				Msg("purchase credited via webhook")
		} else {
			a.Logger.Debug().Str("session_id", session.ID).Msg("webhook for already credited session")
		}
		a.cachePaidSession(r, session.ID, userID, credits)
	}

	a.json(w, http.StatusOK, map[string]bool{"received": true})
}
