package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"stylesnap/internal/cache"
	"stylesnap/internal/middleware"
	"stylesnap/internal/providers/stripe"
)

type checkoutRequest struct {
	UserID  string  `json:"userId"`
	Credits int     `json:"credits"`
	Price   float64 `json:"price"`
}

// CreateCheckout opens a payment session for a credit package. The user id
// and credit quantity ride along as session metadata and come back on
// confirmation; nothing about the purchase is trusted from the client after
// this point.
func (a *App) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Credits <= 0 || req.Price <= 0 {
		a.error(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	session, err := a.Payments.CreateCheckoutSession(r.Context(), stripe.CheckoutParams{
		ProductName:        fmt.Sprintf("%d AI Generation Credits", req.Credits),
		ProductDescription: "Credits for AI image generation",
		UnitAmount:         int64(math.Round(req.Price * 100)),
		Quantity:           1,
		Currency:           "usd",
		SuccessURL:         a.frontendURL() + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          a.frontendURL() + "/",
		Metadata: map[string]string{
			"userId":  req.UserID,
			"credits": strconv.Itoa(req.Credits),
		},
	})
	if err != nil {
		a.providerError(w, r, err)
		return
	}

	a.json(w, http.StatusOK, map[string]string{
		"sessionId": session.ID,
		"url":       session.URL,
	})
}

// VerifyPurchase is the polled confirmation path: the success page calls it
// until the session reads as paid. Crediting goes through the same
// idempotent ledger operation as the webhook, so whichever path confirms
// first wins and the other is a no-op.
func (a *App) VerifyPurchase(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		a.error(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if cached, ok := a.Sessions.PaidSession(r.Context(), sessionID); ok {
		a.json(w, http.StatusOK, map[string]any{
			"success": true,
			"credits": cached.Credits,
			"userId":  cached.UserID,
		})
		return
	}

	session, err := a.Payments.CheckoutSession(r.Context(), sessionID)
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	if !session.Paid() {
		a.json(w, http.StatusOK, map[string]bool{"success": false})
		return
	}

	userID, credits, err := purchaseMetadata(session.Metadata)
	if err != nil {
		a.providerError(w, r, fmt.Errorf("session %s: %w", sessionID, err))
		return
	}

	country := middleware.ResolveCountry(r, a.Country)
	balance, credited, err := a.Ledger.CreditPurchase(r.Context(), sessionID, userID, credits, country)
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	if credited {
		a.Logger.Info().
			Str("session_id", sessionID).
			Str("user_id", userID).
			Int("credits", credits).
			Int("balance", balance).
			Msg("purchase credited via verify")
	}
	a.cachePaidSession(r, sessionID, userID, credits)

	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"credits": credits,
		"userId":  userID,
	})
}

func (a *App) cachePaidSession(r *http.Request, sessionID, userID string, credits int) {
	err := a.Sessions.MarkPaid(r.Context(), sessionID, cache.PaidSession{UserID: userID, Credits: credits})
	if err != nil {
		a.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to cache paid session")
	}
}

// purchaseMetadata parses the metadata this service attached at checkout
// creation. The values come back from the payment provider, not the client,
// so a parse failure means a malformed or foreign session.
func purchaseMetadata(md map[string]string) (string, int, error) {
	userID := strings.TrimSpace(md["userId"])
	if userID == "" {
		return "", 0, fmt.Errorf("metadata missing userId")
	}
	credits, err := strconv.Atoi(strings.TrimSpace(md["credits"]))
	if err != nil || credits <= 0 {
		return "", 0, fmt.Errorf("metadata has invalid credits %q", md["credits"])
	}
	return userID, credits, nil
}
