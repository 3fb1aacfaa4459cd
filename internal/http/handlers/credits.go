package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Credits reports the balance for a user id. Unknown users read as zero (or
// the configured free-trial grant, since this first contact creates the
// account).
func (a *App) Credits(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		a.error(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	balance, err := a.Ledger.Balance(r.Context(), userID)
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"credits": balance})
}
