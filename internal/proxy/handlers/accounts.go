package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/claude-nexus/internal/account"
	"github.com/pysugar/claude-nexus/internal/auth/token"
	"github.com/pysugar/claude-nexus/internal/logging"
)

// AccountView is the JSON shape returned for one account. Tokens are never
// exposed; only expiry and validity state.
type AccountView struct {
	Email          string     `json:"email"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	TokenValid     bool       `json:"token_valid"`
	IsInvalid      bool       `json:"is_invalid"`
	InvalidReason  string     `json:"invalid_reason,omitempty"`
}

// AccountsAPIHandler returns the account list as JSON, in store order.
func AccountsAPIHandler(store *account.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts := store.Load()

		views := make([]AccountView, 0, len(accounts))
		for _, acc := range accounts {
			views = append(views, AccountView{
				Email:          acc.Email,
				TokenExpiresAt: acc.TokenExpiresAt,
				TokenValid:     !token.NeedsRefresh(&acc, 0),
				IsInvalid:      acc.IsInvalid,
				InvalidReason:  acc.InvalidReason,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"accounts": views,
			"count":    len(views),
		})
	}
}

// RefreshAccountHandler force-refreshes the token for a specific account.
func RefreshAccountHandler(orch *token.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")

		if err := orch.RefreshAccount(r.Context(), email); err != nil {
			http.Error(w, "Refresh failed: "+err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// RemoveAccountHandler handles DELETE /api/accounts/{email}.
func RemoveAccountHandler(store *account.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		if email == "" {
			http.Error(w, "Missing account email", http.StatusBadRequest)
			return
		}

		if err := store.Remove(email); err != nil {
			http.Error(w, "Failed to remove account: "+err.Error(), http.StatusInternalServerError)
			return
		}
		log.Printf("🗑️ [%s] Removed account: %s", logging.GetRequestID(r.Context()), email)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}
