package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pysugar/claude-nexus/internal/auth/token"
)

// RefreshHandler triggers a full refresh sweep. `?force=1` refreshes every
// refreshable account regardless of expiry. The sweep itself never fails;
// per-account outcomes come back in the summary.
func RefreshHandler(orch *token.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force := r.URL.Query().Get("force") == "1" || r.URL.Query().Get("force") == "true"

		summary, err := orch.RunRefresh(r.Context(), token.RunOptions{Force: force})
		if err != nil {
			http.Error(w, "Failed to persist refresh results: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}
