package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/pysugar/claude-nexus/internal/account"
	"github.com/pysugar/claude-nexus/internal/auth/token"
	"github.com/pysugar/claude-nexus/internal/catalog"
	"github.com/pysugar/claude-nexus/internal/util"
	"gorm.io/gorm"

	"github.com/pysugar/claude-nexus/internal/db"
)

// CatalogFetcher fetches the live model catalog for an access token.
// *upstream.Client implements it; tests substitute fakes.
type CatalogFetcher interface {
	FetchAvailableModels(ctx context.Context, accessToken string) (catalog.RawCatalog, error)
}

// loadCatalog fetches and normalizes the live catalog using the first
// account with a non-expired token. Any failure (no accounts, no usable
// token, fetch error) degrades to the static fallback list.
func loadCatalog(ctx context.Context, store *account.Store, fetcher CatalogFetcher) []catalog.Model {
	for _, acc := range store.Load() {
		if acc.IsInvalid || token.NeedsRefresh(&acc, 0) {
			continue
		}
		raw, err := fetcher.FetchAvailableModels(ctx, acc.AccessToken)
		if err != nil {
			log.Printf("⚠️ Catalog fetch failed for %s (token %s): %v", acc.Email, util.MaskToken(acc.AccessToken), err)
			continue
		}
		return catalog.Normalize(raw)
	}
	return catalog.FallbackCatalog()
}

// ModelsHandler returns the normalized, quota-annotated model list.
func ModelsHandler(store *account.Store, fetcher CatalogFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models := loadCatalog(r.Context(), store, fetcher)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": models,
			"count":  len(models),
		})
	}
}

// TiersHandler resolves the default model per capability tier, with any
// persisted tier pins applied on top.
func TiersHandler(store *account.Store, fetcher CatalogFetcher, database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models := loadCatalog(r.Context(), store, fetcher)
		selection := catalog.ApplyRoutes(catalog.ResolveAllTiers(models), db.GetTierRoutes(database))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(selection)
	}
}
