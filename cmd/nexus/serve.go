package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pysugar/claude-nexus/internal/auth/google"
	"github.com/pysugar/claude-nexus/internal/logging"
	"github.com/pysugar/claude-nexus/internal/proxy/handlers"
	"github.com/pysugar/claude-nexus/internal/proxy/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local management API and the scheduled refresh loop",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if google.IsUsingDefaultOAuthCredentials() {
		log.Printf("⚠️ Using built-in OAuth client credentials; set GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET to use your own")
	}

	// Scheduled sweeps share the orchestrator with the HTTP trigger; the
	// orchestrator serializes them.
	application.orch.StartRefreshLoop(ctx, application.cfg.RefreshInterval())

	r := chi.NewRouter()
	r.Use(logging.Middleware)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Optional admin auth (set NEXUS_ADMIN_PASSWORD to enable)
	adminPassword := os.Getenv("NEXUS_ADMIN_PASSWORD")
	optionalAdminAuth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminPassword == "" {
				next.ServeHTTP(w, r)
				return
			}
			_, pass, ok := r.BasicAuth()
			if !ok || pass != adminPassword {
				w.Header().Set("WWW-Authenticate", `Basic realm="Nexus Admin"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// OAuth add-account flow
	r.Get("/auth/google/login", google.HandleLogin)
	r.Get("/auth/google/callback", google.HandleCallback(application.store))

	// Management API (admin gate optional, API key required)
	r.Route("/api", func(r chi.Router) {
		r.Use(optionalAdminAuth)
		r.Use(middleware.APIKeyAuth(application.database))

		r.Get("/accounts", handlers.AccountsAPIHandler(application.store))
		r.Post("/accounts/{email}/refresh", handlers.RefreshAccountHandler(application.orch))
		r.Delete("/accounts/{email}", handlers.RemoveAccountHandler(application.store))

		r.Post("/refresh", handlers.RefreshHandler(application.orch))

		r.Get("/models", handlers.ModelsHandler(application.store, application.upstream))
		r.Get("/tiers", handlers.TiersHandler(application.store, application.upstream, application.database))

		r.Get("/tier-routes", handlers.TierRoutesHandler(application.database))
		r.Put("/tier-routes/{tier}", handlers.SetTierRouteHandler(application.database))
		r.Delete("/tier-routes/{tier}", handlers.DeleteTierRouteHandler(application.database))

		r.Get("/config/apikey", handlers.GetAPIKeyHandler(application.database))
		r.Post("/config/apikey/regenerate", handlers.RegenerateAPIKeyHandler(application.database))
	})

	addr := application.cfg.ListenAddr()
	log.Printf("🚀 Claude-Nexus starting on http://%s", addr)
	log.Printf("🔑 Add accounts: http://%s/auth/google/login", addr)
	log.Printf("📊 Accounts API: http://%s/api/accounts", addr)

	return http.ListenAndServe(addr, r)
}
