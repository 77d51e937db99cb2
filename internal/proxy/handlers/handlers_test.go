package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/claude-nexus/internal/account"
	"github.com/pysugar/claude-nexus/internal/auth/token"
	"github.com/pysugar/claude-nexus/internal/catalog"
	"github.com/pysugar/claude-nexus/internal/db"
	"github.com/pysugar/claude-nexus/internal/db/models"
	"gorm.io/gorm"
)

// fakeFetcher returns a scripted catalog or error regardless of token.
type fakeFetcher struct {
	raw catalog.RawCatalog
	err error
}

func (f *fakeFetcher) FetchAvailableModels(ctx context.Context, accessToken string) (catalog.RawCatalog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

// scriptedExchanger for driving the orchestrator through HTTP handlers.
type scriptedExchanger struct {
	results map[string]*token.Result
}

func (s *scriptedExchanger) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*token.Result, error) {
	if res, ok := s.results[refreshToken]; ok {
		return res, nil
	}
	return nil, errors.New("invalid_grant")
}

func newTestEnv(t *testing.T) (*gorm.DB, *account.Store) {
	t.Helper()
	database, err := db.InitDB(filepath.Join(t.TempDir(), "nexus.db"))
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return database, account.NewStore(database)
}

func floatPtr(f float64) *float64 { return &f }

func TestAccountsAPIHandler(t *testing.T) {
	_, store := newTestEnv(t)
	later := time.Now().Add(time.Hour)
	seed := []models.Account{
		{ID: "id-1", Email: "ok@example.com", AccessToken: "secret-token", RefreshToken: "rt", TokenExpiresAt: &later},
		{ID: "id-2", Email: "bad@example.com", IsInvalid: true, InvalidReason: "Refresh token expired or revoked"},
	}
	if err := store.Save(seed); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	rec := httptest.NewRecorder()
	AccountsAPIHandler(store)(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Accounts []AccountView `json:"accounts"`
		Count    int           `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Count != 2 || len(resp.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %+v", resp)
	}
	if !resp.Accounts[0].TokenValid || resp.Accounts[0].IsInvalid {
		t.Fatalf("healthy account misreported: %+v", resp.Accounts[0])
	}
	if resp.Accounts[1].TokenValid || !resp.Accounts[1].IsInvalid {
		t.Fatalf("invalid account misreported: %+v", resp.Accounts[1])
	}
	if strings.Contains(rec.Body.String(), "secret-token") {
		t.Fatal("access tokens must never appear in API responses")
	}
}

func TestRefreshHandler(t *testing.T) {
	_, store := newTestEnv(t)
	if err := store.Save([]models.Account{{ID: "id-1", Email: "a@example.com", RefreshToken: "rt-a"}}); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	exchanger := &scriptedExchanger{results: map[string]*token.Result{
		"rt-a": {AccessToken: "fresh", ExpiresIn: 3600},
	}}
	orch := token.NewOrchestrator(store, token.NewEngine(exchanger), 0)

	rec := httptest.NewRecorder()
	RefreshHandler(orch)(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var summary token.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("invalid summary: %v", err)
	}
	if summary.Refreshed != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if got := store.Load()[0].AccessToken; got != "fresh" {
		t.Fatalf("refresh not persisted: %q", got)
	}
}

func TestRefreshAccountHandler_InvalidAccount(t *testing.T) {
	_, store := newTestEnv(t)
	seed := []models.Account{{ID: "id-1", Email: "bad@example.com", RefreshToken: "rt", IsInvalid: true, InvalidReason: "Refresh token expired or revoked"}}
	if err := store.Save(seed); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}
	orch := token.NewOrchestrator(store, token.NewEngine(&scriptedExchanger{}), 0)

	router := chi.NewRouter()
	router.Post("/api/accounts/{email}/refresh", RefreshAccountHandler(orch))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/accounts/bad@example.com/refresh", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "re-login") {
		t.Fatalf("error should point at re-login: %s", rec.Body.String())
	}
}

func TestModelsHandler_LiveCatalog(t *testing.T) {
	_, store := newTestEnv(t)
	later := time.Now().Add(time.Hour)
	if err := store.Save([]models.Account{{ID: "id-1", Email: "a@example.com", AccessToken: "at", RefreshToken: "rt", TokenExpiresAt: &later}}); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	fetcher := &fakeFetcher{raw: catalog.RawCatalog{
		"claude-sonnet-4-5": {DisplayName: "Claude Sonnet 4.5", RemainingFraction: floatPtr(0.9)},
	}}

	rec := httptest.NewRecorder()
	ModelsHandler(store, fetcher)(rec, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	var resp struct {
		Models []catalog.Model `json:"models"`
		Count  int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Count != 1 || resp.Models[0].ID != "claude-sonnet-4-5" {
		t.Fatalf("unexpected catalog: %+v", resp)
	}
}

func TestModelsHandler_FallsBackWithoutUsableAccount(t *testing.T) {
	_, store := newTestEnv(t)

	fetcher := &fakeFetcher{err: errors.New("should not be called")}
	rec := httptest.NewRecorder()
	ModelsHandler(store, fetcher)(rec, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	var resp struct {
		Models []catalog.Model `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp.Models) != len(catalog.FallbackCatalog()) {
		t.Fatalf("expected the static fallback list, got %d models", len(resp.Models))
	}
}

func TestTiersHandler_WithPin(t *testing.T) {
	database, store := newTestEnv(t)

	// Persist a pin for the sonnet tier.
	if err := database.Create(&models.TierRoute{Tier: "sonnet", TargetModel: "gemini-2.5-flash", IsActive: true}).Error; err != nil {
		t.Fatalf("failed to seed tier route: %v", err)
	}

	fetcher := &fakeFetcher{err: errors.New("backend down")}
	rec := httptest.NewRecorder()
	TiersHandler(store, fetcher, database)(rec, httptest.NewRequest(http.MethodGet, "/api/tiers", nil))

	var sel catalog.TierSelection
	if err := json.Unmarshal(rec.Body.Bytes(), &sel); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if sel.Opus != "claude-opus-4-5" {
		t.Errorf("opus = %q", sel.Opus)
	}
	if sel.Sonnet != "gemini-2.5-flash" {
		t.Errorf("sonnet pin not applied: %q", sel.Sonnet)
	}
	if sel.Haiku != "gemini-2.5-flash-lite" {
		t.Errorf("haiku = %q", sel.Haiku)
	}
}

func TestTierRouteHandlers(t *testing.T) {
	database, _ := newTestEnv(t)

	router := chi.NewRouter()
	router.Get("/api/tier-routes", TierRoutesHandler(database))
	router.Put("/api/tier-routes/{tier}", SetTierRouteHandler(database))
	router.Delete("/api/tier-routes/{tier}", DeleteTierRouteHandler(database))

	// Unknown tier rejected.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/tier-routes/turbo", strings.NewReader(`{"target_model":"x"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown tier: status = %d", rec.Code)
	}

	// Create a pin.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/tier-routes/haiku", strings.NewReader(`{"target_model":"claude-haiku-4-5"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("set pin: status = %d: %s", rec.Code, rec.Body.String())
	}

	// Update the same pin in place.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/tier-routes/haiku", strings.NewReader(`{"target_model":"gemini-2.5-flash-lite"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("update pin: status = %d", rec.Code)
	}

	pins := db.GetTierRoutes(database)
	if len(pins) != 1 || pins["haiku"] != "gemini-2.5-flash-lite" {
		t.Fatalf("pins = %v", pins)
	}

	// List includes the pin.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tier-routes", nil))
	var routes []models.TierRoute
	if err := json.Unmarshal(rec.Body.Bytes(), &routes); err != nil {
		t.Fatalf("invalid list: %v", err)
	}
	if len(routes) != 1 || routes[0].Tier != "haiku" {
		t.Fatalf("routes = %+v", routes)
	}

	// Delete, then delete again (404).
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/tier-routes/haiku", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/tier-routes/haiku", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status = %d, want 404", rec.Code)
	}
}
