// Package upstream talks to the CloudCode backend. For the credential and
// tier-resolution core, the only call that matters is the model catalog
// fetch; request translation lives with the proxy handlers.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pysugar/claude-nexus/internal/catalog"
	"github.com/pysugar/claude-nexus/internal/util"
)

// BaseURLs are tried in order, falling back on 429/5xx (daily → prod → sandbox).
var BaseURLs = []string{
	"https://daily-cloudcode-pa.googleapis.com/v1internal",
	"https://cloudcode-pa.googleapis.com/v1internal",
	"https://daily-cloudcode-pa.sandbox.googleapis.com/v1internal",
}

// UserAgent mimics Antigravity's user agent (must match windows/amd64 for compatibility)
const UserAgent = "antigravity/1.11.9 windows/amd64"

// ClientMetadata carries the client identity headers CloudCode expects.
var ClientMetadata = map[string]string{
	"ideType":    "IDE_UNSPECIFIED",
	"platform":   "PLATFORM_UNSPECIFIED",
	"pluginType": "GEMINI",
}

// Client handles communication with the CloudCode API.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new upstream client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchAvailableModels retrieves the live model catalog for an access token
// and returns it in the raw shape the normalizer consumes. Any transport,
// auth, or parse failure is an error; callers degrade to the fallback
// catalog, never to an empty one.
func (c *Client) FetchAvailableModels(ctx context.Context, accessToken string) (catalog.RawCatalog, error) {
	resp, err := c.doRequestWithFallback(ctx, "fetchAvailableModels", accessToken, map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetchAvailableModels returned %d: %s", resp.StatusCode, util.TruncateBytes(bytes.TrimSpace(body)))
	}

	var payload struct {
		Models []struct {
			ModelID     string `json:"modelId"`
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
			QuotaInfo   *struct {
				RemainingFraction *float64 `json:"remainingFraction"`
			} `json:"quotaInfo"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse fetchAvailableModels response: %w", err)
	}

	raw := make(catalog.RawCatalog, len(payload.Models))
	for _, m := range payload.Models {
		id := m.ModelID
		if id == "" {
			id = m.Name
		}
		if id == "" {
			// Malformed entry, drop rather than crash downstream.
			continue
		}
		entry := catalog.RawModel{DisplayName: m.DisplayName}
		if m.QuotaInfo != nil {
			entry.RemainingFraction = m.QuotaInfo.RemainingFraction
		}
		raw[id] = entry
	}
	return raw, nil
}

// doRequestWithFallback tries all endpoints, falling back on 429/5xx errors.
func (c *Client) doRequestWithFallback(ctx context.Context, method, accessToken string, payload interface{}) (*http.Response, error) {
	var lastErr error
	for _, base := range BaseURLs {
		url := fmt.Sprintf("%s:%s", base, method)
		resp, err := c.doRequest(ctx, url, accessToken, payload)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if delay := ParseRetryDelay(resp); delay > 0 {
				log.Printf("⚠️ %s returned %d (retry in %s), trying next endpoint", base, resp.StatusCode, delay)
			} else {
				log.Printf("⚠️ %s returned %d, trying next endpoint", base, resp.StatusCode)
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("%s returned %d", base, resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("all endpoints failed: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, url, accessToken string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", UserAgent)

	return c.httpClient.Do(req)
}
