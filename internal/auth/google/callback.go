package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/pysugar/claude-nexus/internal/account"
	"github.com/pysugar/claude-nexus/internal/db/models"
)

// loginResult carries the account record plus display-only extras from a
// completed code exchange.
type loginResult struct {
	Account          models.Account
	ProjectID        string
	SubscriptionTier string
}

// completeLogin exchanges an authorization code, fetches the user identity
// and project info, and assembles the account record to store.
func completeLogin(ctx context.Context, redirectURL, code string) (*loginResult, error) {
	config := GetOAuthConfig(redirectURL)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	client := config.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	projectID, subscriptionTier := fetchProjectInfo(client)

	metadata, _ := json.Marshal(map[string]string{
		"project_id":        projectID,
		"name":              userInfo.Name,
		"subscription_tier": subscriptionTier,
	})

	expiry := token.Expiry
	return &loginResult{
		Account: models.Account{
			Email:          userInfo.Email,
			AccessToken:    token.AccessToken,
			RefreshToken:   token.RefreshToken,
			TokenExpiresAt: &expiry,
			Metadata:       string(metadata),
		},
		ProjectID:        projectID,
		SubscriptionTier: subscriptionTier,
	}, nil
}

// HandleCallback processes the OAuth callback from Google and stores the
// authenticated account. Re-authenticating an existing email replaces its
// record, which also clears any invalid flag.
func HandleCallback(store *account.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		if state != GetStateToken() {
			http.Error(w, "Invalid state token", http.StatusBadRequest)
			return
		}

		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		redirectURL := fmt.Sprintf("%s://%s/auth/google/callback", scheme, r.Host)

		result, err := completeLogin(r.Context(), redirectURL, r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := store.Add(result.Account); err != nil {
			http.Error(w, fmt.Sprintf("Failed to save account: %v", err), http.StatusInternalServerError)
			return
		}
		log.Printf("✅ Stored account: %s (project: %s, tier: %s)", result.Account.Email, result.ProjectID, result.SubscriptionTier)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta http-equiv="refresh" content="3;url=/">
	<title>Login Successful</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; background: #1a1a2e; color: #eee; }
		.success { color: #4ade80; }
		code { background: #374151; padding: 2px 6px; border-radius: 4px; color: #fbbf24; }
		.redirect { color: #9ca3af; margin-top: 20px; }
	</style>
</head>
<body>
	<h1 class="success">✅ Login Successful!</h1>
	<p><strong>Email:</strong> %s</p>
	<p><strong>Project ID:</strong> <code>%s</code></p>
	<p class="redirect">Redirecting in <span id="countdown">3</span> seconds...</p>
	<script>
		let sec = 3;
		setInterval(() => { if(sec > 0) document.getElementById('countdown').textContent = --sec; }, 1000);
		setTimeout(() => window.location.href = '/', 3000);
	</script>
</body>
</html>`, result.Account.Email, result.ProjectID)
	}
}

// fetchProjectInfo calls the loadCodeAssist endpoint to get project ID and subscription tier.
func fetchProjectInfo(client *http.Client) (projectID string, subscriptionTier string) {
	reqBody := strings.NewReader(`{"metadata": {"ideType": "ANTIGRAVITY"}}`)
	req, err := http.NewRequest("POST", "https://cloudcode-pa.googleapis.com/v1internal:loadCodeAssist", reqBody)
	if err != nil {
		log.Printf("⚠️ Failed to create loadCodeAssist request: %v", err)
		return defaultProjectID, "FREE"
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Host", "cloudcode-pa.googleapis.com")
	req.Header.Set("User-Agent", "antigravity/1.11.9 windows/amd64")

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("⚠️ loadCodeAssist API error: %v", err)
		return defaultProjectID, "FREE"
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("⚠️ Failed to read loadCodeAssist response: %v", err)
		return defaultProjectID, "FREE"
	}

	var result struct {
		CloudaicompanionProject string `json:"cloudaicompanionProject"`
		PaidTier                *struct {
			ID string `json:"id"`
		} `json:"paidTier"`
		CurrentTier *struct {
			ID string `json:"id"`
		} `json:"currentTier"`
		Config struct {
			ProjectID string `json:"projectId"`
		} `json:"codeAssistConfig"`
		ManageSubscriptionUri string `json:"manageSubscriptionUri"`
	}
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		log.Printf("⚠️ Failed to parse loadCodeAssist response: %v", err)
		return defaultProjectID, "FREE"
	}

	projectID = result.CloudaicompanionProject
	if projectID == "" {
		projectID = result.Config.ProjectID
	}
	if projectID == "" {
		projectID = defaultProjectID
	}

	// Tier detection: prefer paidTier > currentTier > manageSubscriptionUri > FREE
	switch {
	case result.PaidTier != nil && result.PaidTier.ID != "":
		subscriptionTier = result.PaidTier.ID
	case result.CurrentTier != nil && result.CurrentTier.ID != "":
		subscriptionTier = result.CurrentTier.ID
	case result.ManageSubscriptionUri != "":
		subscriptionTier = "PRO"
	default:
		subscriptionTier = "FREE"
	}

	log.Printf("📊 ProjectID: %s, Tier: %s", projectID, subscriptionTier)
	return projectID, subscriptionTier
}

const defaultProjectID = "bamboo-precept-lgxtn"
