package google

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pysugar/claude-nexus/internal/account"
)

const (
	// AntigravityCallbackPort is the preferred callback port (same as Antigravity IDE)
	AntigravityCallbackPort = 51121
	// CallbackTimeout is how long to wait for the OAuth callback
	CallbackTimeout = 5 * time.Minute
)

// OAuthCallbackResult contains the result of the OAuth flow
type OAuthCallbackResult struct {
	Email string
	Error error
}

// StartOAuthCallbackServer starts a temporary HTTP server to receive the OAuth
// callback for a CLI-initiated login. It tries port 51121 first (Antigravity
// IDE standard) and falls back to a random high port.
// Returns the actual port used, a channel delivering the single result, and a
// cleanup function.
func StartOAuthCallbackServer(store *account.Store) (actualPort int, resultChan <-chan OAuthCallbackResult, cleanup func(), err error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", AntigravityCallbackPort))
	if err != nil {
		listener, err = net.Listen("tcp", ":0")
		if err != nil {
			return 0, nil, nil, fmt.Errorf("failed to start callback server: %w", err)
		}
		log.Printf("⚠️ Port %d in use, using random port", AntigravityCallbackPort)
	}

	actualPort = listener.Addr().(*net.TCPAddr).Port
	log.Printf("🔑 Callback server listening on port %d", actualPort)

	resultChannel := make(chan OAuthCallbackResult, 1)

	mux := http.NewServeMux()
	srv := &http.Server{Handler: mux}

	callbackReceived := false

	mux.HandleFunc("/oauth-callback", func(w http.ResponseWriter, r *http.Request) {
		if callbackReceived {
			http.Error(w, "Callback already processed", http.StatusBadRequest)
			return
		}
		callbackReceived = true

		fail := func(status int, err error) {
			resultChannel <- OAuthCallbackResult{Error: err}
			http.Error(w, err.Error(), status)
		}

		if state := r.URL.Query().Get("state"); state != GetStateToken() {
			fail(http.StatusBadRequest, fmt.Errorf("invalid state token"))
			return
		}

		redirectURL := fmt.Sprintf("http://localhost:%d/oauth-callback", actualPort)
		result, err := completeLogin(r.Context(), redirectURL, r.URL.Query().Get("code"))
		if err != nil {
			fail(http.StatusInternalServerError, err)
			return
		}

		if err := store.Add(result.Account); err != nil {
			fail(http.StatusInternalServerError, fmt.Errorf("failed to save account: %w", err))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Login Successful</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; background: #1a1a2e; color: #eee; text-align: center; }
		.success { color: #4ade80; font-size: 24px; margin-bottom: 10px; }
		code { background: #374151; padding: 2px 6px; border-radius: 4px; color: #fbbf24; }
	</style>
</head>
<body>
	<div class="success">✅ Login Successful</div>
	<p>Account <strong>%s</strong> has been added.</p>
	<p>Project ID: <code>%s</code></p>
	<p>You can close this tab and return to the terminal.</p>
</body>
</html>`, result.Account.Email, result.ProjectID)

		resultChannel <- OAuthCallbackResult{Email: result.Account.Email}
	})

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Callback server error: %v", err)
		}
	}()

	var once sync.Once
	cleanup = func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Printf("⚠️ Error shutting down callback server: %v", err)
			}
			close(resultChannel)
		})
	}

	// Auto-cleanup after timeout
	go func() {
		time.Sleep(CallbackTimeout)
		if !callbackReceived {
			select {
			case resultChannel <- OAuthCallbackResult{Error: fmt.Errorf("OAuth callback timeout")}:
			default:
			}
		}
		cleanup()
	}()

	return actualPort, resultChannel, cleanup, nil
}
