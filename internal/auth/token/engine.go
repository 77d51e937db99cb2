// Package token owns the credential lifecycle: deciding when access tokens
// are due, exchanging refresh tokens, classifying failures, and sweeping
// the whole account set.
package token

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pysugar/claude-nexus/internal/db/models"
)

// DefaultRefreshThreshold is how close to expiry a token may get before a
// sweep refreshes it.
const DefaultRefreshThreshold = 5 * time.Minute

// InvalidReasonRevoked is recorded on accounts whose refresh token the
// authorization server rejected permanently.
const InvalidReasonRevoked = "Refresh token expired or revoked"

// ErrNoRefreshToken is returned without contacting the authorization server
// when an account has nothing to exchange.
var ErrNoRefreshToken = errors.New("no refresh token available")

// Result is a successful token exchange. RefreshToken is non-empty only when
// the provider rotated it.
type Result struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

// Exchanger trades a refresh token for a fresh access token. Implementations
// return the provider error unmodified so callers can classify it.
type Exchanger interface {
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (*Result, error)
}

// NeedsRefresh reports whether an account's access token is missing an
// expiry or expires within threshold. Pure predicate; never mutates.
// A nil expiry deliberately counts as already expired: accounts whose
// provider returns no expiry metadata are refreshed on every sweep.
func NeedsRefresh(acc *models.Account, threshold time.Duration) bool {
	if acc.TokenExpiresAt == nil {
		return true
	}
	return time.Until(*acc.TokenExpiresAt) < threshold
}

// Engine performs a single refresh for one account.
type Engine struct {
	exchanger Exchanger
}

// NewEngine creates an engine backed by the given exchange collaborator.
func NewEngine(exchanger Exchanger) *Engine {
	return &Engine{exchanger: exchanger}
}

// Refresh exchanges the account's refresh token. Accounts without a refresh
// token fail immediately with ErrNoRefreshToken; the authorization server is
// never contacted for them. Exchange errors pass through unmodified.
func (e *Engine) Refresh(ctx context.Context, acc *models.Account) (*Result, error) {
	if acc.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	return e.exchanger.ExchangeRefreshToken(ctx, acc.RefreshToken)
}

// IsTerminalRefreshError reports whether a refresh failure means the refresh
// token is permanently unusable. Anything else is transient and worth
// retrying on the next sweep.
func IsTerminalRefreshError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	terminalMarkers := []string{
		"invalid_grant",
		"bad request",
	}
	for _, marker := range terminalMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
