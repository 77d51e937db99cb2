package token

import (
	"context"
	"time"

	"github.com/pysugar/claude-nexus/internal/auth/google"
	"golang.org/x/oauth2"
)

// GoogleExchanger exchanges refresh tokens against the Google OAuth endpoint
// using the shared Antigravity client config.
type GoogleExchanger struct{}

// NewGoogleExchanger returns the production exchange collaborator.
func NewGoogleExchanger() *GoogleExchanger {
	return &GoogleExchanger{}
}

// ExchangeRefreshToken implements Exchanger. Provider errors are returned
// as-is so the sweep can classify them by message.
func (g *GoogleExchanger) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*Result, error) {
	config := google.GetOAuthConfig("")
	source := config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	tok, err := source.Token()
	if err != nil {
		return nil, err
	}

	result := &Result{
		AccessToken: tok.AccessToken,
		ExpiresIn:   int64(time.Until(tok.Expiry).Seconds()),
	}
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		result.RefreshToken = tok.RefreshToken
	}
	return result, nil
}
