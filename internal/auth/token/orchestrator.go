package token

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pysugar/claude-nexus/internal/account"
)

// RunOptions controls one refresh sweep.
type RunOptions struct {
	// Force refreshes every refreshable account regardless of expiry.
	Force bool
	// Quiet suppresses per-account log lines; counts are still returned.
	Quiet bool
}

// Summary aggregates one sweep's outcome. InvalidAccounts lists the emails
// that now require re-authentication, including ones already invalid before
// the sweep.
type Summary struct {
	Refreshed       int      `json:"refreshed"`
	Failed          int      `json:"failed"`
	Skipped         int      `json:"skipped"`
	InvalidAccounts []string `json:"invalid_accounts"`
}

// Orchestrator sweeps all accounts through the refresh engine and persists
// the result as one whole-store write. Sweeps are serialized: the in-process
// ticker and an HTTP- or CLI-triggered run never interleave.
type Orchestrator struct {
	store     *account.Store
	engine    *Engine
	threshold time.Duration

	mu sync.Mutex
}

// NewOrchestrator wires the orchestrator. A non-positive threshold falls
// back to DefaultRefreshThreshold.
func NewOrchestrator(store *account.Store, engine *Engine, threshold time.Duration) *Orchestrator {
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	return &Orchestrator{store: store, engine: engine, threshold: threshold}
}

// RunRefresh sweeps every account sequentially in store order, then persists
// the full mutated set exactly once. Per-account failures never abort the
// sweep; they are reported through the summary. The returned error covers
// only the final persistence step.
func (o *Orchestrator) RunRefresh(ctx context.Context, opts RunOptions) (*Summary, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	accounts := o.store.Load()
	summary := &Summary{InvalidAccounts: []string{}}

	if len(accounts) == 0 {
		if !opts.Quiet {
			log.Printf("ℹ️ No accounts configured, nothing to refresh")
		}
		return summary, nil
	}

	for i := range accounts {
		acc := &accounts[i]

		if acc.IsInvalid {
			// Needs re-authentication; never retried automatically.
			summary.Skipped++
			summary.InvalidAccounts = append(summary.InvalidAccounts, acc.Email)
			if !opts.Quiet {
				log.Printf("🔒 %s requires re-login (%s)", acc.Email, acc.InvalidReason)
			}
			continue
		}

		if !opts.Force && !NeedsRefresh(acc, o.threshold) {
			summary.Skipped++
			if !opts.Quiet {
				log.Printf("⏭️ %s token still valid, skipping", acc.Email)
			}
			continue
		}

		result, err := o.engine.Refresh(ctx, acc)
		if err != nil {
			summary.Failed++
			if IsTerminalRefreshError(err) {
				acc.IsInvalid = true
				acc.InvalidReason = InvalidReasonRevoked
				summary.InvalidAccounts = append(summary.InvalidAccounts, acc.Email)
				if !opts.Quiet {
					log.Printf("❌ Refresh failed for %s: %v. Account marked invalid, please re-login.", acc.Email, err)
				}
				continue
			}
			// Transient: leave the record untouched, retry next sweep.
			if !opts.Quiet {
				log.Printf("⏳ Transient refresh failure for %s: %v", acc.Email, err)
			}
			continue
		}

		acc.AccessToken = result.AccessToken
		expiresAt := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
		acc.TokenExpiresAt = &expiresAt
		acc.IsInvalid = false
		acc.InvalidReason = ""
		if result.RefreshToken != "" && result.RefreshToken != acc.RefreshToken {
			// Persist rotated refresh token if provided (RFC 6749 compliance)
			if !opts.Quiet {
				log.Printf("🔄 Rotating refresh token for: %s", acc.Email)
			}
			acc.RefreshToken = result.RefreshToken
		}
		summary.Refreshed++
		if !opts.Quiet {
			log.Printf("✅ Refreshed token for: %s (expires: %s)", acc.Email, expiresAt.Format(time.RFC3339))
		}
	}

	// One write for the whole sweep. A crash mid-loop leaves the store
	// exactly as it was before the run.
	if err := o.store.Save(accounts); err != nil {
		return summary, err
	}

	if !opts.Quiet {
		log.Printf("🔄 Refresh sweep done: %d refreshed, %d failed, %d skipped", summary.Refreshed, summary.Failed, summary.Skipped)
	}
	return summary, nil
}

// RefreshAccount force-refreshes one account by email and persists the full
// set once. Invalid accounts are rejected; they need a fresh login, not a
// retry.
func (o *Orchestrator) RefreshAccount(ctx context.Context, email string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	accounts := o.store.Load()
	for i := range accounts {
		acc := &accounts[i]
		if acc.Email != email {
			continue
		}
		if acc.IsInvalid {
			return fmt.Errorf("account %s requires re-login: %s", email, acc.InvalidReason)
		}

		result, err := o.engine.Refresh(ctx, acc)
		if err != nil {
			if IsTerminalRefreshError(err) {
				acc.IsInvalid = true
				acc.InvalidReason = InvalidReasonRevoked
				if saveErr := o.store.Save(accounts); saveErr != nil {
					return saveErr
				}
			}
			return err
		}

		acc.AccessToken = result.AccessToken
		expiresAt := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
		acc.TokenExpiresAt = &expiresAt
		acc.IsInvalid = false
		acc.InvalidReason = ""
		if result.RefreshToken != "" {
			acc.RefreshToken = result.RefreshToken
		}
		log.Printf("✅ Refreshed token for: %s (expires: %s)", acc.Email, expiresAt.Format(time.RFC3339))
		return o.store.Save(accounts)
	}
	return fmt.Errorf("account not found: %s", email)
}

// StartRefreshLoop runs periodic sweeps until ctx is cancelled. It reuses
// the exact entrypoint external schedulers call, keeping "when to refresh"
// separate from "how to refresh".
func (o *Orchestrator) StartRefreshLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := o.RunRefresh(ctx, RunOptions{}); err != nil {
					log.Printf("⚠️ Scheduled refresh sweep failed to persist: %v", err)
				}
			}
		}
	}()
	log.Printf("🔄 Token refresh loop started (interval: %s)", interval)
}
