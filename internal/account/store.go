// Package account owns the durable set of OAuth account records. It is the
// only package that writes persisted account state.
package account

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pysugar/claude-nexus/internal/db/models"
	"gorm.io/gorm"
)

// Store reads and writes the full account set. Save always replaces the
// whole set; there are no partial-record updates.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store backed by an initialized database.
func NewStore(database *gorm.DB) *Store {
	return &Store{db: database}
}

// Load returns all accounts in store order. A missing or unreadable store is
// not an error: it degrades to an empty set so callers never have to handle
// load failures.
func (s *Store) Load() []models.Account {
	var accounts []models.Account
	if err := s.db.Order("position ASC").Find(&accounts).Error; err != nil {
		log.Printf("⚠️ Failed to load accounts, treating store as empty: %v", err)
		return []models.Account{}
	}
	return accounts
}

// Save replaces the persisted account set with the supplied one, in the
// supplied order, inside a single transaction. The caller owns the complete
// desired state; no merge is performed.
func (s *Store) Save(accounts []models.Account) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Account{}).Error; err != nil {
			return fmt.Errorf("failed to clear account set: %w", err)
		}
		for i := range accounts {
			accounts[i].Position = i
			if err := tx.Create(&accounts[i]).Error; err != nil {
				return fmt.Errorf("failed to persist account %s: %w", accounts[i].Email, err)
			}
		}
		return nil
	})
}

// Add inserts or replaces the record for an email, preserving the existing
// position (and ID) on replacement and appending new accounts at the end.
// Used by the OAuth add-account flow.
func (s *Store) Add(acc models.Account) error {
	accounts := s.Load()

	replaced := false
	for i := range accounts {
		if accounts[i].Email != acc.Email {
			continue
		}
		acc.ID = accounts[i].ID
		acc.Position = accounts[i].Position
		acc.CreatedAt = accounts[i].CreatedAt
		accounts[i] = acc
		replaced = true
		break
	}

	if !replaced {
		if acc.ID == "" {
			acc.ID = uuid.New().String()
		}
		acc.Position = len(accounts)
		acc.CreatedAt = time.Now()
		accounts = append(accounts, acc)
	}

	return s.Save(accounts)
}

// Remove deletes the record for an email. Removing an unknown email is a
// no-op.
func (s *Store) Remove(email string) error {
	accounts := s.Load()
	kept := accounts[:0]
	for _, acc := range accounts {
		if acc.Email != email {
			kept = append(kept, acc)
		}
	}
	return s.Save(kept)
}

// Clear removes every account.
func (s *Store) Clear() error {
	return s.Save(nil)
}
