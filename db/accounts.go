// ABOUTME: Account database operations
// ABOUTME: Stores validated workspace tokens so public routes can resolve them
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tylercowie/intercomconnector/models"
)

// AccountStore persists validated accounts keyed by Intercom admin id. The
// conversation image route carries only an account id, so the token has to
// be resolvable server-side.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) SetByID(ctx context.Context, id string, account models.Account) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, token, app_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, app_id = excluded.app_id, updated_at = excluded.updated_at
	`, id, account.Token, account.IntercomAppID, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	account := &models.Account{AccountID: id}
	var appID sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT token, app_id FROM accounts WHERE id = ?
	`, id).Scan(&account.Token, &appID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	account.IntercomAppID = appID.String
	return account, nil
}
