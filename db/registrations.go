// ABOUTME: Webhook registration database operations
// ABOUTME: Persists consumer endpoints keyed by Intercom app id
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tylercowie/intercomconnector/models"
)

// RegistrationStore provides webhook registration persistence on SQLite.
type RegistrationStore struct {
	db *sql.DB
}

func NewRegistrationStore(db *sql.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

// FindRegistrations returns the registrations of an app subscribed to at
// least one of the given source types. No types means no matches.
func (s *RegistrationStore) FindRegistrations(ctx context.Context, appID string, types []models.SourceType) ([]models.WebhookRegistration, error) {
	if len(types) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, app_id, url, types, created_at, updated_at
		FROM webhook_registrations
		WHERE app_id = ?
		ORDER BY created_at
	`, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook registrations: %w", err)
	}
	defer rows.Close()

	var registrations []models.WebhookRegistration
	for rows.Next() {
		reg, err := scanRegistration(rows.Scan)
		if err != nil {
			return nil, err
		}
		if reg.HasType(types) {
			registrations = append(registrations, *reg)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read webhook registrations: %w", err)
	}
	return registrations, nil
}

func (s *RegistrationStore) InsertRegistration(ctx context.Context, reg *models.WebhookRegistration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_registrations (id, app_id, url, types, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, reg.ID.String(), reg.AppID, reg.URL, joinTypes(reg.Types), reg.CreatedAt, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert webhook registration: %w", err)
	}
	return nil
}

func (s *RegistrationStore) UpdateRegistration(ctx context.Context, reg *models.WebhookRegistration) error {
	reg.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE webhook_registrations
		SET app_id = ?, url = ?, types = ?, updated_at = ?
		WHERE id = ?
	`, reg.AppID, reg.URL, joinTypes(reg.Types), reg.UpdatedAt, reg.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update webhook registration: %w", err)
	}
	return nil
}

func (s *RegistrationStore) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM webhook_registrations WHERE id = ?
	`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete webhook registration: %w", err)
	}
	return nil
}

func scanRegistration(scan func(dest ...any) error) (*models.WebhookRegistration, error) {
	reg := &models.WebhookRegistration{}
	var id, types string

	if err := scan(&id, &reg.AppID, &reg.URL, &types, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan webhook registration: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook registration id: %w", err)
	}
	reg.ID = parsed
	reg.Types = splitTypes(types)
	return reg, nil
}

func joinTypes(types []models.SourceType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func splitTypes(raw string) []models.SourceType {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	types := make([]models.SourceType, len(parts))
	for i, p := range parts {
		types[i] = models.SourceType(p)
	}
	return types
}
