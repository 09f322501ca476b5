// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	app_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_app_id ON accounts(app_id);

CREATE TABLE IF NOT EXISTS webhook_registrations (
	id TEXT PRIMARY KEY,
	app_id TEXT NOT NULL,
	url TEXT NOT NULL,
	types TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_webhook_registrations_app_id ON webhook_registrations(app_id);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
