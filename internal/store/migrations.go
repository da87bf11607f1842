package store

import "fmt"

// migrate applies the schema. Statements are idempotent and portable across
// sqlite and postgres, which constrains the dialect: TEXT ids (UUIDs),
// TIMESTAMP columns, no auto-increment.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			plan TEXT NOT NULL DEFAULT 'free',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_login_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS api_keys (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			secret_digest TEXT UNIQUE NOT NULL,
			display_prefix TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_used_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_digest ON api_keys(secret_digest)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_owner ON api_keys(owner_id, is_active)`,

		`CREATE TABLE IF NOT EXISTS permissions (
			id TEXT PRIMARY KEY,
			key_id TEXT NOT NULL,
			payload_json TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'pending',
			deep_link TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_permissions_key ON permissions(key_id)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			key_id TEXT NOT NULL,
			tx_hash TEXT UNIQUE NOT NULL,
			chain_id BIGINT NOT NULL,
			to_addr TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '0',
			data TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_hash ON transactions(tx_hash)`,

		`CREATE TABLE IF NOT EXISTS telemetry_events (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			sdk_version TEXT NOT NULL,
			event_type TEXT NOT NULL,
			success BOOLEAN NOT NULL,
			error_type TEXT NOT NULL DEFAULT '',
			chain_id BIGINT,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_telemetry_created ON telemetry_events(created_at)`,

		`CREATE TABLE IF NOT EXISTS waitlist (
			email TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
