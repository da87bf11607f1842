package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walletpilot/pilot/internal/model"
)

// CreateAPIKey inserts a new API key record, enforcing the owner's
// active-key quota. The count and the insert run in one transaction,
// serialized per owner, so concurrent creates cannot both slip under the
// limit. The secret_digest must already be set; the raw secret never
// reaches the store.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey, maxActive int) error {
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	key.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Under read committed, two transactions could otherwise count the
	// same active total and both insert. Locking the owner row serializes
	// them. SQLite has no FOR UPDATE; its single write connection already
	// serializes transactions.
	if s.driver == "postgres" {
		var ownerID string
		lockQ := tx.Rebind("SELECT id FROM accounts WHERE id = ? FOR UPDATE")
		if err := tx.GetContext(ctx, &ownerID, lockQ, key.OwnerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock owner: %w", err)
		}
	}

	var active int
	countQ := tx.Rebind("SELECT COUNT(*) FROM api_keys WHERE owner_id = ? AND is_active = ?")
	if err := tx.GetContext(ctx, &active, countQ, key.OwnerID, true); err != nil {
		return fmt.Errorf("count active api keys: %w", err)
	}
	if active >= maxActive {
		return ErrQuotaExceeded
	}

	const insertQ = `INSERT INTO api_keys
		(id, owner_id, name, secret_digest, display_prefix, is_active, created_at)
		VALUES
		(:id, :owner_id, :name, :secret_digest, :display_prefix, :is_active, :created_at)`

	if _, err := tx.NamedExecContext(ctx, insertQ, key); err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}

	return tx.Commit()
}

// GetActiveAPIKeyByDigest looks up an active API key by its SHA-256 digest.
// Revoked and deleted keys never match.
func (s *Store) GetActiveAPIKeyByDigest(ctx context.Context, digest string) (*model.APIKey, error) {
	var key model.APIKey
	q := s.rebind("SELECT * FROM api_keys WHERE secret_digest = ? AND is_active = ?")
	if err := s.db.GetContext(ctx, &key, q, digest, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key by digest: %w", err)
	}
	return &key, nil
}

// ListAPIKeysByOwner returns all of an owner's keys, newest first.
func (s *Store) ListAPIKeysByOwner(ctx context.Context, ownerID string) ([]model.APIKey, error) {
	var keys []model.APIKey
	q := s.rebind("SELECT * FROM api_keys WHERE owner_id = ? ORDER BY created_at DESC")
	if err := s.db.SelectContext(ctx, &keys, q, ownerID); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// CountAPIKeys returns the total number of keys across all owners.
func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM api_keys"); err != nil {
		return 0, fmt.Errorf("count api keys: %w", err)
	}
	return n, nil
}

// CountActiveAPIKeys returns the number of active keys for an owner.
func (s *Store) CountActiveAPIKeys(ctx context.Context, ownerID string) (int, error) {
	var n int
	q := s.rebind("SELECT COUNT(*) FROM api_keys WHERE owner_id = ? AND is_active = ?")
	if err := s.db.GetContext(ctx, &n, q, ownerID, true); err != nil {
		return 0, fmt.Errorf("count active api keys: %w", err)
	}
	return n, nil
}

// RevokeAPIKey marks a key inactive. Owner-scoped: a mismatched owner is
// reported as ErrNotFound, same as a missing key. Revoking an already
// inactive key succeeds.
func (s *Store) RevokeAPIKey(ctx context.Context, id, ownerID string) error {
	q := s.rebind("UPDATE api_keys SET is_active = ? WHERE id = ? AND owner_id = ?")
	result, err := s.db.ExecContext(ctx, q, false, id, ownerID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAPIKey hard-removes a key. Same ownership scoping as RevokeAPIKey.
func (s *Store) DeleteAPIKey(ctx context.Context, id, ownerID string) error {
	q := s.rebind("DELETE FROM api_keys WHERE id = ? AND owner_id = ?")
	result, err := s.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchAPIKey sets the last_used_at timestamp for a key.
func (s *Store) TouchAPIKey(ctx context.Context, id string) error {
	q := s.rebind("UPDATE api_keys SET last_used_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
