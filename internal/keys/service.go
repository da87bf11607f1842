package keys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/store"
)

// ErrNotFound covers every validation or lookup failure: malformed secret,
// unknown secret, revoked key, missing record, and records owned by someone
// else. Collapsing these denies callers an oracle.
var ErrNotFound = store.ErrNotFound

// ErrInvalidName is returned when a key name is empty or longer than 100
// characters.
var ErrInvalidName = errors.New("key name must be 1-100 characters")

// QuotaError is returned when an account has reached its plan's
// active-key limit. Limit is surfaced in the user-facing message.
type QuotaError struct {
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("api key limit reached (%d)", e.Limit)
}

// Service is the single implementation of credential state transitions.
// Every route layer and the CLI go through it; nothing else writes
// api_keys rows.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// NewService creates a key service over the given store.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Create issues a new credential for ownerID. It returns the plaintext
// secret exactly once, alongside the persisted record. The secret is never
// logged and never retrievable again. The quota check against the owner's
// plan and the insert happen in one store transaction.
func (s *Service) Create(ctx context.Context, ownerID, name string) (string, *model.APIKey, error) {
	if len(name) == 0 || len(name) > 100 {
		return "", nil, ErrInvalidName
	}

	acct, err := s.store.GetAccount(ctx, ownerID)
	if err != nil {
		return "", nil, fmt.Errorf("resolve owner: %w", err)
	}
	limit := model.KeyLimitFor(acct.Plan)

	secret, err := Generate()
	if err != nil {
		return "", nil, err
	}

	key := &model.APIKey{
		OwnerID:       ownerID,
		Name:          name,
		SecretDigest:  Digest(secret),
		DisplayPrefix: DisplayPrefix(secret),
		IsActive:      true,
	}

	if err := s.store.CreateAPIKey(ctx, key, limit); err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			return "", nil, &QuotaError{Limit: limit}
		}
		return "", nil, fmt.Errorf("persist key: %w", err)
	}

	s.logger.Info("api key created", "key_id", key.ID, "owner_id", ownerID, "prefix", key.DisplayPrefix)
	return secret, key, nil
}

// Validate resolves a presented secret to its active credential. It fails
// closed: malformed input, unknown digests, and revoked keys all return
// ErrNotFound with no distinction. On success the last_used_at touch runs
// synchronously but best-effort; a failed touch does not fail validation.
func (s *Service) Validate(ctx context.Context, secret string) (*model.APIKey, error) {
	if !wellFormed(secret) {
		return nil, ErrNotFound
	}

	key, err := s.store.GetActiveAPIKeyByDigest(ctx, Digest(secret))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup key: %w", err)
	}

	if err := s.store.TouchAPIKey(ctx, key.ID); err != nil {
		s.logger.Warn("last-used touch failed", "key_id", key.ID, "error", err)
	}

	return key, nil
}

// List returns the owner's credentials, newest first, as display views:
// no digest, no secret.
func (s *Service) List(ctx context.Context, ownerID string) ([]model.APIKeyView, error) {
	recs, err := s.store.ListAPIKeysByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	views := make([]model.APIKeyView, len(recs))
	for i := range recs {
		views[i] = recs[i].View()
	}
	return views, nil
}

// Revoke deactivates a credential. Owner-scoped; returns ErrNotFound for
// both missing and not-owned keys. Idempotent for already-revoked keys.
func (s *Service) Revoke(ctx context.Context, id, ownerID string) error {
	if err := s.store.RevokeAPIKey(ctx, id, ownerID); err != nil {
		return err
	}
	s.logger.Info("api key revoked", "key_id", id, "owner_id", ownerID)
	return nil
}

// Delete hard-removes a credential. Same scoping as Revoke.
func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.store.DeleteAPIKey(ctx, id, ownerID); err != nil {
		return err
	}
	s.logger.Info("api key deleted", "key_id", id, "owner_id", ownerID)
	return nil
}
