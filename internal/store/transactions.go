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

// CreateTransaction inserts a new transaction record.
func (s *Store) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO transactions
		(id, key_id, tx_hash, chain_id, to_addr, value, data, status, created_at)
		VALUES
		(:id, :key_id, :tx_hash, :chain_id, :to_addr, :value, :data, :status, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, t); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetTransactionByHash returns a transaction by its hash, scoped to the
// requesting key.
func (s *Store) GetTransactionByHash(ctx context.Context, hash, keyID string) (*model.Transaction, error) {
	var t model.Transaction
	q := s.rebind("SELECT * FROM transactions WHERE tx_hash = ? AND key_id = ?")
	if err := s.db.GetContext(ctx, &t, q, hash, keyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// ListTransactions returns all transactions executed by a key, newest first.
func (s *Store) ListTransactions(ctx context.Context, keyID string) ([]model.Transaction, error) {
	var txs []model.Transaction
	q := s.rebind("SELECT * FROM transactions WHERE key_id = ? ORDER BY created_at DESC")
	if err := s.db.SelectContext(ctx, &txs, q, keyID); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
