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

// CreateAccount inserts a new account. The ID (if empty), CreatedAt, and
// UpdatedAt fields on acct are populated before the insert.
func (s *Store) CreateAccount(ctx context.Context, acct *model.Account) error {
	now := time.Now().UTC()
	if acct.ID == "" {
		acct.ID = uuid.New().String()
	}
	if acct.Plan == "" {
		acct.Plan = model.PlanFree
	}
	acct.CreatedAt = now
	acct.UpdatedAt = now

	const q = `INSERT INTO accounts
		(id, email, password_hash, name, company, plan, is_active, created_at, updated_at)
		VALUES
		(:id, :email, :password_hash, :name, :company, :plan, :is_active, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, acct); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	var acct model.Account
	q := s.rebind("SELECT * FROM accounts WHERE id = ?")
	if err := s.db.GetContext(ctx, &acct, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}

// GetAccountByEmail returns an account by email address.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var acct model.Account
	q := s.rebind("SELECT * FROM accounts WHERE email = ?")
	if err := s.db.GetContext(ctx, &acct, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return &acct, nil
}

// ListAccounts returns all accounts ordered by email.
func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var accts []model.Account
	if err := s.db.SelectContext(ctx, &accts, "SELECT * FROM accounts ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accts, nil
}

// UpdateAccountProfile sets the mutable profile fields.
func (s *Store) UpdateAccountProfile(ctx context.Context, id, name, company string) error {
	q := s.rebind("UPDATE accounts SET name = ?, company = ?, updated_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, name, company, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update account profile: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account profile rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAccountLastLogin sets the last_login_at timestamp for an account.
func (s *Store) UpdateAccountLastLogin(ctx context.Context, id string) error {
	now := time.Now().UTC()
	q := s.rebind("UPDATE accounts SET last_login_at = ?, updated_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, now, now, id)
	if err != nil {
		return fmt.Errorf("update account last login: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account last login rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
