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

// CreatePermission inserts a new permission-request record.
func (s *Store) CreatePermission(ctx context.Context, p *model.Permission) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = model.PermissionPending
	}
	p.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO permissions
		(id, key_id, payload_json, status, deep_link, expires_at, created_at)
		VALUES
		(:id, :key_id, :payload_json, :status, :deep_link, :expires_at, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, p); err != nil {
		return fmt.Errorf("insert permission: %w", err)
	}
	return nil
}

// GetPermission returns a permission by ID, scoped to the requesting key.
func (s *Store) GetPermission(ctx context.Context, id, keyID string) (*model.Permission, error) {
	var p model.Permission
	q := s.rebind("SELECT * FROM permissions WHERE id = ? AND key_id = ?")
	if err := s.db.GetContext(ctx, &p, q, id, keyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get permission: %w", err)
	}
	return &p, nil
}

// ListPermissions returns all permission records created by a key, newest first.
func (s *Store) ListPermissions(ctx context.Context, keyID string) ([]model.Permission, error) {
	var perms []model.Permission
	q := s.rebind("SELECT * FROM permissions WHERE key_id = ? ORDER BY created_at DESC")
	if err := s.db.SelectContext(ctx, &perms, q, keyID); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// DeletePermission removes a permission record. Deleting a missing record
// is not an error; the route is idempotent.
func (s *Store) DeletePermission(ctx context.Context, id, keyID string) error {
	q := s.rebind("DELETE FROM permissions WHERE id = ? AND key_id = ?")
	if _, err := s.db.ExecContext(ctx, q, id, keyID); err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}
