package model

import "time"

// APIKey represents an issued credential. The raw key is never stored; only
// a SHA-256 digest and a short prefix for identification are persisted.
type APIKey struct {
	ID            string     `json:"id" db:"id"`
	OwnerID       string     `json:"owner_id" db:"owner_id"`
	Name          string     `json:"name" db:"name"`
	SecretDigest  string     `json:"-" db:"secret_digest"`       // SHA-256 hex, never expose
	DisplayPrefix string     `json:"prefix" db:"display_prefix"` // "wp_abc1234..." for UI display
	IsActive      bool       `json:"is_active" db:"is_active"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// APIKeyView is the owner-facing projection of an APIKey. It carries no
// digest field at all, so a serialization bug cannot leak it.
type APIKeyView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// View returns the display projection of the key.
func (k *APIKey) View() APIKeyView {
	return APIKeyView{
		ID:         k.ID,
		Name:       k.Name,
		Prefix:     k.DisplayPrefix,
		LastUsedAt: k.LastUsedAt,
		IsActive:   k.IsActive,
		CreatedAt:  k.CreatedAt,
	}
}
