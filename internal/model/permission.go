package model

import "time"

// Permission statuses.
const (
	PermissionPending = "pending"
	PermissionGranted = "granted"
	PermissionRevoked = "revoked"
)

// Permission represents a wallet-permission request created through the API.
// The permission payload is opaque to the server; it is stored as submitted
// and echoed back in the ERC-7715 request envelope.
type Permission struct {
	ID          string    `json:"id" db:"id"`
	KeyID       string    `json:"-" db:"key_id"`
	PayloadJSON string    `json:"-" db:"payload_json"`
	Status      string    `json:"status" db:"status"`
	DeepLink    string    `json:"deepLink" db:"deep_link"`
	ExpiresAt   time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Transaction statuses. Execution is mocked: transactions are recorded and
// immediately marked confirmed without touching a chain.
const (
	TxConfirmed = "confirmed"
)

// Transaction represents one (mock) executed transaction intent.
type Transaction struct {
	ID        string    `json:"id" db:"id"`
	KeyID     string    `json:"-" db:"key_id"`
	Hash      string    `json:"hash" db:"tx_hash"`
	ChainID   int64     `json:"chainId" db:"chain_id"`
	To        string    `json:"to" db:"to_addr"`
	Value     string    `json:"value" db:"value"`
	Data      string    `json:"data,omitempty" db:"data"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
