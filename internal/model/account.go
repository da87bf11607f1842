package model

import "time"

// Plan limits: maximum number of active API keys per account tier.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// KeyLimits maps an account plan to its active-credential quota.
var KeyLimits = map[string]int{
	PlanFree:       2,
	PlanPro:        10,
	PlanEnterprise: 100,
}

// KeyLimitFor returns the quota for a plan, falling back to the free tier
// for unknown values. The plan is always read from the account record,
// never from caller input.
func KeyLimitFor(plan string) int {
	if limit, ok := KeyLimits[plan]; ok {
		return limit
	}
	return KeyLimits[PlanFree]
}

// Account represents a registered user account. Passwords are stored as
// bcrypt hashes.
type Account struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Name         string     `json:"name" db:"name"`
	Company      string     `json:"company" db:"company"`
	Plan         string     `json:"plan" db:"plan"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
