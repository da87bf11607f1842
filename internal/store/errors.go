package store

import "errors"

// ErrNotFound is returned when a requested record does not exist in the
// store, or exists but is not owned by the caller. The two cases are
// deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrQuotaExceeded is returned by CreateAPIKey when the owner already has
// the maximum number of active keys for their plan.
var ErrQuotaExceeded = errors.New("quota exceeded")
