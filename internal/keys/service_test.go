package keys

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/store"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()

	st, err := store.New("sqlite", "")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, logger), st
}

func seedAccount(t *testing.T, st *store.Store, email, plan string) string {
	t.Helper()

	acct := &model.Account{
		Email:        email,
		PasswordHash: "$2a$10$irrelevant",
		Plan:         plan,
		IsActive:     true,
	}
	if err := st.CreateAccount(context.Background(), acct); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acct.ID
}

// ---------------------------------------------------------------------------
// Create tests
// ---------------------------------------------------------------------------

func TestCreateAndValidate(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	secret, key, err := svc.Create(ctx, ownerID, "SDK Key")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(secret, Prefix) {
		t.Errorf("secret = %q, want %q prefix", secret, Prefix)
	}
	if key.OwnerID != ownerID {
		t.Errorf("OwnerID = %q, want %q", key.OwnerID, ownerID)
	}
	if key.Name != "SDK Key" {
		t.Errorf("Name = %q, want %q", key.Name, "SDK Key")
	}
	if key.SecretDigest != Digest(secret) {
		t.Error("stored digest does not match the issued secret")
	}
	if !key.IsActive {
		t.Error("new key is not active")
	}
	if key.LastUsedAt != nil {
		t.Error("new key already has a last-used timestamp")
	}

	got, err := svc.Validate(ctx, secret)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ID != key.ID {
		t.Errorf("validated key ID = %q, want %q", got.ID, key.ID)
	}
}

func TestCreateInvalidName(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	for _, name := range []string{"", strings.Repeat("x", 101)} {
		if _, _, err := svc.Create(ctx, ownerID, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Create(name len %d) error = %v, want ErrInvalidName", len(name), err)
		}
	}

	// 100 characters is still a valid name.
	if _, _, err := svc.Create(ctx, ownerID, strings.Repeat("x", 100)); err != nil {
		t.Errorf("Create(name len 100): %v", err)
	}
}

func TestCreateUnknownOwner(t *testing.T) {
	svc, _ := newTestService(t)

	if _, _, err := svc.Create(context.Background(), "no-such-account", "Key"); err == nil {
		t.Fatal("Create with unknown owner succeeded")
	}
}

// ---------------------------------------------------------------------------
// Quota tests
// ---------------------------------------------------------------------------

func TestQuotaFreePlan(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	for i := 0; i < 2; i++ {
		if _, _, err := svc.Create(ctx, ownerID, "Key"); err != nil {
			t.Fatalf("Create #%d: %v", i+1, err)
		}
	}

	_, _, err := svc.Create(ctx, ownerID, "Key")
	var quotaErr *QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Create #3 error = %v, want *QuotaError", err)
	}
	if quotaErr.Limit != 2 {
		t.Errorf("QuotaError.Limit = %d, want 2", quotaErr.Limit)
	}
}

func TestQuotaProPlan(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "pro@example.com", model.PlanPro)

	// The free-tier cap does not apply to a pro account.
	for i := 0; i < 3; i++ {
		if _, _, err := svc.Create(ctx, ownerID, "Key"); err != nil {
			t.Fatalf("Create #%d: %v", i+1, err)
		}
	}
}

func TestRevokeFreesQuotaSlot(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	_, first, err := svc.Create(ctx, ownerID, "First")
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	if _, _, err := svc.Create(ctx, ownerID, "Second"); err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if _, _, err := svc.Create(ctx, ownerID, "Third"); err == nil {
		t.Fatal("Create over quota succeeded")
	}

	if err := svc.Revoke(ctx, first.ID, ownerID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, _, err := svc.Create(ctx, ownerID, "Third"); err != nil {
		t.Errorf("Create after revoke: %v", err)
	}
}

func TestConcurrentCreateHonorsQuota(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Create(ctx, ownerID, "Racer")
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 2 {
		t.Errorf("%d concurrent creates succeeded, want exactly 2", ok)
	}

	n, err := st.CountActiveAPIKeys(ctx, ownerID)
	if err != nil {
		t.Fatalf("CountActiveAPIKeys: %v", err)
	}
	if n != 2 {
		t.Errorf("active keys = %d, want 2", n)
	}
}

// ---------------------------------------------------------------------------
// Validate tests
// ---------------------------------------------------------------------------

func TestValidateFailsClosed(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	secret, key, err := svc.Create(ctx, ownerID, "Key")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"wrong prefix", "sk_" + secret[len(Prefix):]},
		{"bare prefix", "wp_"},
		{"unknown secret", "wp_0000000000000000000000000000000"},
		{"raw digest", key.SecretDigest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Validate(ctx, tt.secret); !errors.Is(err, ErrNotFound) {
				t.Errorf("Validate(%q) error = %v, want ErrNotFound", tt.secret, err)
			}
		})
	}
}

func TestValidateRevokedKey(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	secret, key, err := svc.Create(ctx, ownerID, "Key")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Revoke(ctx, key.ID, ownerID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	// A revoked key is indistinguishable from an unknown one.
	if _, err := svc.Validate(ctx, secret); !errors.Is(err, ErrNotFound) {
		t.Errorf("Validate(revoked) error = %v, want ErrNotFound", err)
	}
}

func TestValidateTouchesLastUsed(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	secret, _, err := svc.Create(ctx, ownerID, "Key")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Validate(ctx, secret); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	views, err := svc.List(ctx, ownerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("len(views) = %d, want 1", len(views))
	}
	if views[0].LastUsedAt == nil {
		t.Error("last-used timestamp not set after successful validation")
	}
}

// ---------------------------------------------------------------------------
// Ownership scoping tests
// ---------------------------------------------------------------------------

func TestRevokeAndDeleteAreOwnerScoped(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	aliceID := seedAccount(t, st, "alice@example.com", model.PlanFree)
	bobID := seedAccount(t, st, "bob@example.com", model.PlanFree)

	secret, key, err := svc.Create(ctx, aliceID, "Alice's Key")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Revoke(ctx, key.ID, bobID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner Revoke error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, key.ID, bobID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner Delete error = %v, want ErrNotFound", err)
	}

	// The key still works after the failed cross-owner attempts.
	if _, err := svc.Validate(ctx, secret); err != nil {
		t.Errorf("Validate after cross-owner attempts: %v", err)
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	secret, key, err := svc.Create(ctx, ownerID, "Key")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, key.ID, ownerID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.Validate(ctx, secret); !errors.Is(err, ErrNotFound) {
		t.Errorf("Validate after delete error = %v, want ErrNotFound", err)
	}
	views, err := svc.List(ctx, ownerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("len(views) = %d after delete, want 0", len(views))
	}
}

// ---------------------------------------------------------------------------
// List tests
// ---------------------------------------------------------------------------

func TestListNeverExposesDigest(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	ownerID := seedAccount(t, st, "dev@example.com", model.PlanFree)

	secret, key, err := svc.Create(ctx, ownerID, "Key")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	views, err := svc.List(ctx, ownerID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	raw, err := json.Marshal(views)
	if err != nil {
		t.Fatalf("marshal views: %v", err)
	}
	body := string(raw)
	if strings.Contains(body, key.SecretDigest) {
		t.Error("listed view contains the secret digest")
	}
	if strings.Contains(body, secret) {
		t.Error("listed view contains the raw secret")
	}
	if !strings.Contains(body, key.DisplayPrefix) {
		t.Error("listed view is missing the display prefix")
	}
}

func TestListIsScopedToOwner(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	aliceID := seedAccount(t, st, "alice@example.com", model.PlanFree)
	bobID := seedAccount(t, st, "bob@example.com", model.PlanFree)

	if _, _, err := svc.Create(ctx, aliceID, "Alice's Key"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	views, err := svc.List(ctx, bobID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("bob sees %d of alice's keys, want 0", len(views))
	}
}
