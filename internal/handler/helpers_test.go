package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// parseExpiry tests
// ---------------------------------------------------------------------------

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		expiry string
		want   int
	}{
		{"30d", 30},
		{"1d", 1},
		{"365d", 365},
		{"12h", 1},
		{"1h", 1},
		{"2w", 14},
		{"1w", 7},
		{"1m", 30},
		{"3m", 90},
		{"", 30},
		{"garbage", 30},
		{"0d", 30},
		{"-5d", 30},
		{"30", 30},
		{"d30", 30},
		{"30y", 30},
	}
	for _, tt := range tests {
		if got := parseExpiry(tt.expiry); got != tt.want {
			t.Errorf("parseExpiry(%q) = %d, want %d", tt.expiry, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// validEmail tests
// ---------------------------------------------------------------------------

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"dev@example.com", true},
		{"a@b.co", true},
		{"first.last@sub.example.com", true},
		{"", false},
		{"no-at-sign", false},
		{"@example.com", false},
		{"dev@", false},
		{"dev@localhost", false},
	}
	for _, tt := range tests {
		if got := validEmail(tt.email); got != tt.want {
			t.Errorf("validEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Query helper tests
// ---------------------------------------------------------------------------

func TestQueryInt(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"/v1/events?limit=50", 50},
		{"/v1/events", 20},
		{"/v1/events?limit=", 20},
		{"/v1/events?limit=abc", 20},
		{"/v1/events?limit=-3", -3},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.url, nil)
		if got := queryInt(r, "limit", 20); got != tt.want {
			t.Errorf("queryInt(%q) = %d, want %d", tt.url, got, tt.want)
		}
	}
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 1, 10, 5},
		{0, 1, 10, 1},
		{11, 1, 10, 10},
		{1, 1, 10, 1},
		{10, 1, 10, 10},
	}
	for _, tt := range tests {
		if got := clampInt(tt.val, tt.min, tt.max); got != tt.want {
			t.Errorf("clampInt(%d, %d, %d) = %d, want %d", tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Transaction helper tests
// ---------------------------------------------------------------------------

func TestMockTxHash(t *testing.T) {
	a, err := mockTxHash()
	if err != nil {
		t.Fatalf("mockTxHash: %v", err)
	}
	if !strings.HasPrefix(a, "0x") || len(a) != 66 {
		t.Errorf("hash = %q, want 0x plus 64 hex chars", a)
	}

	b, err := mockTxHash()
	if err != nil {
		t.Fatalf("mockTxHash: %v", err)
	}
	if a == b {
		t.Error("two generated hashes are identical")
	}
}

// ---------------------------------------------------------------------------
// Deep link tests
// ---------------------------------------------------------------------------

func TestDeepLinkEscapesPayload(t *testing.T) {
	link := deepLink([]byte(`{"method":"wallet_grantPermissions"}`))

	if !strings.HasPrefix(link, "https://metamask.app.link/dapp/request?payload=") {
		t.Errorf("link = %q, want metamask prefix", link)
	}
	if strings.ContainsAny(strings.TrimPrefix(link, "https://metamask.app.link/dapp/request?payload="), `{}" `) {
		t.Error("payload is not URL-escaped")
	}
}
