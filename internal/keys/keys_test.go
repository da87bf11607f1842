package keys

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Generate tests
// ---------------------------------------------------------------------------

func TestGenerateFormat(t *testing.T) {
	secret, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.HasPrefix(secret, "wp_") {
		t.Errorf("secret = %q, want wp_ prefix", secret)
	}
	// 24 bytes encode to 32 unpadded base64url characters.
	if len(secret) != len(Prefix)+32 {
		t.Errorf("len(secret) = %d, want %d", len(secret), len(Prefix)+32)
	}
	if strings.ContainsAny(secret[len(Prefix):], "+/=") {
		t.Errorf("secret %q contains non-url-safe or padding characters", secret)
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		secret, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[secret] {
			t.Fatalf("duplicate secret after %d generations", i)
		}
		seen[secret] = true
	}
}

// ---------------------------------------------------------------------------
// DisplayPrefix tests
// ---------------------------------------------------------------------------

func TestDisplayPrefix(t *testing.T) {
	secret := "wp_abcdefghijklmnopqrstuvwxyz012345"

	got := DisplayPrefix(secret)
	want := "wp_abcdefgh..."
	if got != want {
		t.Errorf("DisplayPrefix = %q, want %q", got, want)
	}
}

func TestDisplayPrefixShortInput(t *testing.T) {
	// Inputs at or below the prefix length are returned whole; the marker
	// still signals truncation to the UI.
	got := DisplayPrefix("wp_short")
	if got != "wp_short..." {
		t.Errorf("DisplayPrefix = %q, want %q", got, "wp_short...")
	}
}

func TestDisplayPrefixDoesNotLeakSecret(t *testing.T) {
	secret, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	prefix := DisplayPrefix(secret)
	if strings.Contains(prefix, secret) {
		t.Error("display prefix contains the full secret")
	}
	if len(prefix) != displayPrefixLen+3 {
		t.Errorf("len(prefix) = %d, want %d", len(prefix), displayPrefixLen+3)
	}
}

// ---------------------------------------------------------------------------
// Digest tests
// ---------------------------------------------------------------------------

func TestDigestDeterministic(t *testing.T) {
	secret := "wp_abcdefghijklmnopqrstuvwxyz012345"

	d1 := Digest(secret)
	d2 := Digest(secret)
	if d1 != d2 {
		t.Errorf("digest not deterministic: %q != %q", d1, d2)
	}
	if len(d1) != 64 {
		t.Errorf("len(digest) = %d, want 64 hex chars", len(d1))
	}
	if strings.ToLower(d1) != d1 {
		t.Errorf("digest %q is not lowercase hex", d1)
	}
}

func TestDigestDiffersPerSecret(t *testing.T) {
	a, _ := Generate()
	b, _ := Generate()
	if Digest(a) == Digest(b) {
		t.Error("different secrets produced the same digest")
	}
}

func TestDigestKnownVector(t *testing.T) {
	// SHA-256("wp_test") pinned so the storage format can never drift
	// silently; stored digests would be orphaned by a change here.
	got := Digest("wp_test")
	want := "2e270b1d32afc0be579fe82e1ad60bf8ac2b6d8aa7aa79e42d5fd07646597f4b"
	if got != want {
		t.Errorf("Digest(\"wp_test\") = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// wellFormed tests
// ---------------------------------------------------------------------------

func TestWellFormed(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"wp_abcdefghijklmnopqrstuvwxyz012345", true},
		{"wp_x", true},
		{"wp_", false},
		{"", false},
		{"sk_abcdefghijklmnopqrstuvwxyz012345", false},
		{"WP_abcdefghijklmnopqrstuvwxyz012345", false},
		{"abcdefwp_ghijkl", false},
	}

	for _, tt := range tests {
		if got := wellFormed(tt.secret); got != tt.want {
			t.Errorf("wellFormed(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
