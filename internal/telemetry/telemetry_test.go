package telemetry

import (
	"context"
	"errors"
	"testing"
)

// fakeSettings is an in-memory SettingsStore.
type fakeSettings struct {
	values map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: make(map[string]string)}
}

func (f *fakeSettings) GetSetting(ctx context.Context, key string) (string, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func (f *fakeSettings) SetSetting(ctx context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

func noProps() Properties { return Properties{} }

// ---------------------------------------------------------------------------
// Opt-out tests
// ---------------------------------------------------------------------------

func TestNewDisabledByEnv(t *testing.T) {
	for _, val := range []string{"0", "false", "off"} {
		t.Setenv("PILOT_TELEMETRY", val)
		if tr := New(context.Background(), newFakeSettings(), noProps); tr != nil {
			t.Errorf("PILOT_TELEMETRY=%s: New returned a tracker, want nil", val)
		}
	}
}

func TestNewDisabledBySetting(t *testing.T) {
	settings := newFakeSettings()
	settings.values["telemetry.enabled"] = "false"

	if tr := New(context.Background(), settings, noProps); tr != nil {
		t.Error("telemetry.enabled=false: New returned a tracker, want nil")
	}
}

func TestNewEnabledByDefault(t *testing.T) {
	if tr := New(context.Background(), newFakeSettings(), noProps); tr == nil {
		t.Error("New returned nil with no opt-out configured")
	}
}

// ---------------------------------------------------------------------------
// Nil-safety tests
// ---------------------------------------------------------------------------

func TestNilTrackerIsSafe(t *testing.T) {
	// Callers hold a nil *Tracker when telemetry is off; every method must
	// be a no-op rather than a panic.
	var tr *Tracker
	tr.Start()
	tr.Shutdown()
}

// ---------------------------------------------------------------------------
// Instance ID tests
// ---------------------------------------------------------------------------

func TestInstanceIDPersists(t *testing.T) {
	ctx := context.Background()
	settings := newFakeSettings()

	first := resolveInstanceID(ctx, settings)
	if first == "" {
		t.Fatal("resolveInstanceID returned empty ID")
	}

	second := resolveInstanceID(ctx, settings)
	if second != first {
		t.Errorf("second resolve = %q, want %q (stable across restarts)", second, first)
	}
}

func TestInstanceIDNilStore(t *testing.T) {
	if id := resolveInstanceID(context.Background(), nil); id == "" {
		t.Error("resolveInstanceID(nil store) returned empty ID")
	}
}
