package cli

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/walletpilot/pilot/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// PILOT_DATA_DIR env var, or ~/.pilot as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("PILOT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.pilot"
}

// openStore opens the configured store backend: sqlite in the data
// directory by default, or postgres when store.driver says so.
func openStore() (*store.Store, error) {
	driver := viper.GetString("store.driver")
	dsn := viper.GetString("store.dsn")
	if driver == "" || driver == "sqlite" {
		if dsn == "" {
			dsn = resolveDataDir()
		}
		return store.New("sqlite", dsn)
	}
	return store.New(driver, dsn)
}

// jwtSecret returns the configured session signing secret, falling back to
// a development default.
func jwtSecret() string {
	secret := viper.GetString("auth.jwt_secret")
	if secret == "" {
		secret = "pilot-dev-secret-change-me"
	}
	return secret
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
