package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Pilot configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default pilot.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

const defaultConfig = `# Pilot Configuration

server:
  host: 0.0.0.0
  port: 8080
  cors_origins:
    - "*"

# Store backend: sqlite (embedded, default) or postgres
store:
  driver: sqlite
  dsn: ""  # sqlite: data directory; postgres: connection URL

# Authentication
auth:
  jwt_secret: ""    # Set via PILOT_AUTH_JWT_SECRET env var
  admin_secret: ""  # Guards GET /waitlist/list

# Waitlist backend (optional; falls back to the store when unset)
redis:
  url: ""  # e.g. redis://localhost:6379/0

# Telemetry
telemetry:
  enabled: true  # or set PILOT_TELEMETRY=0
`

func runConfigInit(force bool) error {
	path := "pilot.yaml"

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Edit the file, then run 'pilot serve'.")
	return nil
}

// ---------- config set ----------

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Example: `  pilot config set telemetry.enabled false
  pilot config set server.port 9090`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}

	return cmd
}

func runConfigSet(key, value string) error {
	initConfig()

	viper.Set(key, value)

	if viper.ConfigFileUsed() == "" {
		if err := viper.SafeWriteConfigAs("pilot.yaml"); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	} else if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	return cmd
}

func runConfigShow() error {
	// Ensure config is loaded
	initConfig()

	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		fmt.Printf("Config file: %s\n", configFile)
	} else {
		fmt.Println("Config file: (none found, using defaults)")
	}
	fmt.Println()

	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("No configuration settings loaded.")
		fmt.Println("Run 'pilot config init' to create a default configuration file.")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	fmt.Print(string(out))

	return nil
}
