package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/walletpilot/pilot/internal/keys"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys SDK clients authenticate with.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		email string
		name  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key for an account",
		Long:  "Generate a new API key for an account. The raw key is shown once and cannot be retrieved again.",
		Example: `  pilot key create --email dev@example.com --name "CI pipeline"
  pilot key create --email dev@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(email, name)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Owning account's email (required)")
	cmd.Flags().StringVar(&name, "name", "CLI Key", "Human-readable name for the key")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runKeyCreate(email, name string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	acct, err := st.GetAccountByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("account %q not found", email)
	}

	keySvc := keys.NewService(st, quietLogger())
	secret, key, err := keySvc.Create(ctx, acct.ID, name)
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Println("API Key created:")
	fmt.Println()
	fmt.Printf("  Key:     %s\n", secret)
	fmt.Printf("  Prefix:  %s\n", key.DisplayPrefix)
	fmt.Printf("  Account: %s\n", acct.Email)
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var (
		email      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List an account's API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(email, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Owning account's email (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runKeyList(email string, jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	acct, err := st.GetAccountByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("account %q not found", email)
	}

	keySvc := keys.NewService(st, quietLogger())
	views, err := keySvc.List(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	if len(views) == 0 {
		fmt.Println("No API keys. Use 'pilot key create' to create one.")
		return nil
	}

	fmt.Printf("%-16s %-24s %-8s %-20s\n", "PREFIX", "NAME", "ACTIVE", "LAST USED")
	fmt.Printf("%-16s %-24s %-8s %-20s\n", "------", "----", "------", "---------")
	for _, v := range views {
		active := "yes"
		if !v.IsActive {
			active = "no"
		}
		lastUsed := "never"
		if v.LastUsedAt != nil {
			lastUsed = v.LastUsedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-16s %-24s %-8s %-20s\n", v.Prefix, v.Name, active, lastUsed)
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "revoke <prefix>",
		Short: "Revoke an API key by its prefix",
		Long:  "Deactivate an API key, preventing any further authenticated requests using that key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(email, args[0])
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Owning account's email (required)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runKeyRevoke(email, prefix string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	acct, err := st.GetAccountByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("account %q not found", email)
	}

	keySvc := keys.NewService(st, quietLogger())
	views, err := keySvc.List(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	for _, v := range views {
		if strings.HasPrefix(v.Prefix, prefix) {
			if err := keySvc.Revoke(ctx, v.ID, acct.ID); err != nil {
				return fmt.Errorf("revoke api key: %w", err)
			}
			fmt.Printf("Revoked API key with prefix %q\n", v.Prefix)
			return nil
		}
	}
	return fmt.Errorf("no API key found with prefix %q", prefix)
}

// quietLogger returns a logger that discards output, for CLI paths where
// service logs would pollute stdout.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
