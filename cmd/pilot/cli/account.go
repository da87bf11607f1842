package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/walletpilot/pilot/internal/service"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
		Long:  "Create and list the developer accounts that own API keys.",
	}

	cmd.AddCommand(newAccountCreateCmd())
	cmd.AddCommand(newAccountListCmd())

	return cmd
}

// ---------- account create ----------

func newAccountCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
		company  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new account",
		Example: `  pilot account create --email dev@example.com --password secret
  pilot account create --email dev@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountCreate(email, password, name, company)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runAccountCreate(email, password, name, company string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}

	// Prompt for password if not provided
	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if password != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}

	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	authSvc := service.NewAuthService(st, jwtSecret())
	acct, err := authSvc.CreateAccount(context.Background(), email, password, name, company)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Printf("Created account %q (plan: %s)\n", acct.Email, acct.Plan)
	fmt.Println("Use 'pilot key create' to issue an API key for it.")
	return nil
}

// ---------- account list ----------

func newAccountListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAccountList(jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	accounts, err := st.ListAccounts(context.Background())
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(accounts)
	}

	if len(accounts) == 0 {
		fmt.Println("No accounts. Use 'pilot account create' to create one.")
		return nil
	}

	fmt.Printf("%-32s %-20s %-12s %-8s\n", "EMAIL", "NAME", "PLAN", "ACTIVE")
	fmt.Printf("%-32s %-20s %-12s %-8s\n", "-----", "----", "----", "------")
	for _, a := range accounts {
		active := "yes"
		if !a.IsActive {
			active = "no"
		}
		fmt.Printf("%-32s %-20s %-12s %-8s\n", a.Email, a.Name, a.Plan, active)
	}

	return nil
}
