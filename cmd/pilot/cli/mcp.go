package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/walletpilot/pilot/internal/keys"
	pmcp "github.com/walletpilot/pilot/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
		apiKey    string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes wallet operations
as tools for AI agents. Supports stdio (default) and HTTP transports.

Every tool call runs under the API key passed via --api-key or PILOT_API_KEY,
so an agent session has exactly the reach of that credential.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for MCP clients that launch the server as a subprocess.

In HTTP mode, the server listens on the specified port for remote clients.`,
		Example: `  PILOT_API_KEY=wp_... pilot mcp            # stdio mode
  pilot mcp --api-key wp_... --transport http --port 3001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port, apiKey)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key secret (default: PILOT_API_KEY env var)")

	return cmd
}

func runMCP(transport string, port int, apiKey string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if apiKey == "" {
		apiKey = os.Getenv("PILOT_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("an API key is required: pass --api-key or set PILOT_API_KEY")
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keySvc := keys.NewService(st, logger)

	mcpSrv, err := pmcp.NewMCPServer(context.Background(), st, keySvc, apiKey, logger)
	if err != nil {
		return err
	}

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
