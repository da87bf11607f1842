// Package mcp exposes the wallet API as MCP tools so AI agents can request
// permissions, execute transaction intents, and inspect usage without going
// through the HTTP surface.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/walletpilot/pilot/internal/keys"
	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/store"
)

// MCPServer wraps the mcp-go server with wallet tool registrations. Every
// tool runs under one API key, resolved at startup, so an agent session has
// exactly the reach of the credential that launched it.
type MCPServer struct {
	store  *store.Store
	keySvc *keys.Service
	key    *model.APIKey
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer validates the API key secret and returns a server pre-loaded
// with all wallet tools, ready to serve over stdio or HTTP.
func NewMCPServer(ctx context.Context, st *store.Store, keySvc *keys.Service, secret string, logger *slog.Logger) (*MCPServer, error) {
	key, err := keySvc.Validate(ctx, secret)
	if err != nil {
		return nil, fmt.Errorf("api key rejected: %w", err)
	}

	s := &MCPServer{
		store:  st,
		keySvc: keySvc,
		key:    key,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"WalletPilot API",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.server = mcpServer
	return s, nil
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode. This is the primary
// integration path for MCP clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode", "key_prefix", s.key.DisplayPrefix)
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001"). This is suitable for remote MCP clients.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
