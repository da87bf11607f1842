package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/store"
)

// --------------------------------------------------------------------------
// Tool handlers
// --------------------------------------------------------------------------

func (s *MCPServer) handleRequestPermission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	permission := getObjectArg(request, "permission")
	if len(permission) == 0 {
		return toolError("permission object is required")
	}

	expiry, _ := permission["expiry"].(string)
	days := parseExpiry(expiry)
	expiresAt := time.Now().UTC().AddDate(0, 0, days)

	payload, err := json.Marshal(map[string]interface{}{
		"method": "wallet_grantPermissions",
		"params": []interface{}{permission},
	})
	if err != nil {
		return toolError("failed to encode permission: %v", err)
	}

	perm := &model.Permission{
		KeyID:       s.key.ID,
		PayloadJSON: string(payload),
		Status:      model.PermissionPending,
		ExpiresAt:   expiresAt,
		DeepLink: fmt.Sprintf("https://metamask.app.link/dapp/request?payload=%s",
			url.QueryEscape(string(payload))),
	}
	if err := s.store.CreatePermission(ctx, perm); err != nil {
		return toolError("failed to save permission request: %v", err)
	}

	return successJSON(map[string]interface{}{
		"requestId": perm.ID,
		"deepLink":  perm.DeepLink,
		"expiresAt": perm.ExpiresAt,
		"status":    perm.Status,
	})
}

func (s *MCPServer) handleListPermissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	perms, err := s.store.ListPermissions(ctx, s.key.ID)
	if err != nil {
		return toolError("failed to list permissions: %v", err)
	}
	return successJSON(perms)
}

func (s *MCPServer) handleExecuteTransaction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chainID := request.GetInt("chain_id", 0)
	to, err := request.RequireString("to")
	if err != nil || chainID == 0 || to == "" {
		return toolError("chain_id and to are required")
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return toolError("failed to execute transaction: %v", err)
	}

	tx := &model.Transaction{
		KeyID:   s.key.ID,
		Hash:    "0x" + hex.EncodeToString(buf),
		ChainID: int64(chainID),
		To:      to,
		Value:   request.GetString("value", ""),
		Data:    request.GetString("data", ""),
		Status:  model.TxConfirmed,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return toolError("failed to record transaction: %v", err)
	}

	return successJSON(map[string]interface{}{
		"id":      tx.ID,
		"hash":    tx.Hash,
		"chainId": tx.ChainID,
		"status":  tx.Status,
	})
}

func (s *MCPServer) handleGetTransaction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash, err := request.RequireString("hash")
	if err != nil {
		return toolError("hash is required")
	}

	tx, err := s.store.GetTransactionByHash(ctx, hash, s.key.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("transaction %s not found", hash)
		}
		return toolError("failed to load transaction: %v", err)
	}
	return successJSON(tx)
}

func (s *MCPServer) handleUsageStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := clamp(request.GetInt("days", 30), 1, 365)
	since := time.Now().UTC().AddDate(0, 0, -days)

	stats, err := s.store.TelemetryStats(ctx, since, min(days, 30))
	if err != nil {
		return toolError("failed to aggregate stats: %v", err)
	}
	return successJSON(stats)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

var expiryPattern = regexp.MustCompile(`^(\d+)(d|h|w|m)$`)

// parseExpiry converts an expiry string like "30d" into a day count,
// defaulting to 30 days for anything unparseable.
func parseExpiry(expiry string) int {
	m := expiryPattern.FindStringSubmatch(expiry)
	if m == nil {
		return 30
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 30
	}
	switch m[2] {
	case "h":
		return 1
	case "w":
		return n * 7
	case "m":
		return n * 30
	default:
		return n
	}
}

// getObjectArg extracts a map[string]interface{} argument from the tool
// request. Returns nil if the key is not present or not a map.
func getObjectArg(request mcp.CallToolRequest, key string) map[string]interface{} {
	args := request.GetArguments()
	if args == nil {
		return nil
	}
	raw, ok := args[key]
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	return m
}

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// clamp constrains val to [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
