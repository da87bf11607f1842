package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerTools registers all wallet MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Permission tools -----

	srv.AddTool(
		mcp.NewTool("request_permission",
			mcp.WithDescription(
				"Request a wallet permission grant from the end user. Takes an "+
					"ERC-7715 style permission object and returns a request ID plus a "+
					"MetaMask deep link the user opens to approve. The grant stays "+
					"pending until approved in the wallet.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithObject("permission",
				mcp.Required(),
				mcp.Description("Permission object, e.g. {\"type\": \"erc20-spend\", \"expiry\": \"30d\"}"),
			),
		),
		s.handleRequestPermission,
	)

	srv.AddTool(
		mcp.NewTool("list_permissions",
			mcp.WithDescription(
				"List all permission requests made with this API key, including "+
					"their status (pending, granted, revoked) and expiry.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListPermissions,
	)

	// ----- Transaction tools -----

	srv.AddTool(
		mcp.NewTool("execute_transaction",
			mcp.WithDescription(
				"Execute a transaction intent on behalf of the user. Takes the "+
					"chain ID and target address plus optional value (wei, as a "+
					"decimal string) and calldata. Returns the transaction hash and "+
					"status.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("chain_id",
				mcp.Required(),
				mcp.Description("EVM chain ID (e.g. 1 for mainnet, 8453 for Base)"),
			),
			mcp.WithString("to",
				mcp.Required(),
				mcp.Description("Target address (0x...)"),
			),
			mcp.WithString("value",
				mcp.Description("Value to send in wei, as a decimal string"),
			),
			mcp.WithString("data",
				mcp.Description("Hex-encoded calldata (0x...)"),
			),
		),
		s.handleExecuteTransaction,
	)

	srv.AddTool(
		mcp.NewTool("get_transaction",
			mcp.WithDescription(
				"Look up a previously executed transaction by its hash. Only "+
					"transactions executed with this API key are visible.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("hash",
				mcp.Required(),
				mcp.Description("Transaction hash (0x...)"),
			),
		),
		s.handleGetTransaction,
	)

	// ----- Usage tools -----

	srv.AddTool(
		mcp.NewTool("usage_stats",
			mcp.WithDescription(
				"Get aggregate SDK usage statistics: total events, unique clients, "+
					"success rate, per-action breakdown, and daily usage over the "+
					"requested window.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("days",
				mcp.Description("Window size in days (default 30, max 365)"),
			),
		),
		s.handleUsageStats,
	)
}
