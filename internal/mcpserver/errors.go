package mcpserver

import (
	"fmt"

	"split-or-steal/internal/apperr"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

// mapDomainError renders engine, ledger and parsing failures with the same
// codes the HTTP API uses. Unclassified errors stay opaque.
func mapDomainError(err error) *mcp.CallToolResult {
	if err == nil {
		return toolError("internal_error", "unknown error")
	}
	code := apperr.Code(err)
	if code == "internal_error" {
		return toolError(code, "internal error")
	}
	return toolError(code, err.Error())
}
