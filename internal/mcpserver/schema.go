package mcpserver

import (
	approoms "split-or-steal/internal/app/rooms"

	"github.com/mark3labs/mcp-go/mcp"
)

func requireRoomID(request mcp.CallToolRequest) (uint64, *mcp.CallToolResult) {
	n, err := request.RequireInt("room_id")
	if err != nil {
		return 0, toolError("invalid_request", err.Error())
	}
	if n <= 0 {
		return 0, toolError(approoms.ErrInvalidRoomID.Code, "room_id must be positive")
	}
	return uint64(n), nil
}

func optionalValue(request mcp.CallToolRequest) *int64 {
	if request.GetArguments()["value"] == nil {
		return nil
	}
	v := int64(request.GetInt("value", 0))
	return &v
}

func clampJoinable(start, max int) (uint64, int) {
	if start < 1 {
		start = approoms.DefaultJoinableStart
	}
	if max <= 0 {
		max = approoms.DefaultJoinableMax
	}
	return uint64(start), max
}
