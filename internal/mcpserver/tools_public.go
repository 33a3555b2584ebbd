package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPublicTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_room",
			mcp.WithDescription("Read a room snapshot; unknown ids return an empty room"),
			mcp.WithNumber("room_id", mcp.Required(), mcp.Description("Room id")),
		),
		s.handleGetRoom,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_joinable",
			mcp.WithDescription("List open rooms whose commit deadline has not passed"),
			mcp.WithNumber("start", mcp.Description("First room id to scan, default 1")),
			mcp.WithNumber("max", mcp.Description("Maximum ids to return, default 50")),
		),
		s.handleListJoinable,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_balance",
			mcp.WithDescription("Pending withdrawable balance of an address"),
			mcp.WithString("address", mcp.Required(), mcp.Description("0x address")),
		),
		s.handleGetBalance,
	)
}

func (s *Server) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, errResp := requireRoomID(request)
	if errResp != nil {
		return errResp, nil
	}
	resp, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleListJoinable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, max := clampJoinable(request.GetInt("start", 0), request.GetInt("max", 0))
	resp, err := s.rooms.ListJoinable(ctx, start, max)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetBalance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, err := request.RequireString("address")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.rooms.Balance(ctx, addr)
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}
