package mcpserver

import (
	"context"
	"encoding/json"
	"strconv"

	approoms "split-or-steal/internal/app/rooms"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerRoomTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_room",
			mcp.WithDescription("Create a room and escrow the stake"),
			mcp.WithString("player_address", mcp.Required(), mcp.Description("0x player address")),
			mcp.WithString("nullifier", mcp.Required(), mcp.Description("Identity nullifier, decimal or 0x hex")),
			mcp.WithNumber("stake", mcp.Required(), mcp.Description("Stake in base units")),
			mcp.WithNumber("commit_deadline", mcp.Required(), mcp.Description("Unix seconds")),
			mcp.WithNumber("reveal_deadline", mcp.Required(), mcp.Description("Unix seconds, after commit_deadline")),
			mcp.WithNumber("value", mcp.Description("Attached value, defaults to stake")),
		),
		s.handleCreateRoom,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"join_room",
			mcp.WithDescription("Join an open room and escrow the matching stake"),
			mcp.WithString("player_address", mcp.Required(), mcp.Description("0x player address")),
			mcp.WithString("nullifier", mcp.Required(), mcp.Description("Identity nullifier")),
			mcp.WithNumber("room_id", mcp.Required(), mcp.Description("Room id")),
			mcp.WithNumber("value", mcp.Description("Attached value, defaults to the room stake")),
		),
		s.handleJoinRoom,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"commit",
			mcp.WithDescription("Submit keccak256(roomId, packedChoices, salt) for this room"),
			mcp.WithString("player_address", mcp.Required(), mcp.Description("0x player address")),
			mcp.WithString("nullifier", mcp.Required(), mcp.Description("Identity nullifier")),
			mcp.WithNumber("room_id", mcp.Required(), mcp.Description("Room id")),
			mcp.WithString("commitment", mcp.Required(), mcp.Description("0x 32-byte commitment")),
		),
		s.handleCommit,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"reveal",
			mcp.WithDescription("Open a commitment with the choices and salt"),
			mcp.WithString("player_address", mcp.Required(), mcp.Description("0x player address")),
			mcp.WithString("nullifier", mcp.Required(), mcp.Description("Identity nullifier")),
			mcp.WithNumber("room_id", mcp.Required(), mcp.Description("Room id")),
			mcp.WithString("choices", mcp.Required(), mcp.Description("Packed 0-31 or five comma separated steal|split")),
			mcp.WithString("salt", mcp.Required(), mcp.Description("0x 32-byte salt")),
		),
		s.handleReveal,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"settle",
			mcp.WithDescription("Resolve a room once both reveals are in or a deadline has passed"),
			mcp.WithNumber("room_id", mcp.Required(), mcp.Description("Room id")),
		),
		s.handleSettle,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"withdraw",
			mcp.WithDescription("Withdraw the whole pending balance of an address"),
			mcp.WithString("player_address", mcp.Required(), mcp.Description("0x player address")),
		),
		s.handleWithdraw,
	)
}

func (s *Server) handleCreateRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := request.RequireString("player_address")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	nullifier, err := request.RequireString("nullifier")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	stake, err := request.RequireInt("stake")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	commitDL, err := request.RequireInt("commit_deadline")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	revealDL, err := request.RequireInt("reveal_deadline")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.rooms.CreateRoom(ctx, player, approoms.CreateRoomRequest{
		Stake:          int64(stake),
		Value:          optionalValue(request),
		CommitDeadline: int64(commitDL),
		RevealDeadline: int64(revealDL),
		Nullifier:      nullifier,
	})
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleJoinRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := request.RequireString("player_address")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	nullifier, err := request.RequireString("nullifier")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	roomID, errResp := requireRoomID(request)
	if errResp != nil {
		return errResp, nil
	}
	resp, svcErr := s.rooms.JoinRoom(ctx, player, roomID, approoms.JoinRoomRequest{
		Value:     optionalValue(request),
		Nullifier: nullifier,
	})
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := request.RequireString("player_address")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	nullifier, err := request.RequireString("nullifier")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	roomID, errResp := requireRoomID(request)
	if errResp != nil {
		return errResp, nil
	}
	commitment, err := request.RequireString("commitment")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.rooms.Commit(ctx, player, roomID, approoms.CommitRequest{Commitment: commitment, Nullifier: nullifier})
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleReveal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := request.RequireString("player_address")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	nullifier, err := request.RequireString("nullifier")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	roomID, errResp := requireRoomID(request)
	if errResp != nil {
		return errResp, nil
	}
	choices, err := request.RequireString("choices")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	salt, err := request.RequireString("salt")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	packed, err := approoms.ParseChoicesText(choices)
	if err != nil {
		return mapDomainError(err), nil
	}
	resp, svcErr := s.rooms.Reveal(ctx, player, roomID, approoms.RevealRequest{
		Choices:   json.RawMessage(strconv.Itoa(int(packed))),
		Salt:      salt,
		Nullifier: nullifier,
	})
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleSettle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, errResp := requireRoomID(request)
	if errResp != nil {
		return errResp, nil
	}
	resp, svcErr := s.rooms.Settle(ctx, roomID)
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleWithdraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := request.RequireString("player_address")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.rooms.Withdraw(ctx, player)
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}
