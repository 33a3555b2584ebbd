package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	approoms "split-or-steal/internal/app/rooms"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	rooms *approoms.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(rooms *approoms.Service) *Server {
	mcpSrv := server.NewMCPServer(
		"split-or-steal",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		rooms:      rooms,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerRoomTools()
	s.registerPublicTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"room://{room_id}",
			"room_snapshot",
			mcp.WithTemplateDescription("Room snapshot by room id"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			if !strings.HasPrefix(raw, "room://") {
				return nil, nil
			}
			id, err := approoms.ParseRoomID(strings.TrimPrefix(raw, "room://"))
			if err != nil {
				return nil, err
			}
			view, err := s.rooms.GetRoom(ctx, id)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(view)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}
