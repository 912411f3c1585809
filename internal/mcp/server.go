package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/model"
	"github.com/riskuniversalis/staffportal/internal/service"
)

// Backend is the read side of the moderation API the tools call. The
// session cookie is the one configured on the client.
type Backend interface {
	Me(ctx context.Context) (*model.StaffMember, error)
	ListBans(ctx context.Context, q backend.BanQuery) (model.ListResult[model.Ban], error)
	ListPlaytime(ctx context.Context, q backend.PlaytimeQuery) (model.ListResult[model.PlaytimeEntry], error)
	ListAuditLogs(ctx context.Context, q backend.AuditQuery) (model.ListResult[model.AuditEntry], error)
}

// MCPServer wraps the mcp-go server with the staff moderation tools so AI
// agents can look up bans, playtime and the audit log and run ban forms on
// behalf of the signed-in staff member.
type MCPServer struct {
	backend Backend
	svc     *service.Service
	logger  *slog.Logger
	server  *server.MCPServer
	now     func() time.Time
}

// NewMCPServer creates an MCPServer pre-loaded with all tools and
// resources. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(b Backend, svc *service.Service, version string, logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}
	s := &MCPServer{
		backend: b,
		svc:     svc,
		logger:  logger,
		now:     time.Now,
	}

	mcpServer := server.NewMCPServer(
		"Staff Portal",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, for clients that launch
// the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. "127.0.0.1:3001").
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
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
