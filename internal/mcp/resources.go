package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/riskuniversalis/staffportal/internal/display"
	"github.com/riskuniversalis/staffportal/internal/service"
)

const (
	ranksURI   = "staff://ranks"
	reasonsURI = "staff://ban-reasons"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			ranksURI,
			"Staff Ranks",
			mcp.WithResourceDescription(
				"Roblox group ranks with their ids and display colours. "+
					"Use the id as rank_id when filtering playtime.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleRanksResource,
	)

	srv.AddResource(
		mcp.NewResource(
			reasonsURI,
			"Ban Reason Presets",
			mcp.WithResourceDescription("Preset reasons accepted by staff_create_ban."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleReasonsResource,
	)
}

func (s *MCPServer) handleRanksResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {
	return jsonResource(ranksURI, display.Ranks)
}

func (s *MCPServer) handleReasonsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {
	return jsonResource(reasonsURI, service.ReasonPresets)
}

func jsonResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
