package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/service"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// requireString extracts a required, non-empty string argument.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil || val == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

func optionalString(request mcp.CallToolRequest, key string) string {
	return request.GetString(key, "")
}

func optionalInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

func optionalBool(request mcp.CallToolRequest, key string) bool {
	return request.GetBool(key, false)
}

func optionalStringSlice(request mcp.CallToolRequest, key string) []string {
	return request.GetStringSlice(key, nil)
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

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

// backendError turns a failed backend call into a tool error with a hint
// the agent can act on.
func backendError(op string, err error) (*mcp.CallToolResult, error) {
	var vErr *service.ValidationError
	var mErr *backend.MutationError
	switch {
	case errors.Is(err, backend.ErrUnauthenticated):
		return toolError("Failed to %s: the staff session has expired. Run `staffportal login` and restart the MCP server.", op)
	case errors.Is(err, backend.ErrUserNotFound):
		return toolError("Failed to %s: no Roblox user with that username.", op)
	case errors.As(err, &vErr):
		return toolError("Invalid %s: %s", vErr.Field, vErr.Message)
	case errors.As(err, &mErr):
		return toolError("Failed to %s: %s", op, backend.UserMessage(err))
	}
	return toolError("Failed to %s: %v", op, err)
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
