package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/display"
	"github.com/riskuniversalis/staffportal/internal/expiry"
	"github.com/riskuniversalis/staffportal/internal/model"
	"github.com/riskuniversalis/staffportal/internal/service"
)

// registerTools registers all staff MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Session -----

	srv.AddTool(
		mcp.NewTool("staff_whoami",
			mcp.WithDescription(
				"Show the staff member the MCP server acts as, including rank and rank "+
					"colour. Call this first to check the session is still valid.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleWhoami,
	)

	// ----- Bans -----

	srv.AddTool(
		mcp.NewTool("staff_list_bans",
			mcp.WithDescription(
				"List active bans, newest first, one page at a time. Pass search to "+
					"match banned usernames. Each row carries the ban reason, logs link "+
					"and a human readable expiry.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("search",
				mcp.Description("Username search text. Omit to list every ban."),
			),
			mcp.WithNumber("page",
				mcp.Description("1-based page number (default 1)"),
			),
			mcp.WithBoolean("unappealable",
				mcp.Description("Only list bans marked as unappealable"),
			),
		),
		s.handleListBans,
	)

	srv.AddTool(
		mcp.NewTool("staff_ban_history",
			mcp.WithDescription(
				"Look up a Roblox user and return every ban on record for them, "+
					"including whether they are currently banned.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("username",
				mcp.Required(),
				mcp.Description("Roblox username"),
			),
		),
		s.handleBanHistory,
	)

	srv.AddTool(
		mcp.NewTool("staff_create_ban",
			mcp.WithDescription(
				"Ban a Roblox user. At least one preset reason or an additional reason "+
					"is required, as is a link to the logs backing the ban.\n\n"+
					"Reason presets: "+strings.Join(service.ReasonPresets, ", ")+"\n\n"+
					"Duration examples: '7 days', '6 months', '1 year'. Omit it or pass "+
					"anything unparseable for a permanent ban; use staff_parse_duration "+
					"to preview.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("username",
				mcp.Required(),
				mcp.Description("Roblox username to ban"),
			),
			mcp.WithArray("reasons",
				mcp.Description("Preset reasons to include"),
				mcp.WithStringItems(),
			),
			mcp.WithString("additional",
				mcp.Description("Free text appended after the preset reasons"),
			),
			mcp.WithString("logs_link",
				mcp.Required(),
				mcp.Description("Link to the logs backing the ban"),
			),
			mcp.WithString("duration",
				mcp.Description("Ban length, e.g. '7 days'. Empty means permanent."),
			),
			mcp.WithBoolean("unappealable",
				mcp.Description("Mark the ban as not appealable"),
			),
		),
		s.handleCreateBan,
	)

	srv.AddTool(
		mcp.NewTool("staff_modify_ban",
			mcp.WithDescription(
				"Replace the reason and expiry of a user's active ban.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("username",
				mcp.Required(),
				mcp.Description("Roblox username whose ban to modify"),
			),
			mcp.WithString("reason",
				mcp.Required(),
				mcp.Description("New ban reason"),
			),
			mcp.WithString("duration",
				mcp.Description("New ban length measured from now. Empty means permanent."),
			),
		),
		s.handleModifyBan,
	)

	srv.AddTool(
		mcp.NewTool("staff_remove_ban",
			mcp.WithDescription(
				"Lift a user's active ban. The ban stays in their history.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("username",
				mcp.Required(),
				mcp.Description("Roblox username to unban"),
			),
		),
		s.handleRemoveBan,
	)

	// ----- Playtime and audit -----

	srv.AddTool(
		mcp.NewTool("staff_list_playtime",
			mcp.WithDescription(
				"List the staff playtime leaderboard for the last 7 or 30 days, "+
					"optionally filtered by rank id (see the staff://ranks resource).",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("search",
				mcp.Description("Username search text"),
			),
			mcp.WithNumber("page",
				mcp.Description("1-based page number (default 1)"),
			),
			mcp.WithNumber("days",
				mcp.Description("Window in days: 7 or 30 (default 30)"),
			),
			mcp.WithNumber("rank_id",
				mcp.Description("Only include this rank"),
			),
		),
		s.handleListPlaytime,
	)

	srv.AddTool(
		mcp.NewTool("staff_audit_logs",
			mcp.WithDescription(
				"List the moderation audit log, newest first. Filter by the admin who "+
					"acted, the target player, or the action (ban, modify, unban).",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("admin",
				mcp.Description("Admin username"),
			),
			mcp.WithString("target",
				mcp.Description("Target player username"),
			),
			mcp.WithString("action",
				mcp.Description("ban, modify or unban"),
				mcp.Enum(string(model.ActionBan), string(model.ActionModify), string(model.ActionUnban)),
			),
			mcp.WithNumber("page",
				mcp.Description("1-based page number (default 1)"),
			),
		),
		s.handleAuditLogs,
	)

	// ----- Utilities -----

	srv.AddTool(
		mcp.NewTool("staff_parse_duration",
			mcp.WithDescription(
				"Preview what a ban duration resolves to: the expiry date, or "+
					"Permanent when the text does not parse.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Duration text such as '3 days' or '1 month'"),
			),
		),
		s.handleParseDuration,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

type whoami struct {
	*model.StaffMember
	Color string `json:"color"`
}

func (s *MCPServer) handleWhoami(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	me, err := s.backend.Me(ctx)
	if err != nil {
		return backendError("get the current staff member", err)
	}
	return successJSON(whoami{StaffMember: me, Color: display.RoleColor(me.Rank)})
}

type banRow struct {
	model.Ban
	ExpiresText string `json:"expires_text"`
	Profile     string `json:"profile_url"`
}

type pageResult[T any] struct {
	Rows      []T `json:"rows"`
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
}

func (s *MCPServer) handleListBans(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	page := max(optionalInt(request, "page", 1), 1)
	res, err := s.backend.ListBans(ctx, backend.BanQuery{
		Search:           optionalString(request, "search"),
		Page:             page,
		OnlyUnappealable: optionalBool(request, "unappealable"),
	})
	if err != nil {
		return backendError("list bans", err)
	}

	rows := make([]banRow, len(res.Rows))
	for i, b := range res.Rows {
		rows[i] = banRow{
			Ban:         b,
			ExpiresText: display.Expires(b, nil),
			Profile:     display.ProfileURL(b.BannedUserID),
		}
	}
	return successJSON(pageResult[banRow]{Rows: rows, Page: page, PageCount: max(res.PageCount, 1)})
}

func (s *MCPServer) handleBanHistory(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	username, err := requireString(request, "username")
	if err != nil {
		return toolError("%v", err)
	}
	h, err := s.svc.History(ctx, username)
	if err != nil {
		return backendError("load ban history", err)
	}
	return successJSON(h)
}

func (s *MCPServer) handleCreateBan(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	username, err := requireString(request, "username")
	if err != nil {
		return toolError("%v", err)
	}

	sent, err := s.svc.CreateBan(ctx, service.BanForm{
		Username:     username,
		Reasons:      optionalStringSlice(request, "reasons"),
		Additional:   optionalString(request, "additional"),
		LogsLink:     optionalString(request, "logs_link"),
		Duration:     optionalString(request, "duration"),
		Unappealable: optionalBool(request, "unappealable"),
	})
	if err != nil {
		return backendError("ban "+username, err)
	}
	s.logger.Info("ban created via MCP", "user", sent.User)

	return successJSON(map[string]interface{}{
		"message": "Ban submitted",
		"ban":     sent,
		"expires": expiryText(sent.ExpiresIn),
	})
}

func (s *MCPServer) handleModifyBan(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	username, err := requireString(request, "username")
	if err != nil {
		return toolError("%v", err)
	}
	reason, err := requireString(request, "reason")
	if err != nil {
		return toolError("%v", err)
	}

	sent, err := s.svc.ModifyBan(ctx, service.ModifyForm{
		Username: username,
		Reason:   reason,
		Duration: optionalString(request, "duration"),
	})
	if err != nil {
		return backendError("modify the ban of "+username, err)
	}
	s.logger.Info("ban modified via MCP", "user", username)

	return successJSON(map[string]interface{}{
		"message": "Ban modified",
		"ban":     sent,
		"expires": expiryText(sent.Expiration),
	})
}

func (s *MCPServer) handleRemoveBan(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	username, err := requireString(request, "username")
	if err != nil {
		return toolError("%v", err)
	}
	if err := s.svc.RemoveBan(ctx, username); err != nil {
		return backendError("unban "+username, err)
	}
	s.logger.Info("ban removed via MCP", "user", username)
	return successJSON(map[string]string{"message": "Ban removed", "username": username})
}

type playtimeRow struct {
	model.PlaytimeEntry
	Time  string `json:"time"`
	Color string `json:"color"`
}

func (s *MCPServer) handleListPlaytime(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	days := optionalInt(request, "days", 30)
	if days != 7 && days != 30 {
		return toolError("days must be 7 or 30, got %d", days)
	}
	rankID := optionalInt(request, "rank_id", 0)
	if rankID != 0 {
		if _, ok := display.RankByID(rankID); !ok {
			return toolError("Unknown rank_id %d. Read the staff://ranks resource for valid ids.", rankID)
		}
	}

	page := max(optionalInt(request, "page", 1), 1)
	res, err := s.backend.ListPlaytime(ctx, backend.PlaytimeQuery{
		Search: optionalString(request, "search"),
		Page:   page,
		Days:   days,
		RankID: rankID,
	})
	if err != nil {
		return backendError("list playtime", err)
	}

	rows := make([]playtimeRow, len(res.Rows))
	for i, e := range res.Rows {
		rows[i] = playtimeRow{
			PlaytimeEntry: e,
			Time:          display.Playtime(e.Seconds),
			Color:         display.RoleColor(e.Role),
		}
	}
	return successJSON(pageResult[playtimeRow]{Rows: rows, Page: page, PageCount: max(res.PageCount, 1)})
}

type auditRow struct {
	model.AuditEntry
	Summary string `json:"summary"`
	When    string `json:"when"`
}

func (s *MCPServer) handleAuditLogs(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	q := backend.AuditQuery{
		Admin:  optionalString(request, "admin"),
		Target: optionalString(request, "target"),
		Page:   max(optionalInt(request, "page", 1), 1),
	}
	if a := optionalString(request, "action"); a != "" {
		action, err := model.ParseAuditAction(a)
		if err != nil {
			return toolError("%v", err)
		}
		q.Action = string(action)
	}

	res, err := s.backend.ListAuditLogs(ctx, q)
	if err != nil {
		return backendError("list audit logs", err)
	}

	rows := make([]auditRow, len(res.Rows))
	for i, e := range res.Rows {
		rows[i] = auditRow{
			AuditEntry: e,
			Summary:    display.AuditSentence(e),
			When:       display.AuditTime(e.Timestamp, nil),
		}
	}
	return successJSON(pageResult[auditRow]{Rows: rows, Page: q.Page, PageCount: max(res.PageCount, 1)})
}

func (s *MCPServer) handleParseDuration(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	text, err := requireString(request, "text")
	if err != nil {
		return toolError("%v", err)
	}
	now := s.now()
	exp := expiry.Unix(text, now)
	return successJSON(map[string]interface{}{
		"text":        text,
		"permanent":   exp == nil,
		"expires":     exp,
		"description": expiry.Describe(text, now),
	})
}

func expiryText(unix *int64) string {
	if unix == nil {
		return expiry.Permanent
	}
	return display.BanTime(*unix, nil)
}
