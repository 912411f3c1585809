package backend

import (
	"context"
	"net/http"

	"github.com/riskuniversalis/staffportal/internal/model"
)

// PostBan creates a ban.
func (c *Client) PostBan(ctx context.Context, req model.PostBanRequest) error {
	return c.mutate(ctx, "post ban", http.MethodPost, "/api/bans/post-ban", req)
}

// ModifyBan changes the reason and expiry of username's active ban.
func (c *Client) ModifyBan(ctx context.Context, username string, req model.ModifyBanRequest) error {
	return c.mutate(ctx, "modify ban", http.MethodPatch, "/api/bans/modify-ban/"+segment(username), req)
}

// DeleteBan lifts username's active ban.
func (c *Client) DeleteBan(ctx context.Context, username string) error {
	return c.mutate(ctx, "delete ban", http.MethodDelete, "/api/bans/delete-ban/"+segment(username), nil)
}

// BanHistory returns every ban ever issued to username.
func (c *Client) BanHistory(ctx context.Context, username string) (*model.BanHistory, error) {
	var out model.BanHistory
	if err := c.getJSON(ctx, "get ban history", "/api/bans/get-ban-history/"+segment(username), nil, &out); err != nil {
		return nil, err
	}
	if out.Bans == nil {
		out.Bans = []model.Ban{}
	}
	return &out, nil
}
