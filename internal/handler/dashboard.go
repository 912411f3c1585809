package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/riskuniversalis/staffportal/internal/avatar"
	"github.com/riskuniversalis/staffportal/internal/backend"
	"github.com/riskuniversalis/staffportal/internal/display"
	"github.com/riskuniversalis/staffportal/internal/expiry"
	"github.com/riskuniversalis/staffportal/internal/model"
	"github.com/riskuniversalis/staffportal/internal/server/middleware"
	"github.com/riskuniversalis/staffportal/internal/service"
)

// MaxAvatarIDs caps a single /avatars request.
const MaxAvatarIDs = 500

// Lists is the read side of the moderation backend.
type Lists interface {
	ListBans(ctx context.Context, q backend.BanQuery) (model.ListResult[model.Ban], error)
	ListPlaytime(ctx context.Context, q backend.PlaytimeQuery) (model.ListResult[model.PlaytimeEntry], error)
	ListAuditLogs(ctx context.Context, q backend.AuditQuery) (model.ListResult[model.AuditEntry], error)
}

// DashboardHandler serves the JSON API behind the staff dashboard. Every
// route runs inside the session middleware, so the request context carries
// the caller's backend cookies.
type DashboardHandler struct {
	lists    Lists
	svc      *service.Service
	avatars  *avatar.Factory
	logger   *slog.Logger
	now      func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler. avatars may be nil,
// in which case avatar lookups return nothing.
func NewDashboardHandler(lists Lists, svc *service.Service, avatars *avatar.Factory, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		lists:    lists,
		svc:      svc,
		avatars:  avatars,
		logger:   logger,
		now:      time.Now,
	}
}

// Routes mounts the dashboard endpoints on r.
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Get("/ranks", h.Ranks)

	r.Get("/bans", h.ListBans)
	r.Post("/bans", h.CreateBan)
	r.Patch("/bans/{user}", h.ModifyBan)
	r.Delete("/bans/{user}", h.RemoveBan)
	r.Get("/bans/{user}/history", h.BanHistory)

	r.Get("/users/{user}", h.LookupUser)
	r.Get("/playtime", h.ListPlaytime)
	r.Get("/audit", h.ListAuditLogs)
	r.Get("/avatars", h.Avatars)
	r.Get("/expiry", h.Expiry)
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

type meResponse struct {
	*model.StaffMember
	Color  string `json:"color"`
	Avatar string `json:"avatar,omitempty"`
}

// Me returns the signed-in staff member with their rank colour.
// GET /dashboard/api/me
func (h *DashboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	staff := middleware.GetStaff(r.Context())
	if staff == nil {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	resp := meResponse{StaffMember: staff, Color: display.RoleColor(staff.Rank)}
	if h.avatars != nil && staff.RobloxID > 0 {
		res := h.avatars.New()
		defer res.Close()
		if err := res.Resolve(r.Context(), []int64{staff.RobloxID}); err == nil {
			resp.Avatar, _ = res.Lookup(staff.RobloxID)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Ranks lists the staff ranks and their colours.
// GET /dashboard/api/ranks
func (h *DashboardHandler) Ranks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, display.Ranks)
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

// ListBans returns one page of bans.
// GET /dashboard/api/bans?search=&page=&unappealable=
func (h *DashboardHandler) ListBans(w http.ResponseWriter, r *http.Request) {
	page := max(queryInt(r, "page", 1), 1)
	res, err := h.lists.ListBans(r.Context(), backend.BanQuery{
		Search:           queryString(r, "search"),
		Page:             page,
		OnlyUnappealable: queryBool(r, "unappealable"),
	})
	writePage(w, h.logger, "bans", page, res, err)
}

// ListPlaytime returns one page of the staff playtime leaderboard.
// GET /dashboard/api/playtime?search=&page=&days=&rank=
func (h *DashboardHandler) ListPlaytime(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	if days != 7 && days != 30 {
		writeError(w, http.StatusBadRequest, "days must be 7 or 30")
		return
	}
	rank := 0
	if raw := queryString(r, "rank"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "rank must be a positive rank id")
			return
		}
		rank = n
	}

	page := max(queryInt(r, "page", 1), 1)
	res, err := h.lists.ListPlaytime(r.Context(), backend.PlaytimeQuery{
		Search: queryString(r, "search"),
		Page:   page,
		Days:   days,
		RankID: rank,
	})
	writePage(w, h.logger, "playtime", page, res, err)
}

// ListAuditLogs returns one page of moderation actions.
// GET /dashboard/api/audit?admin=&target=&action=&page=
func (h *DashboardHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	var action model.AuditAction
	if raw := queryString(r, "action"); raw != "" {
		a, err := model.ParseAuditAction(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		action = a
	}

	page := max(queryInt(r, "page", 1), 1)
	res, err := h.lists.ListAuditLogs(r.Context(), backend.AuditQuery{
		Admin:  queryString(r, "admin"),
		Target: queryString(r, "target"),
		Action: string(action),
		Page:   page,
	})
	writePage(w, h.logger, "audit", page, res, err)
}

// writePage answers a list request. A failed fetch degrades to an empty
// first page; an expired session is reported so the UI can log in again.
func writePage[T any](w http.ResponseWriter, logger *slog.Logger, list string, page int, res model.ListResult[T], err error) {
	if err != nil {
		if errors.Is(err, backend.ErrUnauthenticated) {
			writeSessionExpired(w)
			return
		}
		logger.Warn("list fetch failed", "list", list, "page", page, "error", err)
		writeJSON(w, http.StatusOK, model.PageResponse[T]{Rows: []T{}, Page: 1, PageCount: 1})
		return
	}

	rows := res.Rows
	if rows == nil {
		rows = []T{}
	}
	writeJSON(w, http.StatusOK, model.PageResponse[T]{
		Rows:      rows,
		Page:      page,
		PageCount: max(res.PageCount, 1),
	})
}

// ---------------------------------------------------------------------------
// Ban mutations
// ---------------------------------------------------------------------------

type createBanRequest struct {
	Username     string   `json:"username"`
	Reasons      []string `json:"reasons"`
	Additional   string   `json:"additional"`
	LogsLink     string   `json:"logsLink"`
	Duration     string   `json:"duration"`
	Unappealable bool     `json:"unappealable"`
}

// CreateBan submits the new-ban form.
// POST /dashboard/api/bans
func (h *DashboardHandler) CreateBan(w http.ResponseWriter, r *http.Request) {
	var req createBanRequest
	if err := readJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	sent, err := h.svc.CreateBan(r.Context(), service.BanForm{
		Username:     req.Username,
		Reasons:      req.Reasons,
		Additional:   req.Additional,
		LogsLink:     req.LogsLink,
		Duration:     req.Duration,
		Unappealable: req.Unappealable,
	})
	if err != nil {
		h.writeMutationError(w, "create ban", err)
		return
	}
	writeJSON(w, http.StatusCreated, sent)
}

type modifyBanRequest struct {
	Reason   string `json:"reason"`
	Duration string `json:"duration"`
}

// ModifyBan replaces the reason and expiry of a ban.
// PATCH /dashboard/api/bans/{user}
func (h *DashboardHandler) ModifyBan(w http.ResponseWriter, r *http.Request) {
	var req modifyBanRequest
	if err := readJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	sent, err := h.svc.ModifyBan(r.Context(), service.ModifyForm{
		Username: chi.URLParam(r, "user"),
		Reason:   req.Reason,
		Duration: req.Duration,
	})
	if err != nil {
		h.writeMutationError(w, "modify ban", err)
		return
	}
	writeJSON(w, http.StatusOK, sent)
}

// RemoveBan lifts a ban.
// DELETE /dashboard/api/bans/{user}
func (h *DashboardHandler) RemoveBan(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveBan(r.Context(), chi.URLParam(r, "user")); err != nil {
		h.writeMutationError(w, "remove ban", err)
		return
	}
	writeMessage(w, http.StatusOK, "Ban removed")
}

func (h *DashboardHandler) writeMutationError(w http.ResponseWriter, op string, err error) {
	var vErr *service.ValidationError
	var mErr *backend.MutationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Message, map[string]interface{}{"field": vErr.Field})
	case errors.As(err, &mErr):
		writeMessage(w, mErr.Status, mErr.Message)
	case errors.Is(err, backend.ErrUnauthenticated):
		writeSessionExpired(w)
	default:
		h.logger.Error("ban mutation failed", "op", op, "error", err)
		writeMessage(w, http.StatusBadGateway, backend.FallbackMessage)
	}
}

// ---------------------------------------------------------------------------
// Users and history
// ---------------------------------------------------------------------------

// LookupUser resolves a Roblox username to its id and headshot.
// GET /dashboard/api/users/{user}
func (h *DashboardHandler) LookupUser(w http.ResponseWriter, r *http.Request) {
	preview, err := h.svc.LookupUser(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// BanHistory returns every ban a user has received.
// GET /dashboard/api/bans/{user}/history
func (h *DashboardHandler) BanHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.svc.History(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if hist.Bans == nil {
		hist.Bans = []model.Ban{}
	}
	writeJSON(w, http.StatusOK, hist)
}

func (h *DashboardHandler) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backend.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, backend.ErrUnauthenticated):
		writeSessionExpired(w)
	default:
		h.logger.Warn("user lookup failed", "error", err)
		writeError(w, http.StatusBadGateway, backend.FallbackMessage)
	}
}

// ---------------------------------------------------------------------------
// Avatars and expiry preview
// ---------------------------------------------------------------------------

// Avatars resolves headshots for the given user ids. Only ids that resolved
// are returned; unresolved ids are simply absent.
// GET /dashboard/api/avatars?ids=1,2,3
func (h *DashboardHandler) Avatars(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIDs(r, "ids", MaxAvatarIDs)
	if err != nil {
		if errors.Is(err, errTooManyIDs) {
			writeError(w, http.StatusBadRequest, "At most "+strconv.Itoa(MaxAvatarIDs)+" ids per request")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := make(map[string]string, len(ids))
	if h.avatars == nil || len(ids) == 0 {
		writeJSON(w, http.StatusOK, out)
		return
	}
	res := h.avatars.New()
	defer res.Close()
	if err := res.Resolve(r.Context(), ids); err != nil {
		h.logger.Debug("avatar resolve interrupted", "error", err)
	}
	for _, id := range ids {
		if u, ok := res.Lookup(id); ok {
			out[strconv.FormatInt(id, 10)] = u
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type expiryResponse struct {
	Text        string `json:"text"`
	Permanent   bool   `json:"permanent"`
	Expires     *int64 `json:"expires"`
	Description string `json:"description"`
}

// Expiry previews what a ban duration resolves to.
// GET /dashboard/api/expiry?text=3%20days
func (h *DashboardHandler) Expiry(w http.ResponseWriter, r *http.Request) {
	text := queryString(r, "text")
	now := h.now()
	exp := expiry.Unix(text, now)
	writeJSON(w, http.StatusOK, expiryResponse{
		Text:        text,
		Permanent:   exp == nil,
		Expires:     exp,
		Description: expiry.Describe(text, now),
	})
}

func writeSessionExpired(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{
		Error:    model.ErrorDetail{Code: http.StatusUnauthorized, Message: "Session expired"},
		Redirect: middleware.LoginPath,
	})
}
