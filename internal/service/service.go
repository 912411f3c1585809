// Package service implements the ban forms of the staff dashboard: reason
// building, validation, expiry calculation and the user lookups that go
// with them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/riskuniversalis/staffportal/internal/avatar"
	"github.com/riskuniversalis/staffportal/internal/expiry"
	"github.com/riskuniversalis/staffportal/internal/model"
)

// ReasonPresets are the checkboxes offered on the new-ban form.
var ReasonPresets = []string{"Griefing", "Exploiting", "Trolling", "Toxicity", "TOS Violation"}

// Validation messages shown to staff.
const (
	MsgInvalidReason   = "You must enter a valid ban reason!"
	MsgInvalidUsername = "You must enter a valid Roblox username to ban!"
	MsgInvalidLogsLink = "You must enter a valid logs link!"
)

// ValidationError is a form field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Backend is the part of the moderation API the forms need.
type Backend interface {
	PostBan(ctx context.Context, req model.PostBanRequest) error
	ModifyBan(ctx context.Context, username string, req model.ModifyBanRequest) error
	DeleteBan(ctx context.Context, username string) error
	BanHistory(ctx context.Context, username string) (*model.BanHistory, error)
	LookupUserID(ctx context.Context, username string) (int64, error)
}

// Service runs ban form submissions against the backend.
type Service struct {
	backend Backend
	avatars avatar.Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// New returns a Service. avatars may be nil, in which case lookups carry
// no headshot.
func New(b Backend, avatars avatar.Fetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, avatars: avatars, logger: logger, now: time.Now}
}

// BuildReason joins the checked presets and the free-text addition the way
// the ban form does: "A; B; extra", trimmed.
func BuildReason(presets []string, additional string) string {
	if len(presets) == 0 {
		return strings.TrimSpace(additional)
	}
	return strings.TrimSpace(strings.Join(presets, "; ") + "; " + additional)
}

// CanonicalReason maps a preset name case-insensitively onto ReasonPresets.
func CanonicalReason(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, p := range ReasonPresets {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	return "", false
}

// BanForm is the new-ban form.
type BanForm struct {
	Username     string
	Reasons      []string
	Additional   string
	LogsLink     string
	Duration     string
	Unappealable bool
}

// Validate checks the form in the order the dashboard reports problems.
func (f BanForm) Validate() error {
	for _, r := range f.Reasons {
		if _, ok := CanonicalReason(r); !ok {
			return &ValidationError{Field: "reasons", Message: fmt.Sprintf("Unknown ban reason %q.", r)}
		}
	}
	if BuildReason(f.Reasons, f.Additional) == "" {
		return &ValidationError{Field: "reason", Message: MsgInvalidReason}
	}
	if strings.TrimSpace(f.Username) == "" {
		return &ValidationError{Field: "username", Message: MsgInvalidUsername}
	}
	if strings.TrimSpace(f.LogsLink) == "" {
		return &ValidationError{Field: "logsLink", Message: MsgInvalidLogsLink}
	}
	return nil
}

// CreateBan validates f and posts the ban. It returns the request sent.
func (s *Service) CreateBan(ctx context.Context, f BanForm) (*model.PostBanRequest, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	presets := make([]string, len(f.Reasons))
	for i, r := range f.Reasons {
		presets[i], _ = CanonicalReason(r)
	}

	req := model.PostBanRequest{
		User:       strings.TrimSpace(f.Username),
		Reason:     BuildReason(presets, f.Additional),
		LogsLink:   strings.TrimSpace(f.LogsLink),
		ExpiresIn:  expiry.Unix(f.Duration, s.now()),
		Appealable: !f.Unappealable,
	}
	if err := s.backend.PostBan(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info("ban created", "user", req.User, "permanent", req.ExpiresIn == nil, "appealable", req.Appealable)
	return &req, nil
}

// ModifyForm is the modify-ban form.
type ModifyForm struct {
	Username string
	Reason   string
	Duration string
}

// ModifyBan replaces the reason and expiry of an active ban.
func (s *Service) ModifyBan(ctx context.Context, f ModifyForm) (*model.ModifyBanRequest, error) {
	username := strings.TrimSpace(f.Username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Message: MsgInvalidUsername}
	}
	reason := strings.TrimSpace(f.Reason)
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: MsgInvalidReason}
	}

	req := model.ModifyBanRequest{
		Reason:     reason,
		Expiration: expiry.Unix(f.Duration, s.now()),
	}
	if err := s.backend.ModifyBan(ctx, username, req); err != nil {
		return nil, err
	}
	s.logger.Info("ban modified", "user", username, "permanent", req.Expiration == nil)
	return &req, nil
}

// RemoveBan lifts username's ban.
func (s *Service) RemoveBan(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &ValidationError{Field: "username", Message: MsgInvalidUsername}
	}
	if err := s.backend.DeleteBan(ctx, username); err != nil {
		return err
	}
	s.logger.Info("ban removed", "user", username)
	return nil
}

// UserPreview identifies a Roblox user typed into a form.
type UserPreview struct {
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
	Avatar   string `json:"avatar,omitempty"`
}

// LookupUser resolves username and, when possible, its headshot.
func (s *Service) LookupUser(ctx context.Context, username string) (*UserPreview, error) {
	username = strings.TrimSpace(username)
	id, err := s.backend.LookupUserID(ctx, username)
	if err != nil {
		return nil, err
	}
	p := &UserPreview{Username: username, UserID: id}
	p.Avatar, _ = s.Profile(ctx, id)
	return p, nil
}

// Profile returns the headshot URL for userID. ok is false when there is
// none or the thumbnail API failed.
func (s *Service) Profile(ctx context.Context, userID int64) (url string, ok bool) {
	if s.avatars == nil || userID <= 0 {
		return "", false
	}
	u, ok, err := avatar.Headshot(ctx, s.avatars, userID)
	if err != nil {
		s.logger.Debug("headshot lookup failed", "user_id", userID, "error", err)
		return "", false
	}
	return u, ok
}

// HistoryResult is a user's ban record.
type HistoryResult struct {
	UserPreview
	IsBanned bool        `json:"isBanned"`
	Bans     []model.Ban `json:"bans"`
}

// History returns every ban of username together with the user's id and
// headshot. Unknown users yield backend.ErrUserNotFound.
func (s *Service) History(ctx context.Context, username string) (*HistoryResult, error) {
	preview, err := s.LookupUser(ctx, username)
	if err != nil {
		return nil, err
	}
	h, err := s.backend.BanHistory(ctx, preview.Username)
	if err != nil {
		return nil, fmt.Errorf("ban history for %s: %w", preview.Username, err)
	}
	return &HistoryResult{UserPreview: *preview, IsBanned: h.IsBanned, Bans: h.Bans}, nil
}

// IsValidation reports whether err is a form validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
