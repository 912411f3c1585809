package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Ban is a moderation record suspending a player, optionally time-limited.
type Ban struct {
	ID           int64      `json:"ban_id"`
	BannedUser   string     `json:"banned_user"`
	BannedUserID int64      `json:"banned_user_id"`
	BannedBy     string     `json:"banned_by"`
	Reason       string     `json:"reason"`
	LogsLink     string     `json:"logsLink"`
	Expires      *int64     `json:"expires"` // unix seconds, nil = permanent
	LoggedAt     int64      `json:"logged_at"`
	Appealable   Appealable `json:"appealable"`
}

// IsPermanent reports whether the ban has no expiry.
func (b Ban) IsPermanent() bool {
	return b.Expires == nil
}

// Appealable is the backend's tri-state appeal flag. The backend stores it
// as a boolean, a 0/1 integer, or null; an unspecified value means the ban
// can be appealed.
type Appealable struct {
	Set   bool
	Value bool
}

// AppealableOf returns an explicitly set flag.
func AppealableOf(v bool) Appealable {
	return Appealable{Set: true, Value: v}
}

// IsAppealable is false only when the backend explicitly said so.
func (a Appealable) IsAppealable() bool {
	return !a.Set || a.Value
}

// UnmarshalJSON accepts true, false, 1, 0 and null.
func (a *Appealable) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "":
		*a = Appealable{}
		return nil
	case "true":
		*a = AppealableOf(true)
		return nil
	case "false":
		*a = AppealableOf(false)
		return nil
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("appealable: unsupported value %s", data)
	}
	*a = AppealableOf(n != 0)
	return nil
}

// MarshalJSON writes null for an unspecified flag.
func (a Appealable) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// BanHistory is the response of the ban history endpoint.
type BanHistory struct {
	IsBanned bool  `json:"isBanned"`
	Bans     []Ban `json:"banHistory"`
}

// PostBanRequest is the body of a new ban.
type PostBanRequest struct {
	User       string `json:"user"`
	Reason     string `json:"reason"`
	LogsLink   string `json:"logsLink"`
	ExpiresIn  *int64 `json:"expiresIn"`
	Appealable bool   `json:"appealable"`
}

// ModifyBanRequest is the body of a ban modification.
type ModifyBanRequest struct {
	Reason     string `json:"reason"`
	Expiration *int64 `json:"expiration"`
}
