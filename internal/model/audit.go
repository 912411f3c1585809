package model

import "fmt"

// AuditAction is the kind of admin action recorded in the audit log.
type AuditAction string

const (
	ActionBan    AuditAction = "ban"
	ActionModify AuditAction = "modify"
	ActionUnban  AuditAction = "unban"
)

// ParseAuditAction validates an action filter value.
func ParseAuditAction(s string) (AuditAction, error) {
	switch a := AuditAction(s); a {
	case ActionBan, ActionModify, ActionUnban:
		return a, nil
	}
	return "", fmt.Errorf("unknown audit action %q (expected ban, modify or unban)", s)
}

// Label is the human readable name used by the action filter.
func (a AuditAction) Label() string {
	switch a {
	case ActionBan:
		return "Ban"
	case ActionModify:
		return "Modify Ban"
	case ActionUnban:
		return "Unban"
	}
	return string(a)
}

// AuditEntry records one admin action for accountability.
type AuditEntry struct {
	ActionID   int64       `json:"action_id"`
	AdminID    int64       `json:"admin_roblox_id"`
	AdminName  *string     `json:"admin_roblox_name"`
	Action     AuditAction `json:"action"`
	Timestamp  int64       `json:"timestamp"`
	TargetID   int64       `json:"player_roblox_id"`
	TargetName *string     `json:"player_roblox_name"`
}

// Admin returns the admin's name or an empty string.
func (e AuditEntry) Admin() string {
	if e.AdminName == nil {
		return ""
	}
	return *e.AdminName
}

// Target returns the target's name or an empty string.
func (e AuditEntry) Target() string {
	if e.TargetName == nil {
		return ""
	}
	return *e.TargetName
}
