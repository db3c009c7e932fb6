package models

import (
	"github.com/NITHINKR06/e-voting-backend/storage"
	"time"
)

type AuditEntryResponse struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"userId,omitempty"`
	UserName     string                 `json:"userName,omitempty"`
	UserEmail    string                 `json:"userEmail,omitempty"`
	Action       string                 `json:"action"`
	Resource     string                 `json:"resource"`
	ResourceID   string                 `json:"resourceId,omitempty"`
	IPAddress    string                 `json:"ipAddress"`
	UserAgent    string                 `json:"userAgent"`
	Details      *storage.AuditDetails  `json:"details,omitempty"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

type PaginationInfo struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

type AuditLogListResponse struct {
	Logs       []AuditEntryResponse `json:"logs"`
	Pagination PaginationInfo       `json:"pagination"`
}

type AuditStats struct {
	TotalLogs               int `json:"totalLogs"`
	FailedAttempts24h       int `json:"failedAttempts24h"`
	UniqueIPs24h            int `json:"uniqueIPs24h"`
	SuspiciousActivityCount int `json:"suspiciousActivityCount"`
}

type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

type IPCount struct {
	IPAddress string `json:"ipAddress"`
	Count     int    `json:"count"`
}

type AuditStatsResponse struct {
	Stats                    AuditStats           `json:"stats"`
	TopActions               []ActionCount        `json:"topActions"`
	TopIPs                   []IPCount            `json:"topIPs"`
	RecentSuspiciousActivity []AuditEntryResponse `json:"recentSuspiciousActivity"`
}

// TransformAuditEntry joins an audit entry with the actor record looked up
// for it, when one exists.
func TransformAuditEntry(e *storage.AuditLogEntry, actor *storage.Voter) AuditEntryResponse {
	resp := AuditEntryResponse{
		ID:           e.ID,
		UserID:       e.UserID,
		Action:       e.Action,
		Resource:     e.Resource,
		ResourceID:   e.ResourceID,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		Details:      e.Details,
		Success:      e.Success,
		ErrorMessage: e.ErrorMessage,
		Timestamp:    e.Timestamp,
	}
	if actor != nil {
		resp.UserName = actor.Name
		resp.UserEmail = actor.Email
	}
	return resp
}
