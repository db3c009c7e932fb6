package controllers

import (
	"bytes"
	"context"
	"errors"
	"github.com/NITHINKR06/e-voting-backend/api/models"
	"github.com/NITHINKR06/e-voting-backend/api/transport"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/gin-gonic/gin"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAuditPageSize = 50
	userAuditLimit       = 100
	suspiciousLimit      = 20
	topListLimit         = 10
)

var errInvalidDate = errors.New("invalid date format, expected RFC3339")

type AuditController struct {
	logs   storage.AuditLogStorage
	voters storage.VoterStorage
	secret []byte
}

func NewAuditController(logs storage.AuditLogStorage, voters storage.VoterStorage, secret []byte) *AuditController {
	return &AuditController{
		logs:   logs,
		voters: voters,
		secret: secret,
	}
}

func (c *AuditController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/audit", transport.AuthMiddleware(c.secret), transport.AdminMiddleware(c.voters))

	group.GET("", c.listLogs)
	group.GET("/stats", c.stats)
	group.GET("/user/:id", c.userLogs)
	group.GET("/export", c.export)
}

// listLogs godoc
// @Summary List audit log entries
// @Description Filtered, paginated audit entries, newest first
// @Tags audit
// @Produce json
// @Security BearerToken
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 50)"
// @Param action query string false "Action tag"
// @Param userId query string false "Actor id"
// @Param ipAddress query string false "Source address substring"
// @Param success query bool false "Outcome"
// @Param startDate query string false "RFC3339 lower bound"
// @Param endDate query string false "RFC3339 upper bound"
// @Success 200 {object} models.AuditLogListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/audit [get]
func (c *AuditController) listLogs(g *gin.Context) {
	filter, err := parseAuditFilter(g)
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: err.Error()})
		return
	}

	page := positiveIntQuery(g, "page", 1)
	limit := positiveIntQuery(g, "limit", defaultAuditPageSize)

	entries, err := c.logs.List(g.Request.Context(), filter)
	if err != nil {
		logging.Log.Errorf("AUDIT: failed to list entries: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load audit logs"})
		return
	}

	total := len(entries)
	pages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pageEntries := entries[start:end]

	actors := c.resolveActors(g.Request.Context(), pageEntries)
	logs := make([]models.AuditEntryResponse, 0, len(pageEntries))
	for _, e := range pageEntries {
		logs = append(logs, models.TransformAuditEntry(e, actors[e.UserID]))
	}

	g.JSON(http.StatusOK, &models.AuditLogListResponse{
		Logs: logs,
		Pagination: models.PaginationInfo{
			Current: page,
			Pages:   pages,
			Total:   total,
		},
	})
}

// stats godoc
// @Summary Security statistics over the audit trail
// @Description Rolling-window counts: totals, 24h failures and distinct IPs, 7d top actions and IPs, recent suspicious activity
// @Tags audit
// @Produce json
// @Security BearerToken
// @Success 200 {object} models.AuditStatsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/audit/stats [get]
func (c *AuditController) stats(g *gin.Context) {
	entries, err := c.logs.List(g.Request.Context(), storage.AuditLogFilter{})
	if err != nil {
		logging.Log.Errorf("AUDIT: failed to load entries for stats: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not compute stats"})
		return
	}

	now := time.Now().UTC()
	last24h := now.Add(-24 * time.Hour)
	last7d := now.Add(-7 * 24 * time.Hour)

	var failed24h int
	ips24h := map[string]bool{}
	actionCounts := map[string]int{}
	ipCounts := map[string]int{}
	var suspicious []*storage.AuditLogEntry

	for _, e := range entries {
		if !e.Timestamp.Before(last24h) {
			ips24h[e.IPAddress] = true
			if !e.Success {
				failed24h++
				if len(suspicious) < suspiciousLimit {
					suspicious = append(suspicious, e)
				}
			}
		}
		if !e.Timestamp.Before(last7d) {
			actionCounts[e.Action]++
			ipCounts[e.IPAddress]++
		}
	}

	actors := c.resolveActors(g.Request.Context(), suspicious)
	suspiciousResponses := make([]models.AuditEntryResponse, 0, len(suspicious))
	for _, e := range suspicious {
		suspiciousResponses = append(suspiciousResponses, models.TransformAuditEntry(e, actors[e.UserID]))
	}

	g.JSON(http.StatusOK, &models.AuditStatsResponse{
		Stats: models.AuditStats{
			TotalLogs:               len(entries),
			FailedAttempts24h:       failed24h,
			UniqueIPs24h:            len(ips24h),
			SuspiciousActivityCount: len(suspiciousResponses),
		},
		TopActions:               topActions(actionCounts),
		TopIPs:                   topIPs(ipCounts),
		RecentSuspiciousActivity: suspiciousResponses,
	})
}

// userLogs godoc
// @Summary Recent audit entries for one actor
// @Tags audit
// @Produce json
// @Security BearerToken
// @Param id path string true "Actor id"
// @Success 200 {array} models.AuditEntryResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/audit/user/{id} [get]
func (c *AuditController) userLogs(g *gin.Context) {
	entries, err := c.logs.ListByUser(g.Request.Context(), g.Param("id"), userAuditLimit)
	if err != nil {
		logging.Log.Errorf("AUDIT: failed to list user entries: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load audit logs"})
		return
	}

	actors := c.resolveActors(g.Request.Context(), entries)
	logs := make([]models.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, models.TransformAuditEntry(e, actors[e.UserID]))
	}
	g.JSON(http.StatusOK, logs)
}

// export godoc
// @Summary Export the audit trail as CSV
// @Description One row per entry, newest first, every field quoted
// @Tags audit
// @Produce text/csv
// @Security BearerToken
// @Param startDate query string false "RFC3339 lower bound"
// @Param endDate query string false "RFC3339 upper bound"
// @Success 200 {string} string "CSV data"
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/audit/export [get]
func (c *AuditController) export(g *gin.Context) {
	filter, err := parseAuditFilter(g)
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: err.Error()})
		return
	}

	entries, err := c.logs.List(g.Request.Context(), filter)
	if err != nil {
		logging.Log.Errorf("AUDIT: failed to list entries for export: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not export audit logs"})
		return
	}

	actors := c.resolveActors(g.Request.Context(), entries)

	g.Header("Content-Disposition", "attachment; filename=audit-logs.csv")
	g.Data(http.StatusOK, "text/csv", exportCSV(entries, actors))
}

// exportCSV renders the export format: fixed header, one row per entry,
// every field double-quoted. encoding/csv only quotes on demand, which
// would break byte-stable exports, so the quoting is done by hand.
func exportCSV(entries []*storage.AuditLogEntry, actors map[string]*storage.Voter) []byte {
	header := []string{"Timestamp", "User", "Email", "Action", "Resource", "IP Address", "User Agent", "Success", "Error Message"}

	var buf bytes.Buffer
	writeCSVRow(&buf, header)
	for _, e := range entries {
		name, email := "N/A", "N/A"
		if actor := actors[e.UserID]; actor != nil {
			name, email = actor.Name, actor.Email
		}
		writeCSVRow(&buf, []string{
			e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
			name,
			email,
			e.Action,
			e.Resource,
			e.IPAddress,
			e.UserAgent,
			strconv.FormatBool(e.Success),
			e.ErrorMessage,
		})
	}
	return buf.Bytes()
}

func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// resolveActors batch-resolves the distinct actor ids of a set of entries.
// Unknown or deleted actors are simply absent from the result.
func (c *AuditController) resolveActors(ctx context.Context, entries []*storage.AuditLogEntry) map[string]*storage.Voter {
	actors := map[string]*storage.Voter{}
	for _, e := range entries {
		if e.UserID == "" {
			continue
		}
		if _, seen := actors[e.UserID]; seen {
			continue
		}
		voter, err := c.voters.GetByID(ctx, e.UserID)
		if err != nil {
			actors[e.UserID] = nil
			continue
		}
		actors[e.UserID] = voter
	}
	return actors
}

func parseAuditFilter(g *gin.Context) (storage.AuditLogFilter, error) {
	filter := storage.AuditLogFilter{
		Action:    g.Query("action"),
		UserID:    g.Query("userId"),
		IPAddress: g.Query("ipAddress"),
	}

	if raw := g.Query("success"); raw != "" {
		success := raw == "true"
		filter.Success = &success
	}
	if raw := g.Query("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errInvalidDate
		}
		filter.Start = &t
	}
	if raw := g.Query("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errInvalidDate
		}
		filter.End = &t
	}
	return filter, nil
}

func positiveIntQuery(g *gin.Context, name string, fallback int) int {
	raw := g.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func topActions(counts map[string]int) []models.ActionCount {
	result := make([]models.ActionCount, 0, len(counts))
	for action, count := range counts {
		result = append(result, models.ActionCount{Action: action, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Action < result[j].Action
	})
	if len(result) > topListLimit {
		result = result[:topListLimit]
	}
	return result
}

func topIPs(counts map[string]int) []models.IPCount {
	result := make([]models.IPCount, 0, len(counts))
	for ip, count := range counts {
		result = append(result, models.IPCount{IPAddress: ip, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].IPAddress < result[j].IPAddress
	})
	if len(result) > topListLimit {
		result = result[:topListLimit]
	}
	return result
}
