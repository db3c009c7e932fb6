package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/NITHINKR06/e-voting-backend/audit"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/gin-gonic/gin"
)

// bodyCaptureWriter tees the response body so the audit entry can carry the
// error message of a failed call.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// AuditMiddleware decorates a handler chain with an action and resource tag
// and records one entry per request after the outcome is known. Success is
// derived from the response status; the entry is handed to the recorder,
// which never blocks or fails the request.
func AuditMiddleware(recorder *audit.Recorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody string
		if c.Request.Method != http.MethodGet && c.Request.Body != nil {
			raw, err := io.ReadAll(c.Request.Body)
			if err == nil {
				requestBody = string(raw)
				c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			}
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		entry := &storage.AuditLogEntry{
			UserID:     c.GetString(ContextVoterIDKey),
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID(c, requestBody),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Details: &storage.AuditDetails{
				Method:     c.Request.Method,
				Path:       c.Request.URL.Path,
				Query:      c.Request.URL.RawQuery,
				Body:       requestBody,
				DurationMS: time.Since(start).Milliseconds(),
				StatusCode: status,
			},
			Success: status < http.StatusBadRequest,
		}
		if !entry.Success {
			entry.ErrorMessage = extractErrorMessage(writer.body.Bytes())
		}

		recorder.Record(entry)
	}
}

func resourceID(c *gin.Context, requestBody string) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	if requestBody == "" {
		return ""
	}
	var payload struct {
		ID          string `json:"id"`
		CandidateID string `json:"candidateId"`
	}
	if err := json.Unmarshal([]byte(requestBody), &payload); err != nil {
		return ""
	}
	if payload.ID != "" {
		return payload.ID
	}
	return payload.CandidateID
}

func extractErrorMessage(responseBody []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(responseBody, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
