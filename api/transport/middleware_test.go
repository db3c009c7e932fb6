package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NITHINKR06/e-voting-backend/audit"
	"github.com/NITHINKR06/e-voting-backend/auth"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
)

var testSecret = []byte("unit-test-secret")

func performRequest(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestAuthMiddleware(t *testing.T) {
	logging.Log = logrus.New()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/protected", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"voterId": c.GetString(ContextVoterIDKey),
			"admin":   c.GetBool(ContextAdminKey),
		})
	})

	t.Run("Unhappy path - missing header", func(t *testing.T) {
		res := performRequest(r, http.MethodGet, "/protected", "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Unhappy path - malformed header", func(t *testing.T) {
		res := performRequest(r, http.MethodGet, "/protected", "", map[string]string{"Authorization": "Token abc"})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Unhappy path - token signed with another secret", func(t *testing.T) {
		token, err := auth.GenerateToken("v1", false, []byte("another-secret"), time.Hour)
		require.NoError(t, err)

		res := performRequest(r, http.MethodGet, "/protected", "", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Happy path - identity lands on the context", func(t *testing.T) {
		token, err := auth.GenerateToken("v1", true, testSecret, time.Hour)
		require.NoError(t, err)

		res := performRequest(r, http.MethodGet, "/protected", "", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Body.String(), `"voterId":"v1"`)
		assert.Contains(t, res.Body.String(), `"admin":true`)
	})
}

func TestAdminMiddleware(t *testing.T) {
	logging.Log = logrus.New()
	gin.SetMode(gin.TestMode)

	voters := storage.NewMemoryVoterStorage()
	require.NoError(t, voters.Create(context.Background(), &storage.Voter{ID: "admin-1", Email: "admin@nmamit.in", Admin: true}))
	require.NoError(t, voters.Create(context.Background(), &storage.Voter{ID: "voter-1", Email: "alice@nmamit.in"}))

	r := gin.New()
	r.GET("/admin", AuthMiddleware(testSecret), AdminMiddleware(voters), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	bearer := func(voterID string, admin bool) map[string]string {
		token, err := auth.GenerateToken(voterID, admin, testSecret, time.Hour)
		require.NoError(t, err)
		return map[string]string{"Authorization": "Bearer " + token}
	}

	t.Run("Happy path - admin passes", func(t *testing.T) {
		res := performRequest(r, http.MethodGet, "/admin", "", bearer("admin-1", true))
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("Unhappy path - token without the admin claim", func(t *testing.T) {
		res := performRequest(r, http.MethodGet, "/admin", "", bearer("voter-1", false))
		assert.Equal(t, http.StatusForbidden, res.Code)
		assert.Contains(t, res.Body.String(), "admin access required")
	})

	t.Run("Unhappy path - claim without a matching admin record", func(t *testing.T) {
		res := performRequest(r, http.MethodGet, "/admin", "", bearer("voter-1", true))
		assert.Equal(t, http.StatusForbidden, res.Code)
		assert.Contains(t, res.Body.String(), "admin access revoked")
	})
}

func TestAuditMiddleware(t *testing.T) {
	logging.Log = logrus.New()
	gin.SetMode(gin.TestMode)

	logs := storage.NewMemoryAuditLogStorage()
	recorder := audit.NewRecorder(logs, 16)
	t.Cleanup(recorder.Close)

	r := gin.New()
	r.POST("/vote", AuditMiddleware(recorder, "VOTE", "candidate"), func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you have already voted"})
	})

	res := performRequest(r, http.MethodPost, "/vote?src=test", `{"candidateId":"cand0001"}`, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "you have already voted",
		"The handler must still see the request body after the capture")

	var entries []*storage.AuditLogEntry
	assert.Eventually(t, func() bool {
		var err error
		entries, err = logs.List(context.Background(), storage.AuditLogFilter{})
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entry := entries[0]
	assert.Equal(t, "VOTE", entry.Action)
	assert.Equal(t, "candidate", entry.Resource)
	assert.Equal(t, "cand0001", entry.ResourceID, "Resource id is lifted from the request body")
	assert.False(t, entry.Success)
	assert.Equal(t, "you have already voted", entry.ErrorMessage)
	require.NotNil(t, entry.Details)
	assert.Equal(t, http.MethodPost, entry.Details.Method)
	assert.Equal(t, "/vote", entry.Details.Path)
	assert.Equal(t, "src=test", entry.Details.Query)
	assert.Equal(t, `{"candidateId":"cand0001"}`, entry.Details.Body)
	assert.Equal(t, http.StatusBadRequest, entry.Details.StatusCode)
}

func TestRateLimitMiddleware(t *testing.T) {
	logging.Log = logrus.New()
	gin.SetMode(gin.TestMode)

	t.Run("Disabled outside production", func(t *testing.T) {
		r := gin.New()
		r.GET("/ping", RateLimitMiddleware(limiter.Rate{Period: time.Hour, Limit: 1}, false), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		for i := 0; i < 5; i++ {
			res := performRequest(r, http.MethodGet, "/ping", "", nil)
			assert.Equal(t, http.StatusOK, res.Code)
		}
	})

	t.Run("Enabled - second request over the limit is rejected", func(t *testing.T) {
		r := gin.New()
		r.GET("/ping", RateLimitMiddleware(limiter.Rate{Period: time.Hour, Limit: 1}, true), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		first := performRequest(r, http.MethodGet, "/ping", "", nil)
		second := performRequest(r, http.MethodGet, "/ping", "", nil)
		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
	})
}
