package transport

import (
	"net/http"
	"strings"
	"time"

	"github.com/NITHINKR06/e-voting-backend/auth"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	ContextVoterIDKey = "voterID"
	ContextAdminKey   = "isAdmin"
)

// Rate limits matching the production policy: 5 auth attempts per 15
// minutes and 1 vote per hour, keyed by source address.
var (
	AuthRate = limiter.Rate{Period: 15 * time.Minute, Limit: 5}
	VoteRate = limiter.Rate{Period: time.Hour, Limit: 1}
)

// AuthMiddleware validates the bearer token and stores the voter identity
// and privilege on the request context.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			logging.Log.Warnf("AUTH: rejected token on %s: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextVoterIDKey, claims.VoterID)
		c.Set(ContextAdminKey, claims.Admin)
		c.Next()
	}
}

// AdminMiddleware requires an admin claim and re-checks the stored record,
// so a revoked administrator is locked out as soon as the flag is cleared,
// not when the token expires.
func AdminMiddleware(voters storage.VoterStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextAdminKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		voter, err := voters.GetByID(c.Request.Context(), c.GetString(ContextVoterIDKey))
		if err != nil || !voter.Admin {
			logging.Log.Warnf("ADMIN: revoked or unknown admin attempted %s", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access revoked"})
			return
		}

		c.Next()
	}
}

// RateLimitMiddleware limits by client IP with an in-process store. Outside
// production it is a no-op, mirroring the development skip of the previous
// deployment.
func RateLimitMiddleware(rate limiter.Rate, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return mgin.NewMiddleware(limiter.New(memory.NewStore(), rate))
}
