package controllers

import (
	"errors"
	"github.com/NITHINKR06/e-voting-backend/api/models"
	"github.com/NITHINKR06/e-voting-backend/api/transport"
	"github.com/NITHINKR06/e-voting-backend/audit"
	"github.com/NITHINKR06/e-voting-backend/auth"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"net/http"
	"strings"
	"time"
)

// AdminAuthController is the password-only login path for administrator
// accounts. It bypasses the OTP handshake and issues a longer-lived token
// carrying the admin claim.
type AdminAuthController struct {
	voters         storage.VoterStorage
	recorder       *audit.Recorder
	secret         []byte
	creationSecret string
	limiter        gin.HandlerFunc
}

func NewAdminAuthController(voters storage.VoterStorage, recorder *audit.Recorder, secret []byte, creationSecret string, limiter gin.HandlerFunc) *AdminAuthController {
	return &AdminAuthController{
		voters:         voters,
		recorder:       recorder,
		secret:         secret,
		creationSecret: creationSecret,
		limiter:        limiter,
	}
}

func (c *AdminAuthController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/admin-auth", c.limiter)

	group.POST("/login", transport.AuditMiddleware(c.recorder, "ADMIN_LOGIN", "auth"), c.login)
	group.POST("/create", transport.AuditMiddleware(c.recorder, "ADMIN_CREATE", "auth"), c.createAdmin)
}

// login godoc
// @Summary Admin login
// @Description Password-only login for administrator accounts, returns an 8h session token
// @Tags admin-auth
// @Accept json
// @Produce json
// @Param request body models.AdminLoginRequest true "Admin credentials"
// @Success 200 {object} models.AdminLoginResponse
// @Failure 400 {object} models.ErrorResponse "Invalid admin credentials"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/admin-auth/login [post]
func (c *AdminAuthController) login(g *gin.Context) {
	var req models.AdminLoginRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	voter, err := c.voters.GetByEmail(g.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrVoterNotFound) {
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid admin credentials"})
			return
		}
		logging.Log.Errorf("ADMIN-AUTH: failed to look up account: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	// Non-admin accounts get the same answer as a bad password.
	if !voter.Admin || !auth.CheckPassword(voter.Password, req.Password) {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid admin credentials"})
		return
	}

	token, err := auth.GenerateToken(voter.ID, true, c.secret, auth.AdminTokenValidity)
	if err != nil {
		logging.Log.Errorf("ADMIN-AUTH: failed to sign token: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	g.JSON(http.StatusOK, &models.AdminLoginResponse{
		Message: "admin login successful",
		Token:   token,
		User: models.AdminUserInfo{
			ID:    voter.ID,
			Name:  voter.Name,
			Email: voter.Email,
			Admin: voter.Admin,
		},
	})
}

// createAdmin godoc
// @Summary Create an administrator account
// @Description Creates a verified admin account; requires the configured creation secret when one is set
// @Tags admin-auth
// @Accept json
// @Produce json
// @Param request body models.CreateAdminRequest true "Admin account data"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse "Invalid data or duplicate email"
// @Failure 403 {object} models.ErrorResponse "Invalid creation secret"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/admin-auth/create [post]
func (c *AdminAuthController) createAdmin(g *gin.Context) {
	var req models.CreateAdminRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	if c.creationSecret != "" && req.AdminSecret != c.creationSecret {
		logging.Log.Warnf("ADMIN-AUTH: admin creation attempt with bad secret from %s", g.ClientIP())
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "invalid admin creation secret"})
		return
	}

	email := strings.ToLower(req.Email)
	_, err := c.voters.GetByEmail(g.Request.Context(), email)
	if err == nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "user already exists"})
		return
	}
	if !errors.Is(err, storage.ErrVoterNotFound) {
		logging.Log.Errorf("ADMIN-AUTH: failed to look up account: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	hash, err := auth.HashPassword(req.Password, auth.AdminHashCost)
	if err != nil {
		logging.Log.Errorf("ADMIN-AUTH: failed to hash password: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	admin := &storage.Voter{
		ID:         uuid.NewString(),
		Name:       req.Name,
		RollNumber: req.RollNumber,
		Email:      email,
		Password:   hash,
		Admin:      true,
		Verified:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.voters.Create(g.Request.Context(), admin); err != nil {
		logging.Log.Errorf("ADMIN-AUTH: failed to create admin: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	g.JSON(http.StatusOK, &models.MessageResponse{Message: "admin user created successfully"})
}
