package controllers

import (
	"context"
	"errors"
	"fmt"
	"github.com/NITHINKR06/e-voting-backend/api/models"
	"github.com/NITHINKR06/e-voting-backend/api/transport"
	"github.com/NITHINKR06/e-voting-backend/audit"
	"github.com/NITHINKR06/e-voting-backend/auth"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/NITHINKR06/e-voting-backend/mail"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"net/http"
	"strings"
	"time"
)

const mailDispatchTimeout = 10 * time.Second

type AuthController struct {
	voters      storage.VoterStorage
	mailer      mail.Sender
	recorder    *audit.Recorder
	secret      []byte
	emailDomain string
	limiter     gin.HandlerFunc
}

func NewAuthController(voters storage.VoterStorage, mailer mail.Sender, recorder *audit.Recorder, secret []byte, emailDomain string, limiter gin.HandlerFunc) *AuthController {
	return &AuthController{
		voters:      voters,
		mailer:      mailer,
		recorder:    recorder,
		secret:      secret,
		emailDomain: emailDomain,
		limiter:     limiter,
	}
}

func (c *AuthController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/auth", c.limiter)

	group.POST("/register", transport.AuditMiddleware(c.recorder, "REGISTER", "auth"), c.register)
	group.POST("/login", transport.AuditMiddleware(c.recorder, "LOGIN", "auth"), c.login)
	group.POST("/verify-otp", transport.AuditMiddleware(c.recorder, "VERIFY_OTP", "auth"), c.verifyOTP)
}

// register godoc
// @Summary Register a new voter
// @Description Creates an unverified voter account bound to the institutional email domain
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse "Invalid data or duplicate email"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/auth/register [post]
func (c *AuthController) register(g *gin.Context) {
	var req models.RegisterRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	email := strings.ToLower(req.Email)
	if !strings.HasSuffix(email, c.emailDomain) {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: fmt.Sprintf("invalid email domain, only %s is allowed", c.emailDomain)})
		return
	}

	_, err := c.voters.GetByEmail(g.Request.Context(), email)
	if err == nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "user already exists"})
		return
	}
	if !errors.Is(err, storage.ErrVoterNotFound) {
		logging.Log.Errorf("AUTH: failed to look up voter: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	hash, err := auth.HashPassword(req.Password, auth.VoterHashCost)
	if err != nil {
		logging.Log.Errorf("AUTH: failed to hash password: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	voter := &storage.Voter{
		ID:         uuid.NewString(),
		Name:       req.Name,
		RollNumber: req.RollNumber,
		Email:      email,
		Password:   hash,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.voters.Create(g.Request.Context(), voter); err != nil {
		logging.Log.Errorf("AUTH: failed to create voter: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	g.JSON(http.StatusOK, &models.MessageResponse{Message: "user registered successfully"})
}

// login godoc
// @Summary Start a login and issue a one-time code
// @Description Validates credentials, stores a 6-digit code valid for 5 minutes and dispatches it by mail. The response never reveals whether the account exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse "Invalid credentials"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/auth/login [post]
func (c *AuthController) login(g *gin.Context) {
	var req models.LoginRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	voter, err := c.voters.GetByEmail(g.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrVoterNotFound) {
			// Same body as a wrong password, so accounts cannot be enumerated.
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid credentials"})
			return
		}
		logging.Log.Errorf("AUTH: failed to look up voter: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}
	if !auth.CheckPassword(voter.Password, req.Password) {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid credentials"})
		return
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		logging.Log.Errorf("AUTH: failed to generate OTP: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	expires := time.Now().UTC().Add(auth.OTPValidity)
	if err := c.voters.SetPendingOTP(g.Request.Context(), voter.ID, code, expires); err != nil {
		logging.Log.Errorf("AUTH: failed to store pending OTP: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	// The code is valid once persisted; delivery is best effort and a slow
	// or failing mail gateway never fails the login.
	c.dispatchOTP(voter.Email, code)

	g.JSON(http.StatusOK, &models.MessageResponse{Message: "OTP sent to email"})
}

// verifyOTP godoc
// @Summary Exchange a one-time code for a session token
// @Description Consumes a pending code, marks the voter verified and returns a 1h session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.VerifyOTPRequest true "Email and code"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} models.ErrorResponse "Invalid or expired OTP"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/auth/verify-otp [post]
func (c *AuthController) verifyOTP(g *gin.Context) {
	var req models.VerifyOTPRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	voter, err := c.voters.GetByEmail(g.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrVoterNotFound) {
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid or expired OTP"})
			return
		}
		logging.Log.Errorf("AUTH: failed to look up voter: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	// An expired code is only logically stale: it stays on the record until
	// the next login overwrites it, so expiry is checked here.
	if voter.OTP == "" || voter.OTP != req.OTP || voter.OTPExpires == nil || time.Now().After(*voter.OTPExpires) {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid or expired OTP"})
		return
	}

	// Conditional on the stored code still matching: a concurrent verify
	// with the same code loses and gets the same invalid-OTP answer.
	if err := c.voters.ClearOTP(g.Request.Context(), voter.ID, req.OTP); err != nil {
		if errors.Is(err, storage.ErrOTPMismatch) {
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid or expired OTP"})
			return
		}
		logging.Log.Errorf("AUTH: failed to clear OTP: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	token, err := auth.GenerateToken(voter.ID, voter.Admin, c.secret, auth.VoterTokenValidity)
	if err != nil {
		logging.Log.Errorf("AUTH: failed to sign token: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "server error"})
		return
	}

	g.JSON(http.StatusOK, &models.TokenResponse{Token: token})
}

func (c *AuthController) dispatchOTP(email, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
		defer cancel()

		subject := "Your OTP for E-Voting verification"
		body := fmt.Sprintf("Your OTP is: %s. It expires in 5 minutes.", code)
		if err := c.mailer.Send(ctx, email, subject, body); err != nil {
			logging.Log.Errorf("AUTH: OTP delivery to %s failed: %v", email, err)
		}
	}()
}
