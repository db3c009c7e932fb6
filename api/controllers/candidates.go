package controllers

import (
	"errors"
	"github.com/NITHINKR06/e-voting-backend/api/models"
	"github.com/NITHINKR06/e-voting-backend/api/transport"
	"github.com/NITHINKR06/e-voting-backend/audit"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"net/http"
)

type CandidateController struct {
	candidates  storage.CandidateStorage
	voters      storage.VoterStorage
	recorder    *audit.Recorder
	secret      []byte
	voteLimiter gin.HandlerFunc
}

func NewCandidateController(candidates storage.CandidateStorage, voters storage.VoterStorage, recorder *audit.Recorder, secret []byte, voteLimiter gin.HandlerFunc) *CandidateController {
	return &CandidateController{
		candidates:  candidates,
		voters:      voters,
		recorder:    recorder,
		secret:      secret,
		voteLimiter: voteLimiter,
	}
}

func (c *CandidateController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/candidates")
	group.GET("", c.list)
	group.POST("/vote", c.voteLimiter, transport.AuthMiddleware(c.secret),
		transport.AuditMiddleware(c.recorder, "VOTE", "candidate"), c.vote)

	admin := engine.Group("/api/admin/candidates", transport.AuthMiddleware(c.secret), transport.AdminMiddleware(c.voters))
	admin.POST("", transport.AuditMiddleware(c.recorder, "CANDIDATE_CREATE", "candidate"), c.create)
	admin.PUT("/:id", transport.AuditMiddleware(c.recorder, "CANDIDATE_UPDATE", "candidate"), c.update)
	admin.DELETE("/:id", transport.AuditMiddleware(c.recorder, "CANDIDATE_DELETE", "candidate"), c.delete)
}

// list godoc
// @Summary List all candidates
// @Tags candidates
// @Produce json
// @Success 200 {array} storage.Candidate
// @Failure 500 {object} models.ErrorResponse
// @Router /api/candidates [get]
func (c *CandidateController) list(g *gin.Context) {
	candidates, err := c.candidates.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("CANDIDATE: failed to list candidates: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load candidates"})
		return
	}
	g.JSON(http.StatusOK, candidates)
}

// vote godoc
// @Summary Cast a vote
// @Description Casts the authenticated voter's single vote for a candidate
// @Tags candidates
// @Accept json
// @Produce json
// @Security BearerToken
// @Param request body models.VoteRequest true "Candidate to vote for"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse "Already voted"
// @Failure 401 {object} models.ErrorResponse "Missing or invalid token"
// @Failure 404 {object} models.ErrorResponse "Candidate not found"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/candidates/vote [post]
func (c *CandidateController) vote(g *gin.Context) {
	var req models.VoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	voterID := g.GetString(transport.ContextVoterIDKey)

	if _, err := c.candidates.Get(g.Request.Context(), req.CandidateID); err != nil {
		if errors.Is(err, storage.ErrCandidateNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "candidate not found"})
			return
		}
		logging.Log.Errorf("VOTE: failed to load candidate: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record vote"})
		return
	}

	// Claim the vote first. The conditional update makes the false->true
	// flip atomic, so of N concurrent votes by the same voter exactly one
	// reaches the tally below.
	if err := c.voters.ClaimVote(g.Request.Context(), voterID); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyVoted):
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "you have already voted"})
		case errors.Is(err, storage.ErrVoterNotFound):
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "voter not found"})
		default:
			logging.Log.Errorf("VOTE: failed to claim vote for %s: %v", voterID, err)
			g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record vote"})
		}
		return
	}

	// The tally only moves after the claim committed.
	if err := c.candidates.IncrementVotes(g.Request.Context(), req.CandidateID); err != nil {
		logging.Log.Errorf("VOTE: claim committed but tally increment failed for candidate %s: %v", req.CandidateID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record vote"})
		return
	}

	g.JSON(http.StatusOK, &models.MessageResponse{Message: "vote cast successfully"})
}

// create godoc
// @Summary Create a candidate
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerToken
// @Param request body models.CandidateCreateRequest true "Candidate data"
// @Success 200 {object} storage.Candidate
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/candidates [post]
func (c *CandidateController) create(g *gin.Context) {
	var req models.CandidateCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	id, err := gonanoid.Generate(models.Alphabet, 8)
	if err != nil {
		logging.Log.Errorf("CANDIDATE: failed to generate id: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not create candidate"})
		return
	}

	candidate := &storage.Candidate{
		ID:          id,
		Name:        req.Name,
		Party:       req.Party,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	}
	if err := c.candidates.Create(g.Request.Context(), candidate); err != nil {
		logging.Log.Errorf("CANDIDATE: failed to create candidate: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not create candidate"})
		return
	}

	logging.Log.Infof("ADMIN: created candidate %s (%s)", candidate.Name, candidate.ID)
	g.JSON(http.StatusOK, candidate)
}

// update godoc
// @Summary Update a candidate's descriptive fields
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerToken
// @Param id path string true "Candidate ID"
// @Param request body models.CandidateUpdateRequest true "Candidate data"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/candidates/{id} [put]
func (c *CandidateController) update(g *gin.Context) {
	var req models.CandidateUpdateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	candidate := &storage.Candidate{
		ID:          g.Param("id"),
		Name:        req.Name,
		Party:       req.Party,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	}
	if err := c.candidates.Update(g.Request.Context(), candidate); err != nil {
		if errors.Is(err, storage.ErrCandidateNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "candidate not found"})
			return
		}
		logging.Log.Errorf("CANDIDATE: failed to update candidate: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not update candidate"})
		return
	}

	g.JSON(http.StatusOK, &models.MessageResponse{Message: "candidate updated"})
}

// delete godoc
// @Summary Delete a candidate
// @Tags admin
// @Produce json
// @Security BearerToken
// @Param id path string true "Candidate ID"
// @Success 200 {object} models.MessageResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/candidates/{id} [delete]
func (c *CandidateController) delete(g *gin.Context) {
	if err := c.candidates.Delete(g.Request.Context(), g.Param("id")); err != nil {
		logging.Log.Errorf("CANDIDATE: failed to delete candidate: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not delete candidate"})
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "candidate deleted"})
}
