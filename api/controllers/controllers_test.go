package controllers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/NITHINKR06/e-voting-backend/api/transport"
	"github.com/NITHINKR06/e-voting-backend/audit"
	"github.com/NITHINKR06/e-voting-backend/auth"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	testSecret         = "unit-test-secret"
	testCreationSecret = "creation-secret"
	testEmailDomain    = "@nmamit.in"
)

// captureSender records outgoing mail so tests can assert on OTP delivery
// without a real gateway. Setting err simulates a failing gateway.
type captureSender struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (s *captureSender) Send(_ context.Context, to, _, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to+" "+body)
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *captureSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1]
}

func (s *captureSender) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type testEnv struct {
	router     *gin.Engine
	voters     *storage.MemoryVoterStorage
	candidates *storage.MemoryCandidateStorage
	auditLogs  *storage.MemoryAuditLogStorage
	recorder   *audit.Recorder
	mailer     *captureSender
	secret     []byte
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logging.Log = logrus.New()
	gin.SetMode(gin.TestMode)

	voters := storage.NewMemoryVoterStorage()
	candidates := storage.NewMemoryCandidateStorage()
	auditLogs := storage.NewMemoryAuditLogStorage()
	recorder := audit.NewRecorder(auditLogs, 64)
	t.Cleanup(recorder.Close)

	mailer := &captureSender{}
	secret := []byte(testSecret)
	noLimit := transport.RateLimitMiddleware(transport.AuthRate, false)
	noVoteLimit := transport.RateLimitMiddleware(transport.VoteRate, false)

	r := gin.New()
	NewAuthController(voters, mailer, recorder, secret, testEmailDomain, noLimit).RegisterRoutes(r)
	NewAdminAuthController(voters, recorder, secret, testCreationSecret, noLimit).RegisterRoutes(r)
	NewCandidateController(candidates, voters, recorder, secret, noVoteLimit).RegisterRoutes(r)
	NewAuditController(auditLogs, voters, secret).RegisterRoutes(r)

	return &testEnv{
		router:     r,
		voters:     voters,
		candidates: candidates,
		auditLogs:  auditLogs,
		recorder:   recorder,
		mailer:     mailer,
		secret:     secret,
	}
}

func (e *testEnv) createVoter(t *testing.T, email, password string) *storage.Voter {
	t.Helper()
	hash, err := auth.HashPassword(password, auth.VoterHashCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	voter := &storage.Voter{
		ID:         uuid.NewString(),
		Name:       "Test Voter",
		RollNumber: "NNM22CS001",
		Email:      email,
		Password:   hash,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.voters.Create(context.Background(), voter); err != nil {
		t.Fatalf("failed to create voter: %v", err)
	}
	return voter
}

func (e *testEnv) createAdmin(t *testing.T, email, password string) *storage.Voter {
	t.Helper()
	hash, err := auth.HashPassword(password, auth.AdminHashCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	admin := &storage.Voter{
		ID:         uuid.NewString(),
		Name:       "Test Admin",
		RollNumber: "ADMIN001",
		Email:      email,
		Password:   hash,
		Admin:      true,
		Verified:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.voters.Create(context.Background(), admin); err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	return admin
}

func (e *testEnv) bearer(t *testing.T, voterID string, admin bool) map[string]string {
	t.Helper()
	token, err := auth.GenerateToken(voterID, admin, e.secret, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func (e *testEnv) seedCandidate(t *testing.T, id, name string) *storage.Candidate {
	t.Helper()
	candidate := &storage.Candidate{
		ID:          id,
		Name:        name,
		Party:       "Independent",
		Description: "Test candidate",
	}
	if err := e.candidates.Create(context.Background(), candidate); err != nil {
		t.Fatalf("failed to create candidate: %v", err)
	}
	return candidate
}
