package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/NITHINKR06/e-voting-backend/api/controllers"
	"github.com/NITHINKR06/e-voting-backend/api/transport"
	"github.com/NITHINKR06/e-voting-backend/audit"
	"github.com/NITHINKR06/e-voting-backend/auth"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/NITHINKR06/e-voting-backend/mail"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"os"
	"time"
)

const auditBufferSize = 256

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	// Create storage + mail gateway
	var (
		voters     storage.VoterStorage
		candidates storage.CandidateStorage
		auditLogs  storage.AuditLogStorage
	)
	var mailer mail.Sender = mail.LogSender{}

	if s.config.Driver == "memory" {
		logging.Log.Warn("Using in-memory storage, data will not survive a restart")
		voters = storage.NewMemoryVoterStorage()
		candidates = storage.NewMemoryCandidateStorage()
		auditLogs = storage.NewMemoryAuditLogStorage()
	} else {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			logging.Log.Errorf("failed to load AWS config: %v", err)
			panic("failed to load AWS config")
		}

		dynamoClient := dynamodb.NewFromConfig(cfg)
		voters = &storage.DynamoVoterStorage{
			Client:     dynamoClient,
			TableName:  s.config.TableNameVoters,
			EmailIndex: s.config.VoterEmailIndex,
		}
		candidates = &storage.DynamoCandidateStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameCandidates,
		}
		auditLogs = &storage.DynamoAuditLogStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameAuditLogs,
		}

		if s.config.EmailConfig.From != "" {
			mailer = &mail.SESSender{
				Client: sesv2.NewFromConfig(cfg),
				From:   s.config.EmailConfig.From,
			}
		} else {
			logging.Log.Warn("No sender address configured, OTP codes will be logged instead of mailed")
		}
	}

	recorder := audit.NewRecorder(auditLogs, auditBufferSize)
	secret := []byte(s.config.JWTSecret)

	// Ensure at least one administrator account exists. Explicit startup
	// step driven by config, idempotent across restarts.
	if err := ensureAdminAccount(context.Background(), voters, s.config.AdminConfig); err != nil {
		logging.Log.Errorf("failed to ensure admin account: %v", err)
	}

	authLimiter := transport.RateLimitMiddleware(transport.AuthRate, s.config.Production())
	voteLimiter := transport.RateLimitMiddleware(transport.VoteRate, s.config.Production())

	//Register controllers
	authController := controllers.NewAuthController(voters, mailer, recorder, secret, s.config.EmailDomain, authLimiter)
	authController.RegisterRoutes(r)
	adminAuthController := controllers.NewAdminAuthController(voters, recorder, secret, s.config.AdminCreationSecret, authLimiter)
	adminAuthController.RegisterRoutes(r)
	candidateController := controllers.NewCandidateController(candidates, voters, recorder, secret, voteLimiter)
	candidateController.RegisterRoutes(r)
	auditController := controllers.NewAuditController(auditLogs, voters, secret)
	auditController.RegisterRoutes(r)

	//Do not run lambda helper locally
	if os.Getenv("APP_ENV") == "local" {
		startLocal(r, s.config.Port)
	} else {
		startLambda(r)
	}
}

func ensureAdminAccount(ctx context.Context, voters storage.VoterStorage, cfg AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		logging.Log.Info("No admin bootstrap configured, skipping")
		return nil
	}

	_, err := voters.GetByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrVoterNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.Password, auth.AdminHashCost)
	if err != nil {
		return err
	}

	admin := &storage.Voter{
		ID:         uuid.NewString(),
		Name:       "Default Admin",
		RollNumber: "ADMIN001",
		Email:      cfg.Email,
		Password:   hash,
		Admin:      true,
		Verified:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := voters.Create(ctx, admin); err != nil {
		return err
	}

	logging.Log.Infof("ADMIN: bootstrap account created for %s", cfg.Email)
	return nil
}

// StartLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// StartLocal starts a normal HTTP server
func startLocal(engine *gin.Engine, port int) {
	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))

	if err := engine.Run(fmt.Sprintf(":%d", port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
