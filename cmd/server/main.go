package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"teamo/config"
	"teamo/internal/adapters/auth"
	"teamo/internal/adapters/email"
	"teamo/internal/adapters/token"
	delivery "teamo/internal/delivery/http"
	"teamo/internal/delivery/http/controllers"
	"teamo/internal/delivery/http/middleware"
	"teamo/internal/repository/postgres"
	"teamo/internal/services"
)

// @title teamo API
// @version 1.0
// @description Workspace invitation backend: token encryption service and invitation verification protocol.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	// Repositories
	invitationRepo := postgres.NewInvitationRepository(db)
	employeeRepo := postgres.NewEmployeeRepository(db)
	userRepo := postgres.NewUserRepository(db)
	workspaceRepo := postgres.NewWorkspaceRepository(db)
	memberRepo := postgres.NewWorkspaceMemberRepository(db)

	// Token service: this process holds the key material, so it uses the
	// local implementation directly. Clients without key material reach the
	// same operations through /token/new and /token/decrypt.
	engine, err := token.NewEngine(cfg.Encryption.Key, cfg.Encryption.IV, logger)
	if err != nil {
		logger.Error("failed to initialize cipher engine", "err", err)
		os.Exit(1)
	}
	tokenService := token.NewLocalService(engine)

	// Adapters
	jwtCodec := auth.NewJWT(cfg.JWTSecret)
	codeHasher := auth.NewBcryptCodeHasher(12)
	credGen := auth.NewCredentialGenerator()
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFrom,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:             cfg.SES.Region,
			AccessKeyID:        cfg.SES.AccessKeyID,
			SecretAccessKey:    cfg.SES.SecretAccessKey,
			InsecureSkipVerify: cfg.SES.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to initialize mailer", "err", err)
		os.Exit(1)
	}

	// Services
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	invitationService := services.NewInvitationService(
		invitationRepo, employeeRepo, userRepo, workspaceRepo, memberRepo,
		tokenService, codeHasher, credGen, emailService,
		cfg.BaseURL, logger,
	)

	// HTTP
	tokenController := controllers.NewTokenController(logger, tokenService)
	inviteController := controllers.NewInviteController(logger, invitationService)
	employeeController := controllers.NewEmployeeController(logger, invitationService)
	requireAuth := middleware.RequireAuth(jwtCodec, logger)

	mux := delivery.NewRouter(tokenController, inviteController, employeeController, requireAuth)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
