package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dnadiscipleship/dna-backend/api/routes"
	"github.com/dnadiscipleship/dna-backend/internal/analytics"
	"github.com/dnadiscipleship/dna-backend/internal/assessments"
	"github.com/dnadiscipleship/dna-backend/internal/auditlog"
	"github.com/dnadiscipleship/dna-backend/internal/auth"
	"github.com/dnadiscipleship/dna-backend/internal/calendar"
	"github.com/dnadiscipleship/dna-backend/internal/calls"
	"github.com/dnadiscipleship/dna-backend/internal/churches"
	"github.com/dnadiscipleship/dna-backend/internal/documents"
	"github.com/dnadiscipleship/dna-backend/internal/launchguide"
	"github.com/dnadiscipleship/dna-backend/internal/leaders"
	"github.com/dnadiscipleship/dna-backend/internal/notifications"
	"github.com/dnadiscipleship/dna-backend/internal/progress"
	"github.com/dnadiscipleship/dna-backend/pkg/auth/session"
	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/db"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/mailer"
	"github.com/dnadiscipleship/dna-backend/pkg/migrate"
	"github.com/dnadiscipleship/dna-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	smtp, err := mailer.New(cfg.Mail)
	if err != nil {
		logg.Error(context.Background(), "failed to build mailer", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	authRepo := auth.NewRepository(gormDB)
	churchRepo := churches.NewRepository(gormDB)
	progressRepo := progress.NewRepository(gormDB)
	callRepo := calls.NewRepository(gormDB)
	documentRepo := documents.NewRepository(gormDB)
	leaderRepo := leaders.NewRepository(gormDB)
	assessmentRepo := assessments.NewRepository(gormDB)
	launchGuideRepo := launchguide.NewRepository(gormDB)
	calendarRepo := calendar.NewRepository(gormDB)
	auditRepo := auditlog.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)

	notifier, err := notifications.NewService(smtp, notificationRepo, logg, cfg.App, cfg.Booking)
	if err != nil {
		fatal(logg, "notifications service", err)
	}

	auditService, err := auditlog.NewService(auditRepo, logg)
	if err != nil {
		fatal(logg, "audit service", err)
	}

	linkIssuer, err := auth.NewLinkIssuer(authRepo, notifier, cfg.App, cfg.Session, logg)
	if err != nil {
		fatal(logg, "link issuer", err)
	}

	leaderService, err := leaders.NewService(leaderRepo, churchRepo, linkIssuer, auditService, logg)
	if err != nil {
		fatal(logg, "leaders service", err)
	}

	sessionCache, err := session.NewCache(redisClient, cfg.Session)
	if err != nil {
		fatal(logg, "session cache", err)
	}

	authService, err := auth.NewService(
		authRepo,
		leaderRepo,
		leaderService,
		sessionCache,
		redisClient,
		linkIssuer,
		cfg.Session,
		cfg.AuthRateLimit,
		logg,
	)
	if err != nil {
		fatal(logg, "auth service", err)
	}

	churchService, err := churches.NewService(churchRepo, progressRepo, auditService, notifier, logg)
	if err != nil {
		fatal(logg, "churches service", err)
	}

	progressService, err := progress.NewService(progressRepo, churchRepo, notifier, logg, cfg.Mail.AdminEmail)
	if err != nil {
		fatal(logg, "progress service", err)
	}

	callService, err := calls.NewService(callRepo, churchRepo)
	if err != nil {
		fatal(logg, "calls service", err)
	}

	documentService, err := documents.NewService(documentRepo, churchRepo, assessmentRepo, logg)
	if err != nil {
		fatal(logg, "documents service", err)
	}

	assessmentService, err := assessments.NewService(assessmentRepo, authRepo, notifier, cfg.Mail.AdminEmail, cfg.Booking.TrainingManualURL)
	if err != nil {
		fatal(logg, "assessments service", err)
	}

	launchGuideService, err := launchguide.NewService(launchGuideRepo)
	if err != nil {
		fatal(logg, "launch guide service", err)
	}

	analyticsService, err := analytics.NewService(churchRepo, assessmentRepo, callRepo)
	if err != nil {
		fatal(logg, "analytics service", err)
	}

	calendarService, err := calendar.NewService(calendarRepo, callRepo, leaderRepo, churchRepo, nil, cfg.Google, nil, logg)
	if err != nil {
		fatal(logg, "calendar service", err)
	}

	pingers := map[string]func(context.Context) error{
		"postgres": dbClient.Ping,
		"redis":    redisClient.Ping,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			pingers,
			authService,
			churchService,
			progressService,
			callService,
			documentService,
			leaderService,
			assessmentService,
			launchGuideService,
			auditService,
			analyticsService,
			calendarService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatal(logg *logger.Logger, what string, err error) {
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
