package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/freightdesk/freightdesk/internal/app"
	"github.com/freightdesk/freightdesk/internal/auth"
	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/clients"
	"github.com/freightdesk/freightdesk/internal/invoices"
	"github.com/freightdesk/freightdesk/internal/observability"
	"github.com/freightdesk/freightdesk/internal/shared"
	"github.com/freightdesk/freightdesk/internal/shipments"
	"github.com/freightdesk/freightdesk/internal/support"
	"github.com/freightdesk/freightdesk/internal/tracking"
	"github.com/freightdesk/freightdesk/internal/users"
	"github.com/freightdesk/freightdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "freightdesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	auditLogger := shared.NewAuditLogger(dbpool)

	resolver := authz.NewResolver(logger)
	gate := authz.Gate{Resolver: resolver, Logger: logger}
	authzRepo := authz.NewRepository(dbpool)
	principalLoader := authz.NewLoader(authzRepo, logger)
	rolesService := authz.NewService(authzRepo)
	rolesHandler := authz.NewHandler(logger, rolesService, gate)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, authzRepo)
	usersHandler := users.NewHandler(logger, usersService, gate)

	clientsRepo := clients.NewRepository(dbpool)
	clientsService := clients.NewService(clientsRepo)
	clientsHandler := clients.NewHandler(logger, clientsService, gate)

	shipmentsRepo := shipments.NewRepository(dbpool)
	shipmentsService := shipments.NewService(shipmentsRepo, resolver, auditLogger)
	shipmentsHandler := shipments.NewHandler(logger, shipmentsService, gate)

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	statusNotifier := jobs.NewStatusNotifier(queueClient)

	trackingRepo := tracking.NewRepository(dbpool)
	trackingService := tracking.NewService(trackingRepo, resolver, auditLogger, statusNotifier, logger)
	trackingHandler := tracking.NewHandler(logger, trackingService, gate)

	invoicesRepo := invoices.NewRepository(dbpool)
	invoicesService := invoices.NewService(invoicesRepo, resolver)
	invoicesHandler := invoices.NewHandler(logger, invoicesService, gate)

	supportRepo := support.NewRepository(dbpool)
	supportService := support.NewService(supportRepo, resolver, auditLogger)
	supportHandler := support.NewHandler(logger, supportService, gate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		PrincipalLoader:  principalLoader,
		AuthHandler:      authHandler,
		RolesHandler:     rolesHandler,
		UsersHandler:     usersHandler,
		ClientsHandler:   clientsHandler,
		ShipmentsHandler: shipmentsHandler,
		TrackingHandler:  trackingHandler,
		InvoicesHandler:  invoicesHandler,
		SupportHandler:   supportHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
