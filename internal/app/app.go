package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finance-dashboard/internal/classifier"
	"finance-dashboard/internal/config"
	"finance-dashboard/internal/currency"
	"finance-dashboard/internal/database"
	"finance-dashboard/internal/deletion"
	"finance-dashboard/internal/event"
	"finance-dashboard/internal/handler"
	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/middleware"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/internal/router"
	"finance-dashboard/internal/service"
	"finance-dashboard/internal/websocket"
)

const tokenCleanupInterval = time.Hour

type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	server      *http.Server
	db          *database.DB
	hub         *websocket.Hub
	controller  *deletion.Controller
	authService *service.AuthService
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, database.Options{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	assetRepo := repository.NewAssetRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	preferenceRepo := repository.NewPreferenceRepository(pool)
	deletionLogRepo := repository.NewDeletionLogRepository(pool)
	slog.Info("database ready")

	authService := service.NewAuthService(userRepo, tokenRepo, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err := authService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}

	bus := event.NewBusWithLogger(logger)
	formatter := currency.NewFormatter(cfg.DefaultCurrency, cfg.DefaultLocale)

	preferenceService := service.NewPreferenceService(preferenceRepo, formatter, bus)
	assetService := service.NewAssetService(assetRepo, preferenceService, formatter, bus)
	categories := classifier.New(classifier.Options{
		BaseURL:       cfg.ClassifierURL,
		Timeout:       cfg.ClassifierTimeout,
		MinConfidence: cfg.ClassifierMinConfidence,
		Logger:        logger,
	})
	checkClassifier(categories, logger)

	transactionService := service.NewTransactionService(transactionRepo, assetService, preferenceService, formatter, bus).
		WithCategorizer(categories)

	controller := deletion.NewController(bus, deletion.Options{
		Window:        cfg.DeletionWindow,
		Tick:          cfg.DeletionTick,
		CommitTimeout: cfg.DeletionCommitTimeout,
		Logger:        logger,
	})
	controller.Register(model.KindAsset, assetService)
	controller.Register(model.KindTransaction, transactionService)

	deletionService := service.NewDeletionService(controller, deletionLogRepo)
	deletionService.Resolve(model.KindAsset, assetService)
	deletionService.Resolve(model.KindTransaction, transactionService)

	service.NewDeletionRecorder(deletionLogRepo, logger).Attach(bus)
	collector := metrics.New()
	collector.Attach(bus)

	hub := websocket.NewHub(bus, deletionService, logger).AllowOrigins(cfg.CORSOrigins)

	appRouter := router.New(
		cfg,
		logger,
		db.Health,
		collector,
		middleware.NewAuthMiddleware(authService),
		handler.NewAuthHandler(authService),
		handler.NewAssetHandler(assetService, deletionService),
		handler.NewTransactionHandler(transactionService, deletionService),
		handler.NewClassifyHandler(categories),
		handler.NewDeletionHandler(deletionService),
		handler.NewPreferenceHandler(preferenceService),
		handler.NewWSHandler(hub),
	)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		cfg:         cfg,
		logger:      logger,
		server:      server,
		db:          db,
		hub:         hub,
		controller:  controller,
		authService: authService,
	}, nil
}

// checkClassifier only logs: transactions are stored uncategorized while the
// classifier is down.
func checkClassifier(c *classifier.Client, logger *slog.Logger) {
	if !c.Enabled() {
		logger.Info("category suggestions disabled")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), classifier.DefaultTimeout)
	defer cancel()

	health, err := c.Health(ctx)
	if err != nil {
		logger.Warn("classifier unreachable, transactions will not be categorized until it is up", "error", err)
		return
	}
	logger.Info("classifier ready", "status", health.Status, "version", health.Version)
}

// Run serves until SIGINT/SIGTERM or until one of its workers fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.logger.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		return a.hub.Run(ctx)
	})

	group.Go(func() error {
		a.cleanTokens(ctx)
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		return a.shutdown()
	})

	err := group.Wait()
	a.db.Close()
	if err != nil {
		return err
	}

	a.logger.Info("server stopped")
	return nil
}

func (a *App) shutdown() error {
	// Pending deletions are left soft-deleted; nothing commits on the way out.
	a.controller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (a *App) cleanTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.authService.CleanExpiredTokens(ctx)
			if err != nil {
				a.logger.Warn("refresh token cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				a.logger.Info("expired refresh tokens removed", "count", removed)
			}
		}
	}
}
