package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/config"
	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/repository"
	"github.com/mamadbah2/rtm-traders/internal/repository/csvstore"
	"github.com/mamadbah2/rtm-traders/internal/repository/mongodb"
	"github.com/mamadbah2/rtm-traders/internal/repository/sheets"
	"github.com/mamadbah2/rtm-traders/internal/scheduler"
	"github.com/mamadbah2/rtm-traders/internal/server/handlers"
	"github.com/mamadbah2/rtm-traders/internal/server/router"
	authsvc "github.com/mamadbah2/rtm-traders/internal/service/auth"
	exportsvc "github.com/mamadbah2/rtm-traders/internal/service/export"
	recordsvc "github.com/mamadbah2/rtm-traders/internal/service/records"
	reportingsvc "github.com/mamadbah2/rtm-traders/internal/service/reporting"
	"github.com/mamadbah2/rtm-traders/pkg/logger"
)

const connectTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, closeStore, err := openStore(cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init record store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer closeStore()

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		baseLogger.Info("google sheets mirror enabled")
	}

	authService, err := authsvc.NewService(
		authsvc.NewStaticRegistry(models.User{
			Username:     cfg.Auth.AdminEmail,
			Name:         cfg.Auth.AdminName,
			PasswordHash: cfg.Auth.AdminPasswordHash,
		}),
		cfg.Auth.JWTSecret,
		cfg.Auth.TokenTTL,
		logger.Named(baseLogger, "svc.auth"),
	)
	if err != nil {
		baseLogger.Fatal("failed to init auth service", zap.Error(err))
	}

	recordService := recordsvc.NewService(store, logger.Named(baseLogger, "svc.records"))
	reportingService := reportingsvc.NewService(recordService, logger.Named(baseLogger, "svc.reporting"))
	exportService := exportsvc.NewService(recordService, sheetsRepo, cfg.Sheets.Range, logger.Named(baseLogger, "svc.export"))

	engine := router.New(router.Options{
		Records:        handlers.NewRecordsHandler(recordService, reportingService, exportService, logger.Named(baseLogger, "handlers.records")),
		Auth:           handlers.NewAuthHandler(authService, logger.Named(baseLogger, "handlers.auth")),
		Verifier:       authService,
		APIURL:         cfg.Server.APIURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StaticDir:      cfg.Server.StaticDir,
		Logger:         logger.Named(baseLogger, "router"),
	})

	sched := scheduler.NewScheduler(*cfg, reportingService, exportService, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", store.Backend()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore builds the configured record store and a matching cleanup func.
func openStore(cfg *config.Config, base *zap.Logger) (repository.RecordStore, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendMongoDB:
		layout, err := mongodb.ParseLayout(cfg.MongoDB.Layout)
		if err != nil {
			return nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		client, err := mongodb.Connect(ctx, cfg.MongoDB.URI)
		if err != nil {
			return nil, nil, err
		}

		repo := mongodb.NewRecordRepository(client.Database(cfg.MongoDB.DBName), layout, logger.Named(base, "repo.mongodb"))
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			if err := repo.Close(ctx); err != nil {
				base.Error("failed to close mongodb connection", zap.Error(err))
			}
		}
		return repo, closeFn, nil
	default:
		store, err := csvstore.New(cfg.Storage.CSVFile, logger.Named(base, "repo.csv"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
