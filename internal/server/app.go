// Package server initializes and runs the application server. It opens the
// database, runs migrations, wires services into the HTTP boundary, starts
// the token sweeper, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vkarpins/stashkeeper/internal/logging"
	"github.com/vkarpins/stashkeeper/internal/server/blob"
	"github.com/vkarpins/stashkeeper/internal/server/config"
	"github.com/vkarpins/stashkeeper/internal/server/httpapi"
	"github.com/vkarpins/stashkeeper/internal/server/mail"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/repomanager"
	"github.com/vkarpins/stashkeeper/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	httpSrv *http.Server
	sweeper *services.Sweeper
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	mailer := mail.NewSMTPMailer(cfg)
	blobs := blob.NewS3Store(cfg)

	userService := services.NewUserService(db, rm, cfg, mailer, logger)
	folderService := services.NewFolderService(db, rm)
	contentService := services.NewContentService(db, rm, blobs, logger)
	tagService := services.NewTagService(db, rm)

	api := httpapi.NewServer(cfg, logger, userService, folderService, contentService, tagService)
	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.Router(),
	}

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		httpSrv: httpSrv,
		sweeper: services.NewSweeper(db, rm, logger, cfg.SweepInterval),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.httpSrv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.HTTPAddr)
	if err := app.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server error", "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "app stopped")
}
