package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"team-rsvp/config"
	"team-rsvp/handlers"
	"team-rsvp/middleware"
	"team-rsvp/services"
	"team-rsvp/utils"
	"team-rsvp/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := services.OpenDatabase(cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	cache := services.NewCalendarCache(cfg.Calendar.CacheFile, logger)
	if cfg.Storage.Bucket != "" {
		store, err := utils.NewR2Store(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		cache.WithMirror(store, "")
		logger.Info("calendar cache mirrored to object storage", zap.String("bucket", cfg.Storage.Bucket))
	}

	gameService := services.NewGameService(db, logger)
	rsvpService := services.NewRSVPService(db, logger)
	ingestService := services.NewIngestService(
		cfg.Calendar,
		services.NewCalendarFetcher(cfg.Calendar, cache, logger),
		cache,
		services.NewCalendarParser(cfg.Venues),
		gameService,
		logger,
	)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:  "GET,POST,DELETE,OPTIONS,HEAD",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, " + middleware.SessionHeader,
		ExposeHeaders: "Content-Length, Content-Type, X-Request-ID",
		MaxAge:        86400,
	}))
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.SessionMiddleware(logger))

	handlers.SetupRoutes(app, handlers.Deps{
		Ingest:     ingestService,
		Games:      gameService,
		RSVPs:      rsvpService,
		Seasons:    services.NewSeasonService(gameService, cfg.Calendar.Location),
		Weather:    services.NewWeatherClient(cfg.Weather, logger),
		Venues:     cfg.Venues,
		AdminToken: cfg.Server.AdminToken,
		Logger:     logger,
		Location:   cfg.Calendar.Location,
	})

	workers.NewCalendarSyncWorker(ingestService, cfg.Calendar.SyncInterval, logger).Start(ctx)

	scheduler, err := gameService.StartResultScheduler(ctx, cfg.Calendar.BackfillInterval)
	if err != nil {
		logger.Fatal("failed to start result scheduler", zap.Error(err))
	}

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	logger.Info("server running",
		zap.Int("port", cfg.Server.Port),
		zap.Strings("allowed_origins", cfg.Server.AllowedOrigins),
		zap.Duration("calendar_sync_interval", cfg.Calendar.SyncInterval),
	)

	<-ctx.Done()
	logger.Info("shutting down server")

	if err := scheduler.Shutdown(); err != nil {
		logger.Warn("scheduler shutdown failed", zap.Error(err))
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
}
