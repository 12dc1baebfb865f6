package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoassist/internal/advisor"
	"autoassist/internal/api"
	"autoassist/internal/auth"
	"autoassist/internal/config"
	"autoassist/internal/database"
	"autoassist/internal/domain"
	"autoassist/internal/events"
	"autoassist/internal/logging"
	"autoassist/internal/metrics"
	"autoassist/internal/repository"
	"autoassist/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, inv, err := initDatabases(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()
	defer inv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	sessions := initSessionStore(redisClient, &logger)

	eventBus := events.NewEventBus(logging.Component(&logger, "events"))
	subscribeEvents(eventBus, &logger)

	adv, err := advisor.NewFromConfig(ctx, cfg.Advisor, logging.Component(&logger, "advisor"))
	if err != nil {
		logger.Warn().Err(err).Msg("advisor init failed, continuing without advice")
		adv = advisor.New(nil, cfg.Advisor.Timeout, &logger)
	}

	prices, err := service.LoadPriceTable(cfg.Booking.PriceFile)
	if err != nil {
		return fmt.Errorf("load price table: %w", err)
	}
	policy, err := service.NewSlotPolicy(cfg.Booking)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.API.Auth)

	// Business services
	userService := service.NewUserService(db, tokens, sessions, logging.Component(&logger, "users"))
	bookingService := service.NewBookingService(db, prices, policy, adv, cfg.Advisor.EnrichBooking, eventBus, logging.Component(&logger, "bookings"))
	inventoryService := service.NewInventoryService(inv, adv, cfg.Advisor.EnrichStock, cfg.Inventory.MaxImportRecords, eventBus, logging.Component(&logger, "inventory"))
	staffService := service.NewStaffService(db, logging.Component(&logger, "staff"))

	if err := userService.EnsureAdmin(ctx, cfg.Bootstrap); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	backupService := database.NewBackupService(cfg.Backup, logging.Component(&logger, "backup"), database.Sources(db, inv)...)
	go backupService.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	server := api.NewServer(
		cfg.API,
		api.Services{
			Users:     userService,
			Bookings:  bookingService,
			Inventory: inventoryService,
			Staff:     staffService,
			Advisor:   adv,
			Backup:    backupService,
		},
		api.Options{
			MaxImportRecords:  cfg.Inventory.MaxImportRecords,
			AdvisorDailyQuota: cfg.Advisor.DailyQuota,
		},
		tokens,
		sessions,
		logging.Component(&logger, "http"),
	)

	return serve(ctx, server, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabases(cfg *config.Config, logger *zerolog.Logger) (*database.DB, *database.InventoryDB, error) {
	db, err := database.NewDB(cfg.Database.ServicePath, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.ServicePath).Msg("init service database")
		return nil, nil, err
	}

	inv, err := database.NewInventoryDB(cfg.Database.InventoryPath, logger)
	if err != nil {
		_ = db.Close()
		logger.Error().Err(err).Str("db_path", cfg.Database.InventoryPath).Msg("init inventory database")
		return nil, nil, err
	}
	return db, inv, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = repository.Close(client)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initSessionStore prefers Redis and falls back to process memory.
func initSessionStore(client *redis.Client, logger *zerolog.Logger) domain.SessionStore {
	memory := repository.NewMemorySessionStore()
	if client == nil {
		logger.Warn().Msg("session store is in memory; revocations are lost on restart")
		return memory
	}
	return repository.NewFailoverSessionStore(repository.NewRedisSessionStore(client), memory, logger)
}

func subscribeEvents(bus *events.EventBus, logger *zerolog.Logger) {
	audit := logging.Component(logger, "audit")

	logBooking := func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		audit.Info().
			Str("event", event.Type).
			Int64("booking_id", payload.BookingID).
			Str("status", payload.Status).
			Str("old_status", payload.OldStatus).
			Str("staff_id", payload.StaffID).
			Str("changed_by", payload.ChangedBy).
			Msg("booking event")
		return nil
	}
	bus.Subscribe(events.EventBookingCreated, logBooking)
	bus.Subscribe(events.EventBookingStatusChanged, logBooking)
	bus.Subscribe(events.EventBookingAssigned, logBooking)

	bus.Subscribe(events.EventStockAdjusted, func(event *events.Event) error {
		var payload events.StockEventPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		audit.Info().
			Int64("item_id", payload.ItemID).
			Int64("delta", payload.Delta).
			Int64("quantity_after", payload.QuantityAfter).
			Str("reason", payload.Reason).
			Msg("stock adjusted")
		return nil
	})
	bus.Subscribe(events.EventLowStock, func(event *events.Event) error {
		var payload events.StockEventPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		audit.Warn().
			Int64("item_id", payload.ItemID).
			Str("item", payload.ItemName).
			Int64("quantity", payload.QuantityAfter).
			Int64("threshold", payload.Threshold).
			Msg("item below reorder threshold")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, server *api.Server, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}
