package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gameshelf/internal/api"
	"gameshelf/internal/catalog"
	"gameshelf/internal/config"
	"gameshelf/internal/database"
	"gameshelf/internal/domain"
	"gameshelf/internal/events"
	"gameshelf/internal/export"
	"gameshelf/internal/google"
	"gameshelf/internal/logging"
	"gameshelf/internal/metrics"
	"gameshelf/internal/models"
	"gameshelf/internal/notify"
	"gameshelf/internal/repository"
	"gameshelf/internal/service"
	"gameshelf/internal/worker"

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

	games, err := loadGames(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, games, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionRepo := initSessionRepo(cfg, redisClient, &logger)
	sheetsService := initGoogleSheets(cfg, &logger)

	var sheetsWorker domain.SyncWorker
	if sheetsService != nil {
		w := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, nil)
		go w.Start(ctx)
		go syncUsersSheet(ctx, db, sheetsService, &logger)
		sheetsWorker = w
	}

	var notifier domain.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.AdminChatID != 0 {
		n, err := notify.NewTelegramNotifier(cfg.Telegram, &logger)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		} else {
			notifier = n
		}
	}

	eventBus := events.NewEventBus()
	subscribeAuditLog(eventBus, &logger)

	rentalService := service.NewRentalService(db, eventBus, sheetsWorker, notifier, cfg.Rental.MaxRentalDays, &logger)
	gameService := service.NewGameService(db, &logger)
	userService := service.NewUserService(db, cfg, &logger)
	sessionService := service.NewSessionService(sessionRepo, &logger)

	var exporter *export.ScheduleExporter
	if cfg.Exports.Path != "" {
		exporter = export.NewScheduleExporter(db, cfg.Exports.Path, &logger)
	}

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	grpcServer, err := api.NewGRPCServer(&cfg.API, db, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}
	go grpcServer.WatchHealth(ctx, 15*time.Second)

	httpServer := api.NewHTTPServer(cfg.API, cfg.Rental, rentalService, gameService, userService, sessionService, exporter)

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
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

// loadGames prefers the standalone seed file and falls back to the games
// list embedded in config.yaml.
func loadGames(cfg *config.Config, logger *zerolog.Logger) ([]models.Game, error) {
	gamesPath := os.Getenv("GAMES_PATH")
	if gamesPath == "" {
		gamesPath = "configs/games.yaml"
	}

	if _, err := os.Stat(gamesPath); err == nil {
		games, err := catalog.LoadGamesFile(gamesPath)
		if err != nil {
			logger.Error().Err(err).Str("games_path", gamesPath).Msg("parse games")
			return nil, err
		}
		if err := config.ValidateGames(games); err != nil {
			return nil, err
		}
		return games, nil
	}

	return cfg.Games, nil
}

func initDatabase(cfg *config.Config, games []models.Game, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if len(games) > 0 {
		if err := db.SyncGames(context.Background(), games); err != nil {
			logger.Error().Err(err).Msg("sync games")
			return nil, err
		}
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initSessionRepo builds redis-backed sessions with an in-memory fallback.
func initSessionRepo(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SessionRepository {
	ttl := time.Duration(models.DefaultRedisTTL) * time.Second
	memory := repository.NewMemorySessionRepository(ttl)
	if redisClient == nil {
		return memory
	}

	primary := repository.NewRedisSessionRepository(redisClient, ttl)
	return repository.NewFailoverSessionRepository(primary, memory, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.RosterSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.RosterSpreadSheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sheetsService.TestConnection(ctx); err != nil {
		email, _ := sheetsService.GetServiceAccountEmail(cfg.Google.GoogleCredentialsFile)
		logger.Warn().Err(err).Str("service_account", email).
			Msg("roster spreadsheet is not readable, share it with the service account")
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

// syncUsersSheet mirrors the stored accounts into the users sheet once a day.
func syncUsersSheet(ctx context.Context, db *database.DB, sheetsService *google.SheetsService, logger *zerolog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	push := func() {
		syncCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		users, err := db.GetAllUsers(syncCtx)
		if err != nil {
			logger.Error().Err(err).Msg("load users for sheet sync")
			return
		}
		if err := sheetsService.UpdateUsersSheet(syncCtx, users); err != nil {
			logger.Error().Err(err).Msg("update users sheet")
		}
	}

	push()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			push()
		}
	}
}

// subscribeAuditLog writes every rental event to the structured log.
func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	auditLogger := logger.With().Str("component", "audit").Logger()
	handler := func(event *events.Event) error {
		auditLogger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("rental event")
		return nil
	}

	for _, eventType := range []string{
		events.EventRentalSubmitted,
		events.EventRentalApproved,
		events.EventRentalRejected,
		events.EventRentalStarted,
		events.EventRentalReturned,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	go func() {
		if err := grpcServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Str("grpc_addr", grpcServer.Addr()).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
