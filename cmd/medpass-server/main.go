package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medpass/medpass/internal/config"
	"github.com/medpass/medpass/internal/domain/clinical"
	"github.com/medpass/medpass/internal/domain/documents"
	"github.com/medpass/medpass/internal/domain/healthpass"
	"github.com/medpass/medpass/internal/domain/identity"
	"github.com/medpass/medpass/internal/domain/lifestyle"
	"github.com/medpass/medpass/internal/domain/medication"
	"github.com/medpass/medpass/internal/platform/ai"
	"github.com/medpass/medpass/internal/platform/auth"
	"github.com/medpass/medpass/internal/platform/blobstore"
	"github.com/medpass/medpass/internal/platform/db"
	"github.com/medpass/medpass/internal/platform/events"
	"github.com/medpass/medpass/internal/platform/hipaa"
	"github.com/medpass/medpass/internal/platform/metrics"
	"github.com/medpass/medpass/internal/platform/middleware"
	"github.com/medpass/medpass/migrations"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "medpass-server",
		Short: "Personal health record and health pass API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, migrations.Files))
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (auth.SessionStore, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set; sessions are kept in memory and lost on restart")
		return auth.NewMemorySessionStore(), func() {}, nil
	}
	client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewRedisSessionStore(client), func() { client.Close() }, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	if cfg.StorageBackend != "minio" {
		return blobstore.NewInMemoryBlobStore("http://localhost:" + cfg.Port + "/blobs"), nil
	}
	return blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
	})
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "rabbitmq":
		return events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue)
	default:
		return events.NopPublisher{}, nil
	}
}

func newAIClient(cfg *config.Config, logger zerolog.Logger) *ai.Client {
	if cfg.AnthropicAPIKey == "" {
		logger.Warn().Msg("ANTHROPIC_API_KEY not set; AI features fall back to defaults")
		return ai.NewClient(nil)
	}
	return ai.NewClient(ai.NewAnthropicCompleter(cfg.AnthropicAPIKey, cfg.AnthropicModel))
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	// Database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	m := metrics.New()

	sessions, closeSessions, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer closeSessions()

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise object storage")
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to event broker")
	}
	defer publisher.Close()
	emitter := events.NewEmitter(publisher, logger, m)

	phi, err := hipaa.NewPHIEncryptor(cfg.PHIKey())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise PHI encryption")
	}

	aiClient := newAIClient(cfg, logger)
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessions)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics(m))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(0, cfg.MaxUploadBytes))

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, db.PgxPoolStats(pool)))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	// API group
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: []byte(cfg.JWTSecret),
		Skipper:    auth.AuthSkipper,
	}))

	txm := db.NewTxManager(pool)

	// Identity
	identitySvc := identity.NewService(identity.NewUserRepoPG(pool, phi), aiClient, tokens, logger)
	identity.NewHandler(identitySvc, cfg.MaxUploadBytes).RegisterRoutes(apiV1)

	// Record stores
	clinicalSvc := clinical.NewService(clinical.NewConditionRepoPG(pool), clinical.NewAllergyRepoPG(pool), aiClient, logger, m)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(apiV1)

	medSvc := medication.NewService(medication.NewRepoPG(pool))
	medication.NewHandler(medSvc).RegisterRoutes(apiV1)

	lifestyleSvc := lifestyle.NewService(lifestyle.NewRepoPG(pool))
	lifestyle.NewHandler(lifestyleSvc).RegisterRoutes(apiV1)

	docSvc := documents.NewService(documents.NewRepoPG(pool), store, aiClient, cfg.StorageURLTTL, logger, m)
	documents.NewHandler(docSvc, cfg.MaxUploadBytes).RegisterRoutes(apiV1)

	// Health passes
	passSvc := healthpass.NewService(healthpass.NewRepoPG(pool), txm, healthpass.Records{
		Clinical:    clinicalSvc,
		Medications: medSvc,
		Lifestyle:   lifestyleSvc,
		Documents:   docSvc,
		Users:       identitySvc,
	}, aiClient, emitter, cfg.PassBaseURL, logger, m)
	passHandler := healthpass.NewHandler(passSvc)
	passHandler.RegisterRoutes(apiV1)
	passHandler.RegisterPublicRoutes(apiV1, middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.PassAccessRPS,
		BurstSize:         cfg.PassAccessBurst,
		KeyFunc:           middleware.ClientIP,
		Prefix:            "pass-access:",
	}))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
