package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conversation-deck-service/internal/app"
	"conversation-deck-service/internal/catalog"
	"conversation-deck-service/internal/config"
	"conversation-deck-service/internal/infra/memory"
	pgstore "conversation-deck-service/internal/infra/postgres"
	redisstore "conversation-deck-service/internal/infra/redis"
	transport "conversation-deck-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the deck server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var db *bun.DB
	if cfg.Postgres.URL != "" {
		db, err = openBun(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrateDB(ctx, db, logger); err != nil {
			return err
		}
	}

	loader, closeLoader, err := catalogLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLoader()

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, time.Hour)
	var catalogs app.CatalogRepository
	if redisClient != nil {
		catalogs = redisstore.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
	}

	var sessions app.SessionRepository
	var names app.NameStore
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL)
		names = redisstore.NewNameStore(redisClient, config.TTLDuration(cfg.Profile.TTL, 0))
	} else {
		sessions = memory.NewSessionStore()
		names = memory.NewNameStore()
	}

	var answers app.RecordStore
	if db != nil {
		answers = pgstore.NewAnswerStore(db)
	} else {
		logger.Warn("postgres not configured, answers are kept in memory")
		answers = memory.NewAnswerStore()
	}

	service := app.NewDeckService(sessions, catalogs, answers, names, logger)
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	transport.NewAPI(service, logger).Register(mux, wsHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting deck service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// catalogLoader picks where questions come from; the embedded catalog unless
// catalog.source is "postgres".
func catalogLoader(ctx context.Context, cfg config.Config) (memory.CatalogLoader, func(), error) {
	if cfg.Catalog.Source != "postgres" {
		c, err := catalog.Default()
		if err != nil {
			return nil, nil, err
		}
		return memory.NewStaticCatalogLoader(c), func() {}, nil
	}
	if cfg.Postgres.URL == "" {
		return nil, nil, errors.New("catalog.source is postgres but postgres url not configured")
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, nil, err
	}
	return pgstore.NewCatalogLoader(pool), pool.Close, nil
}
