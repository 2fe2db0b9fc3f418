package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gstroy/search-service/internal/config"
	"github.com/gstroy/search-service/internal/event"
	handler "github.com/gstroy/search-service/internal/handler/http"
	"github.com/gstroy/search-service/internal/search"
	"github.com/gstroy/search-service/internal/store"
	"github.com/gstroy/search-service/pkg/database"
	"github.com/gstroy/search-service/pkg/health"
	pkgkafka "github.com/gstroy/search-service/pkg/kafka"
)

// idempotencyTTL is how long processed event ids are remembered.
const idempotencyTTL = 24 * time.Hour

// App wires together all dependencies and runs the search service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	indexer    *search.Indexer
	consumers  []*pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Initialize the search engine client.
	searchService, err := search.New(search.Config{
		Enabled:      cfg.ElasticsearchEnabled,
		URL:          cfg.ElasticsearchURL,
		Username:     cfg.ElasticsearchUsername,
		Password:     cfg.ElasticsearchPassword,
		VerifyCerts:  cfg.ElasticsearchVerifyCerts,
		Timeout:      cfg.ElasticsearchTimeout,
		Index:        cfg.ElasticsearchIndex,
		BatchSize:    cfg.IndexBatchSize,
		AutoIndex:    cfg.AutoIndex,
		ForceReindex: cfg.ForceReindex,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init search engine: %w", err)
	}
	logger.Info("search engine initialized",
		slog.Bool("enabled", searchService.Enabled()),
		slog.String("url", cfg.ElasticsearchURL),
		slog.String("index", cfg.ElasticsearchIndex),
	)

	// Build the dependency graph.
	productStore := store.NewProductStore(pool)
	indexer := search.NewIndexer(searchService, productStore, logger)

	// Consumer idempotency: Redis when reachable, in-memory otherwise.
	// A missing Redis only weakens dedup across restarts, it never blocks startup.
	var idemStore pkgkafka.IdempotencyStore
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		logger.Warn("redis unavailable, using in-memory idempotency store",
			slog.String("error", err.Error()),
		)
		idemStore = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	} else {
		idemStore = pkgkafka.NewRedisIdempotencyStore(redisClient, "search-service", idempotencyTTL)
		logger.Info("connected to Redis",
			slog.String("host", cfg.RedisHost),
			slog.Int("port", cfg.RedisPort),
		)
	}

	// Kafka consumers for the product change feed.
	eventConsumer := event.NewConsumer(searchService, productStore, indexer, logger)
	eventHandler := pkgkafka.IdempotentHandler(idemStore, eventConsumer.Handle, logger)

	var consumers []*pkgkafka.Consumer
	for _, topic := range event.Topics() {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}
		consumers = append(consumers, pkgkafka.NewConsumer(consumerCfg, eventHandler, logger))
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(event.Topics())),
	)

	// Health checks. The engine check is advisory: a down cluster is
	// reported but never fails readiness, since SQL keeps serving.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})
	healthHandler.RegisterAdvisory("elasticsearch", func(ctx context.Context) error {
		if searchService.Enabled() && !searchService.Ping(ctx) {
			return errors.New("engine unreachable")
		}
		return nil
	})

	// HTTP router.
	productHandler := handler.NewProductHandler(searchService, productStore, indexer, logger)
	router := handler.NewRouter(productHandler, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		indexer:    indexer,
		consumers:  consumers,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server, the Kafka consumers, and the startup index
// pass, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	// Startup index maintenance pass.
	if a.cfg.AutoIndex {
		go a.indexer.Run(ctx)
	}

	// Start Kafka consumers in background goroutines.
	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
