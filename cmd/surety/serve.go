package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	jwttoken "flightsurety/internal/jwt_token"
	oplogstore "flightsurety/internal/oplog/store"
	"flightsurety/internal/platform/config"
	"flightsurety/internal/platform/httpserver"
	"flightsurety/internal/platform/kafka"
	platformmetrics "flightsurety/internal/platform/metrics"
	platformmw "flightsurety/internal/platform/middleware"
	"flightsurety/internal/platform/postgres"
	redisclient "flightsurety/internal/platform/redis"
	ratelimitmw "flightsurety/internal/ratelimit/middleware"
	ratelimitmodels "flightsurety/internal/ratelimit/models"
	"flightsurety/internal/ratelimit/store/bucket"
	snapshotstore "flightsurety/internal/snapshot/store"
	"flightsurety/internal/surety"
	"flightsurety/internal/surety/handler"
	suretymetrics "flightsurety/internal/surety/metrics"
	audit "flightsurety/pkg/platform/audit"
	"flightsurety/pkg/platform/audit/publisher"
	kafkastore "flightsurety/pkg/platform/audit/store/kafka"
	auditmemory "flightsurety/pkg/platform/audit/store/memory"
	"flightsurety/pkg/platform/circuit"
	"flightsurety/pkg/platform/middleware/auth"
	"flightsurety/pkg/platform/middleware/metadata"
	"flightsurety/pkg/platform/middleware/requesttime"
)

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Restore the registry and serve the HTTP facade and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
}

type closeLogStore interface {
	surety.LogStore
	io.Closer
}

func (c *cli) serve(ctx context.Context) error {
	cfg, log := c.cfg, c.logger

	genesis, err := cfg.BuildGenesis()
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	if caller := cfg.Caller(); caller.IsZero() {
		log.Warn("app.caller is not set; every mutation over HTTP will fail the caller gate")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	logStore, err := openLogStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer logStore.Close()

	rdb, err := redisclient.New(ctx, redisclient.Config{URL: cfg.Redis.URL, PoolSize: cfg.Redis.PoolSize})
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}
	snapshots := openSnapshotStore(rdb, cfg.Redis)

	sink, closeSink, err := openAuditSink(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeSink()
	auditor := publisher.NewPublisher(sink, publisher.WithAsyncBuffer(cfg.Audit.Buffer), publisher.WithLogger(log))
	defer auditor.Close()

	engine, err := surety.New(genesis,
		surety.WithLogger(log),
		surety.WithLogStore(logStore),
		surety.WithSnapshots(snapshots, cfg.Snapshot.Interval),
		surety.WithAuditor(auditor),
		surety.WithMetrics(suretymetrics.New(reg)),
	)
	if err != nil {
		return err
	}
	if err := engine.Restore(ctx); err != nil {
		return fmt.Errorf("restore registry: %w", err)
	}
	log.Info("registry restored", "height", engine.Height(), "storage", cfg.Storage.Driver)

	jwtService := jwttoken.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	limiter := newRateLimiter(cfg.RateLimit, rdb, log)
	router := newRouter(cfg, log, engine, jwttoken.NewJWTServiceAdapter(jwtService), limiter, platformmetrics.New(reg))

	api := httpserver.New(cfg.Server.Addr, router)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	metricsSrv := httpserver.New(cfg.Server.MetricsAddr, metricsMux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Serve(gctx, api, cfg.Server.ShutdownTimeout, log)
	})
	g.Go(func() error {
		return httpserver.Serve(gctx, metricsSrv, cfg.Server.ShutdownTimeout, log)
	})
	err = g.Wait()

	if snapErr := engine.Snapshot(context.Background()); snapErr != nil {
		log.Error("final snapshot failed", "error", snapErr)
	}
	return err
}

func newRouter(cfg *config.Config, log *slog.Logger, engine handler.Engine, validator auth.JWTValidator, limiter *ratelimitmw.Middleware, m *platformmetrics.Metrics) chi.Router {
	r := chi.NewRouter()
	r.Use(platformmw.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(platformmw.Logger(log))
	r.Use(platformmw.Latency(m))
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(platformmw.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, cfg.Caller(), log))
		r.Use(limiter.Handler)
		handler.New(engine, log).Register(r)
	})
	return r
}

func openLogStore(ctx context.Context, cfg config.Storage) (closeLogStore, error) {
	switch cfg.Driver {
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, postgres.Config{Driver: cfg.PostgresDriver, DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		store, err := oplogstore.NewPostgres(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	case config.StorageSQLite:
		return oplogstore.NewSQLite(ctx, cfg.SQLitePath)
	}
	return oplogstore.NewInMemory(), nil
}

func openSnapshotStore(rdb *redisclient.Client, cfg config.Redis) surety.SnapshotStore {
	if rdb == nil {
		return snapshotstore.NewInMemory()
	}
	return snapshotstore.NewRedis(rdb.Client, snapshotstore.WithRetention(cfg.Retention))
}

// newRateLimiter counts in Redis when it is configured, falling back to a
// process-local window while the breaker is open.
func newRateLimiter(cfg config.RateLimit, rdb *redisclient.Client, log *slog.Logger) *ratelimitmw.Middleware {
	var store ratelimitmw.Store = bucket.New()
	if rdb != nil {
		store = ratelimitmw.NewFallbackStore(bucket.NewRedis(rdb.Client), store, circuit.New("ratelimit-redis"), log)
	}
	return ratelimitmw.New(store, log,
		ratelimitmw.WithDisabled(!cfg.Enabled),
		ratelimitmw.WithLimit(ratelimitmodels.ClassRead, ratelimitmodels.Limit{Requests: cfg.Reads, Window: cfg.Window}),
		ratelimitmw.WithLimit(ratelimitmodels.ClassWrite, ratelimitmodels.Limit{Requests: cfg.Writes, Window: cfg.Window}),
	)
}

// openAuditSink ships events to Kafka behind a circuit breaker that falls
// back to an in-memory store. Without brokers the in-memory store is the sink.
func openAuditSink(ctx context.Context, cfg config.Kafka, log *slog.Logger) (audit.Store, func(), error) {
	fallback := auditmemory.NewInMemoryStore()
	if !cfg.Enabled() {
		return fallback, func() {}, nil
	}
	kcfg := kafkaConfig(cfg)
	producer, err := kafka.NewProducer(kcfg)
	if err != nil {
		return nil, nil, err
	}
	if err := kafka.EnsureTopic(ctx, producer, kcfg); err != nil {
		producer.Close()
		return nil, nil, err
	}
	store := kafkastore.New(producer, cfg.Topic,
		kafkastore.WithBreaker(circuit.New("audit-kafka")),
		kafkastore.WithFallback(fallback),
		kafkastore.WithLogger(log),
	)
	return store, producer.Close, nil
}

func kafkaConfig(cfg config.Kafka) kafka.Config {
	return kafka.Config{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partitions:  cfg.Partitions,
		Replication: cfg.Replication,
		ClientID:    cfg.ClientID,
		Group:       cfg.Group,
	}
}
