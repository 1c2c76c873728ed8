package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	catalogmetrics "refdata/internal/catalog/metrics"
	"refdata/internal/changes"
	httpapi "refdata/internal/http"
	jwttoken "refdata/internal/jwt_token"
	"refdata/internal/platform/cache"
	"refdata/internal/platform/config"
	"refdata/internal/platform/httpserver"
	"refdata/internal/platform/kafka"
	"refdata/internal/platform/logger"
	"refdata/internal/platform/metrics"
	"refdata/internal/platform/middleware"
	"refdata/internal/platform/postgres"
	"refdata/internal/platform/redis"
	"refdata/internal/reference"
	"refdata/pkg/platform/circuit"
	"refdata/pkg/platform/tx"
)

func main() {
	app := &cli.App{
		Name:  "refdata",
		Usage: "reference data service",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
			purgeOutboxCommand(),
			tokenCommand(),
			flushCacheCommand(),
		},
		DefaultCommand: "serve",
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err != nil {
			slog.ErrorContext(c.Context, "command failed", "error", err)
		}
	}
	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and installs the process logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	return cfg, log, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "in-memory",
				Usage:   "keep records in process memory instead of PostgreSQL",
				EnvVars: []string{"REFDATA_IN_MEMORY"},
			},
			&cli.BoolFlag{
				Name:    "migrate",
				Usage:   "apply pending migrations before serving",
				EnvVars: []string{"REFDATA_AUTO_MIGRATE"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log, c.Bool("in-memory"), c.Bool("migrate"))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger, inMemory, autoMigrate bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := reference.Deps{
		Metrics:  catalogmetrics.New(reg),
		CacheTTL: cfg.Redis.TTL,
		Logger:   log,
	}
	checks := map[string]httpapi.Check{}
	g, gctx := errgroup.WithContext(ctx)

	var store outbox
	if inMemory {
		store = changes.NewMemoryOutbox()
	} else {
		db, err := postgres.Open(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		if autoMigrate {
			if _, err := postgres.Migrate(ctx, db, log); err != nil {
				return err
			}
		}
		store = changes.NewOutbox(db)
		deps.DB = db
		deps.Tx = tx.NewSQLManager(db)
		checks["postgres"] = db.PingContext
	}
	var source changes.Source
	deps.Changes, source = changeSink(store, cfg.Kafka.Enabled())

	if source != nil {
		client, err := kafka.NewClient(ctx, cfg.Kafka)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka); err != nil {
			return err
		}
		worker := changes.NewWorker(source, changes.NewKafkaPublisher(client, cfg.Kafka.Topic),
			cfg.Kafka.PollInterval, cfg.Kafka.BatchSize, log)
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		checks["kafka"] = client.Ping
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		deps.Cache = cache.NewGuarded(cache.NewRedis(redisClient.Client), circuit.New("redis"), log)
		checks["redis"] = redisClient.Health
	}

	var writeGuard func(http.Handler) http.Handler
	if cfg.Auth.JWTSigningKey != "" {
		jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
		writeGuard = middleware.RequireScope(jwttoken.NewJWTServiceAdapter(jwtService), cfg.Auth.WriteScope, log)
	} else {
		log.WarnContext(ctx, "no signing key configured, write routes are open")
	}

	router := httpapi.NewRouter(httpapi.Config{
		Registry:    reference.New(deps),
		Logger:      log,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		WriteGuard:  writeGuard,
		Checks:      checks,
	})
	srv := httpserver.New(cfg.HTTP.Addr, router, cfg.HTTP.ReadHeaderTimeout)

	g.Go(func() error {
		log.InfoContext(gctx, "starting refdata", "addr", cfg.HTTP.Addr, "in_memory", inMemory)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.InfoContext(shutdownCtx, "server stopped")
		return nil
	})
	return g.Wait()
}

type outbox interface {
	changes.Recorder
	changes.Source
}

// changeSink returns where writes record their changes and, when a worker
// will publish them, the source it drains. Without a broker nothing drains
// the outbox, so changes are discarded.
func changeSink(store outbox, publish bool) (changes.Recorder, changes.Source) {
	if !publish {
		return changes.Discard{}, nil
	}
	return store, store
}

// withDB opens the configured database for one-shot commands.
func withDB(c *cli.Context, fn func(ctx context.Context, db *sql.DB, cfg *config.Config, log *slog.Logger) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()
	db, err := postgres.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db, cfg, log)
}

var timeoutFlag = &cli.DurationFlag{
	Name:  "timeout",
	Usage: "give up after this long",
	Value: 5 * time.Minute,
}
