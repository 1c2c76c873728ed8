package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"refdata/internal/catalog"
	"refdata/internal/changes"
	jwttoken "refdata/internal/jwt_token"
	"refdata/internal/platform/config"
	"refdata/internal/platform/postgres"
	"refdata/internal/platform/redis"
	"refdata/internal/reference"
	"refdata/pkg/platform/tx"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending database migrations",
		Flags: []cli.Flag{timeoutFlag},
		Action: func(c *cli.Context) error {
			return withDB(c, func(ctx context.Context, db *sql.DB, _ *config.Config, log *slog.Logger) error {
				applied, err := postgres.Migrate(ctx, db, log)
				if err != nil {
					return err
				}
				log.InfoContext(ctx, "migrations complete", "applied", len(applied))
				return nil
			})
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "load reference records from a YAML file, skipping codes that already exist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "seed file (use '-' for stdin)",
				Required: true,
			},
			timeoutFlag,
		},
		Action: func(c *cli.Context) error {
			file, err := readSeed(c.String("file"))
			if err != nil {
				return err
			}
			return withDB(c, func(ctx context.Context, db *sql.DB, cfg *config.Config, log *slog.Logger) error {
				recorder, _ := changeSink(changes.NewOutbox(db), cfg.Kafka.Enabled())
				registry := reference.New(reference.Deps{
					DB:      db,
					Tx:      tx.NewSQLManager(db),
					Changes: recorder,
					Logger:  log,
				})
				results, err := registry.Seed(ctx, file, log)
				if err != nil {
					return err
				}
				created := 0
				for _, r := range results {
					created += r.Created
				}
				log.InfoContext(ctx, "seed complete", "entities", len(results), "created", created)
				return nil
			})
		},
	}
}

func readSeed(path string) (reference.SeedFile, error) {
	if path == "-" {
		return reference.ParseSeed(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return reference.ParseSeed(f)
}

func purgeOutboxCommand() *cli.Command {
	return &cli.Command{
		Name:  "purge-outbox",
		Usage: "delete published changes older than the retention window",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "older-than",
				Usage: "retention window",
				Value: 7 * 24 * time.Hour,
			},
			timeoutFlag,
		},
		Action: func(c *cli.Context) error {
			return withDB(c, func(ctx context.Context, db *sql.DB, _ *config.Config, log *slog.Logger) error {
				n, err := changes.NewOutbox(db).Purge(ctx, time.Now().Add(-c.Duration("older-than")))
				if err != nil {
					return err
				}
				log.InfoContext(ctx, "outbox purged", "deleted", n)
				return nil
			})
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint a bearer token signed with the configured key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "subject",
				Usage:    "token subject recorded on changes",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "scope",
				Usage: "scopes to grant (defaults to the write scope)",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "token lifetime",
				Value: time.Hour,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSigningKey == "" {
				return fmt.Errorf("REFDATA_AUTH_JWT_SIGNING_KEY is not set")
			}
			scopes := c.StringSlice("scope")
			if len(scopes) == 0 {
				scopes = []string{cfg.Auth.WriteScope}
			}
			service := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			token, err := service.GenerateToken(strings.TrimSpace(c.String("subject")), scopes, c.Duration("ttl"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, token)
			return err
		},
	}
}

func flushCacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "flush-cache",
		Usage: "evict cached records, for all entities or one",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "entity",
				Usage: "route name of the entity to evict, e.g. countries",
			},
			timeoutFlag,
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if cfg.Redis.URL == "" {
				return fmt.Errorf("REFDATA_REDIS_URL is not set")
			}

			prefix := catalog.CacheKeyPrefix
			if entity := c.String("entity"); entity != "" {
				if _, ok := reference.New(reference.Deps{Logger: log}).Module(entity); !ok {
					return fmt.Errorf("unknown entity %q", entity)
				}
				prefix += entity + ":"
			}

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()
			client, err := redis.New(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := client.DeletePrefix(ctx, prefix)
			if err != nil {
				return err
			}
			log.InfoContext(ctx, "cache flushed", "prefix", prefix, "deleted", n)
			return nil
		},
	}
}
