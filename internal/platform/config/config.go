// Package config loads service configuration from REFDATA_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the complete service configuration.
type Config struct {
	HTTP  Server      `envPrefix:"HTTP_"`
	DB    Database    `envPrefix:"DB_"`
	Redis RedisConfig `envPrefix:"REDIS_"`
	Kafka Kafka       `envPrefix:"KAFKA_"`
	Auth  Auth        `envPrefix:"AUTH_"`
	Log   Log         `envPrefix:"LOG_"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `env:"ADDR" envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins       []string      `env:"CORS_ORIGINS" envSeparator:","`
}

// Database holds the PostgreSQL connection settings.
type Database struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	Name            string        `env:"NAME" envDefault:"refdata"`
	User            string        `env:"USER" envDefault:"refdata"`
	Password        string        `env:"PASSWORD"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

// DSN renders the lib/pq key/value connection string. Values are quoted so
// passwords may contain spaces and quotes.
func (d Database) DSN() string {
	pairs := []struct{ key, value string }{
		{"host", d.Host},
		{"port", fmt.Sprint(d.Port)},
		{"dbname", d.Name},
		{"user", d.User},
		{"password", d.Password},
		{"sslmode", d.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quote(p.value))
	}
	return strings.Join(parts, " ")
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

// RedisConfig configures the optional read-through cache. An empty URL
// disables caching.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	TTL          time.Duration `env:"TTL" envDefault:"5m"`
}

// Kafka configures change publishing. No brokers disables the outbox worker.
type Kafka struct {
	Brokers      []string      `env:"BROKERS" envSeparator:","`
	Topic        string        `env:"TOPIC" envDefault:"refdata.changes"`
	Partitions   int32         `env:"PARTITIONS" envDefault:"3"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"100"`
}

// Enabled reports whether any broker is configured.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

// Auth configures the write guard. An empty signing key leaves writes open.
type Auth struct {
	JWTSigningKey string `env:"JWT_SIGNING_KEY"`
	Issuer        string `env:"ISSUER" envDefault:"refdata"`
	Audience      string `env:"AUDIENCE" envDefault:"refdata"`
	WriteScope    string `env:"WRITE_SCOPE" envDefault:"refdata:write"`
}

// Log selects the slog level and handler.
type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses the environment.
func Load() (*Config, error) {
	return parse(env.Options{Prefix: "REFDATA_"})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return nil, fmt.Errorf("parse config: unknown log format %q", cfg.Log.Format)
	}
	return &cfg, nil
}
