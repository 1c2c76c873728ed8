package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Prefix: "REFDATA_", Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "refdata.changes", cfg.Kafka.Topic)
	assert.Equal(t, "refdata:write", cfg.Auth.WriteScope)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parse(env.Options{Prefix: "REFDATA_", Environment: map[string]string{
		"REFDATA_HTTP_ADDR":         ":9090",
		"REFDATA_HTTP_CORS_ORIGINS": "https://a.example,https://b.example",
		"REFDATA_DB_PORT":           "6543",
		"REFDATA_KAFKA_BROKERS":     "k1:9092,k2:9092",
		"REFDATA_KAFKA_BATCH_SIZE":  "10",
		"REFDATA_LOG_FORMAT":        "text",
	}})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Kafka.BatchSize)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, err := parse(env.Options{Prefix: "REFDATA_", Environment: map[string]string{"REFDATA_DB_PORT": "abc"}})
	require.Error(t, err)

	_, err = parse(env.Options{Prefix: "REFDATA_", Environment: map[string]string{"REFDATA_LOG_FORMAT": "xml"}})
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := Database{Host: "db", Port: 5432, Name: "refdata", User: "app", Password: `p'a ss\`, SSLMode: "disable"}
	assert.Equal(t, `host='db' port='5432' dbname='refdata' user='app' password='p\'a ss\\' sslmode='disable'`, d.DSN())

	d.Password = ""
	assert.NotContains(t, d.DSN(), "password")
}
