package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "aster-api", cfg.AppName)
	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "aster", cfg.DatabaseName)
	assert.Equal(t, "db/pg", cfg.DatabaseMigrationFolderPath)
	assert.False(t, cfg.TracingEnabled)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.RedisEnabled)
	assert.False(t, cfg.GraphDBEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.GraphCacheTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("GRAPH_CACHE_TTL", "5m")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")

	cfg := FromEnv()

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Minute, cfg.GraphCacheTTL)
	assert.Equal(t, 50, cfg.DatabaseMaxOpenConns)
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("GRAPH_CACHE_TTL", "forever")

	cfg := FromEnv()

	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.GraphCacheTTL)
}
