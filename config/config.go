package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppName                       string
	Port                          int
	LogLevel                      string
	PrettyLogs                    bool
	HttpServerWriteTimeoutSeconds int
	HttpServerReadTimeoutSeconds  int
	HttpServerIdleTimeoutSeconds  int
	StartupMaxAttempts            int

	// PostgreSQL
	DatabaseDriver                string
	DatabaseHost                  string
	DatabasePort                  string
	DatabaseUserName              string
	DatabasePassword              string
	DatabaseName                  string
	DatabaseSSLMode               string
	DatabaseMaxOpenConns          int
	DatabaseMaxIdleConns          int
	DatabaseConnMaxLifetime       time.Duration
	DatabaseMigrationFolderPath   string
	DatabaseMigrationVersion      int
	DatabaseMigrationAutoRollback bool

	// Tracing
	TracingEnabled      bool
	TracingOTLPEndpoint string
	TracingOTLPProtocol string

	// Graph mirror (Neo4j/Memgraph, optional)
	GraphDBEnabled  bool
	GraphDBHost     string
	GraphDBPort     int
	GraphDBUser     string
	GraphDBPassword string

	// Kafka producer (lifecycle events, optional)
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaOutputTopic  string
	KafkaBatchSize    int
	KafkaBatchTimeout int
	KafkaRequiredAcks int

	// Redis graph cache (optional)
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	GraphCacheTTL time.Duration
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() *Config {
	return &Config{
		AppName:                       getString("APP_NAME", "aster-api"),
		Port:                          getInt("PORT", 3004),
		LogLevel:                      getString("LOG_LEVEL", "info"),
		PrettyLogs:                    getBool("PRETTY_LOGS", false),
		HttpServerWriteTimeoutSeconds: getInt("HTTP_SERVER_WRITE_TIMEOUT_SECONDS", 10),
		HttpServerReadTimeoutSeconds:  getInt("HTTP_SERVER_READ_TIMEOUT_SECONDS", 10),
		HttpServerIdleTimeoutSeconds:  getInt("HTTP_SERVER_IDLE_TIMEOUT_SECONDS", 10),
		StartupMaxAttempts:            getInt("STARTUP_MAX_ATTEMPTS", 5),

		DatabaseDriver:                getString("DB_DRIVER", "postgres"),
		DatabaseHost:                  getString("DB_HOST", "localhost"),
		DatabasePort:                  getString("DB_PORT", "5432"),
		DatabaseUserName:              getString("DB_USER_NAME", ""),
		DatabasePassword:              getString("DB_PASSWORD", ""),
		DatabaseName:                  getString("DB_NAME", "aster"),
		DatabaseSSLMode:               getString("DB_SSL_MODE", "disable"),
		DatabaseMaxOpenConns:          getInt("DB_MAX_OPEN_CONNS", 25),
		DatabaseMaxIdleConns:          getInt("DB_MAX_IDLE_CONNS", 10),
		DatabaseConnMaxLifetime:       getDuration("DB_CONN_MAX_LIFETIME", 10*time.Second),
		DatabaseMigrationFolderPath:   getString("DB_MIGRATION_FOLDER_PATH", "db/pg"),
		DatabaseMigrationVersion:      getInt("DB_MIGRATION_VERSION", 0),
		DatabaseMigrationAutoRollback: getBool("DB_MIGRATION_AUTO_ROLLBACK", true),

		TracingEnabled:      getBool("TRACING_ENABLED", false),
		TracingOTLPEndpoint: getString("TRACING_OTLP_ENDPOINT", "localhost:4317"),
		TracingOTLPProtocol: getString("TRACING_OTLP_PROTOCOL", "grpc"),

		GraphDBEnabled:  getBool("GRAPH_DB_ENABLED", false),
		GraphDBHost:     getString("GRAPH_DB_HOST", "localhost"),
		GraphDBPort:     getInt("GRAPH_DB_PORT", 7687),
		GraphDBUser:     getString("GRAPH_DB_USER", ""),
		GraphDBPassword: getString("GRAPH_DB_PASSWORD", ""),

		KafkaEnabled:      getBool("KAFKA_ENABLED", false),
		KafkaBrokers:      getStrings("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaOutputTopic:  getString("KAFKA_OUTPUT_TOPIC", "dossier-events"),
		KafkaBatchSize:    getInt("KAFKA_BATCH_SIZE", 100),
		KafkaBatchTimeout: getInt("KAFKA_BATCH_TIMEOUT_MS", 100),
		KafkaRequiredAcks: getInt("KAFKA_REQUIRED_ACKS", 1),

		RedisEnabled:  getBool("REDIS_ENABLED", false),
		RedisAddr:     getString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getString("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		GraphCacheTTL: getDuration("GRAPH_CACHE_TTL", 30*time.Second),
	}
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getStrings(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value == "true" || value == "1"
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
