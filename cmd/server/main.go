package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Ramsey-B/aster/config"
	attributerepo "github.com/Ramsey-B/aster/internal/repositories/attribute"
	dossierrepo "github.com/Ramsey-B/aster/internal/repositories/dossier"
	mediarepo "github.com/Ramsey-B/aster/internal/repositories/media"
	mergelogrepo "github.com/Ramsey-B/aster/internal/repositories/mergelog"
	personrepo "github.com/Ramsey-B/aster/internal/repositories/person"
	relationshiprepo "github.com/Ramsey-B/aster/internal/repositories/relationship"
	"github.com/Ramsey-B/aster/pkg/cache"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/events"
	"github.com/Ramsey-B/aster/pkg/graph"
	"github.com/Ramsey-B/aster/pkg/graphview"
	"github.com/Ramsey-B/aster/pkg/kafka"
	"github.com/Ramsey-B/aster/pkg/logger"
	"github.com/Ramsey-B/aster/pkg/merging"
	"github.com/Ramsey-B/aster/pkg/middleware"
	attributeroutes "github.com/Ramsey-B/aster/pkg/routes/attribute"
	dossierroutes "github.com/Ramsey-B/aster/pkg/routes/dossier"
	"github.com/Ramsey-B/aster/pkg/routes/health"
	personroutes "github.com/Ramsey-B/aster/pkg/routes/person"
	relationshiproutes "github.com/Ramsey-B/aster/pkg/routes/relationship"
	"github.com/Ramsey-B/aster/pkg/startup"
	"github.com/Ramsey-B/aster/pkg/timeline"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/Ramsey-B/aster/pkg/tracing/exporters"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(cfg.PrettyLogs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := initTracing(ctx, cfg)
		if err != nil {
			log.WithError(err).Error("Failed to initialize tracing")
			os.Exit(1)
		}
		defer shutdown()
	}

	var (
		sqlDB       *sqlx.DB
		db          database.DB
		producer    *kafka.Producer
		emitter     *events.Emitter
		redisClient *cache.Client
		graphCache  *cache.GraphCache
		graphClient *graph.Client
		mirror      *graph.Mirror
	)

	boot := startup.NewStartup(log, cfg.StartupMaxAttempts)

	boot.AddDependency(&startup.FuncDependency{
		Name: "postgres",
		StartFunc: func(ctx context.Context) error {
			conn, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, postgresDSN(cfg))
			if err != nil {
				return err
			}
			conn.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
			conn.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
			conn.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
			sqlDB = conn
			db = database.NewDatabaseInstance(conn, log)
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			return sqlDB.Close()
		},
	})

	boot.AddDependency(&startup.FuncDependency{
		Name:  "migrations",
		Needs: []string{"postgres"},
		StartFunc: func(ctx context.Context) error {
			driver, err := migratepg.WithInstance(sqlDB.DB, &migratepg.Config{})
			if err != nil {
				return err
			}
			migrations := database.NewMigrationService(log, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			return migrations.Migrate(cfg.DatabaseName, driver)
		},
	})

	if cfg.KafkaEnabled {
		boot.AddDependency(&startup.FuncDependency{
			Name: "kafka",
			StartFunc: func(ctx context.Context) error {
				producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
				}, log)
				emitter = events.NewEmitter(producer, log)
				return nil
			},
			StopFunc: func(ctx context.Context) error {
				return producer.Close()
			},
		})
	}

	if cfg.RedisEnabled {
		boot.AddDependency(&startup.FuncDependency{
			Name: "redis",
			StartFunc: func(ctx context.Context) error {
				client, err := cache.NewClient(cache.Config{
					Addr:     cfg.RedisAddr,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, log)
				if err != nil {
					return err
				}
				redisClient = client
				graphCache = cache.NewGraphCache(client, log, cfg.GraphCacheTTL)
				return nil
			},
			StopFunc: func(ctx context.Context) error {
				return redisClient.Close()
			},
		})
	}

	if cfg.GraphDBEnabled {
		boot.AddDependency(&startup.FuncDependency{
			Name: "graphdb",
			StartFunc: func(ctx context.Context) error {
				client, err := graph.NewClient(graph.Config{
					Host:     cfg.GraphDBHost,
					Port:     cfg.GraphDBPort,
					Username: cfg.GraphDBUser,
					Password: cfg.GraphDBPassword,
				}, log)
				if err != nil {
					return err
				}
				if err := client.VerifyConnectivity(ctx); err != nil {
					return err
				}
				graphClient = client
				mirror = graph.NewMirror(client, log)
				return nil
			},
			StopFunc: func(ctx context.Context) error {
				return graphClient.Close(ctx)
			},
		})
	}

	if err := boot.Start(ctx); err != nil {
		log.WithError(err).Error("Startup failed")
		os.Exit(1)
	}

	dossierRepo := dossierrepo.NewRepository(db, log)
	personRepo := personrepo.NewRepository(db, log)
	attributeRepo := attributerepo.NewRepository(db, log)
	relationshipRepo := relationshiprepo.NewRepository(db, log)
	mediaRepo := mediarepo.NewRepository(db, log)
	mergeLogRepo := mergelogrepo.NewRepository(db, log)

	mergeEngine := merging.NewEngine(log, personRepo, attributeRepo, relationshipRepo, mediaRepo, mergeLogRepo, emitter)
	graphService := graphview.NewService(log, dossierRepo, personRepo, relationshipRepo, graphCache)
	timelineService := timeline.NewService(log, personRepo, attributeRepo, relationshipRepo)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(log)

	e.Use(middleware.Metrics())
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(log))

	checker := health.NewChecker(db, redisClient, graphClient, version)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	dossierroutes.NewHandler(log, dossierRepo, personRepo, relationshipRepo, mergeLogRepo, graphService, emitter, mirror, graphCache).
		Register(api.Group("/dossiers"))
	personroutes.NewHandler(log, personRepo, attributeRepo, mediaRepo, mergeEngine, timelineService, emitter, mirror, graphCache).
		Register(api.Group("/persons"))
	attributeroutes.NewHandler(log, attributeRepo).
		Register(api.Group("/attributes"))
	relationshiproutes.NewHandler(log, relationshipRepo, emitter, mirror, graphCache).
		Register(api.Group("/relationships"))

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		log.Infof("Starting %s on %s", cfg.AppName, addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error")
			os.Exit(1)
		}
	}()

	checker.SetReady(true)

	<-ctx.Done()
	log.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	if err := boot.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to stop dependencies")
	}
}

func postgresDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUserName,
		cfg.DatabasePassword,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
}

func initTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.TracingOTLPEndpoint,
		Protocol: cfg.TracingOTLPProtocol,
		Insecure: true,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.AppName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}, nil
}
