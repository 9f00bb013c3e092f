// Command server runs the trade validation engine: rule configuration, the
// system-of-record trade CRUD, validation runs with checker review, and
// report exports. Wiring lives here; behavior lives in internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"affirm/internal/audit"
	"affirm/internal/platform/config"
	"affirm/internal/platform/httpserver"
	"affirm/internal/platform/logger"
	"affirm/internal/platform/middleware"
	platformredis "affirm/internal/platform/redis"
	reporthandler "affirm/internal/report/handler"
	ruleshandler "affirm/internal/rules/handler"
	rulestore "affirm/internal/rules/store"
	tradeshandler "affirm/internal/trades/handler"
	tradestore "affirm/internal/trades/store"
	validationhandler "affirm/internal/validation/handler"
	validationmetrics "affirm/internal/validation/metrics"
	validationservice "affirm/internal/validation/service"
	validationstore "affirm/internal/validation/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	// Rule store: file-backed when a path is configured, memory otherwise.
	// Both are seeded with the default TRS rule set when empty.
	var rules rulestore.Store
	if cfg.RulesPath != "" {
		rules = rulestore.NewFile(cfg.RulesPath)
	} else {
		rules = rulestore.NewInMemory()
	}
	if err := rulestore.SeedDefaults(ctx, rules); err != nil {
		log.Error("failed to seed matching rules", "error", err)
		os.Exit(1)
	}

	// Trade store: Postgres when a DSN is configured, memory otherwise.
	var trades tradestore.Store
	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := tradestore.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure trade schema", "error", err)
			os.Exit(1)
		}
		trades = pg
	} else {
		trades = tradestore.NewInMemory()
	}

	// Validation result store: Redis when configured, memory otherwise.
	var results validationstore.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		results = validationstore.NewRedis(redisClient.Client)
	} else {
		results = validationstore.NewInMemory()
	}

	// Audit trail: Kafka when brokers are configured, in-memory otherwise.
	// A buffered worker keeps event delivery off the request path.
	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to connect audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	} else {
		sink = audit.NewInMemorySink()
	}
	auditInbox := make(chan audit.Event, 256)
	auditCtx, stopAudit := context.WithCancel(ctx)
	defer stopAudit()
	go func() {
		if err := audit.NewWorker(sink, auditInbox).Run(auditCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	auditPub := audit.NewPublisher(audit.ChannelSink(auditInbox))

	engine := validationservice.New(
		results,
		trades,
		rules,
		validationservice.Thresholds{
			AutoPass:         cfg.AutoPassThreshold,
			ResolutionFloor:  cfg.ResolutionFloor,
			MismatchBoundary: cfg.MismatchBoundary,
		},
		validationmetrics.New(),
		auditPub,
		log,
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	ruleshandler.New(rules, log).Register(router)
	tradeshandler.New(trades, log).Register(router)
	validationhandler.New(engine, log).Register(router)
	reporthandler.New(engine, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
