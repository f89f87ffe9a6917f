package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"triggerd/internal/api"
	"triggerd/internal/bus"
	"triggerd/internal/cache"
	"triggerd/internal/clock"
	"triggerd/internal/config"
	"triggerd/internal/dbinit"
	"triggerd/internal/entitystore"
	"triggerd/internal/executor"
	"triggerd/internal/jobservice"
	"triggerd/internal/lock"
	"triggerd/internal/logging"
	"triggerd/internal/message_broaker"
	"triggerd/internal/scheduler"
	"triggerd/internal/store/postgres"
	"triggerd/internal/worker"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(os.Getenv("TRIGGERD_ENV") == "dev")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := dbinit.Init(ctx, cfg.PostgresURL, logger)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer db.Close()

	jobStore := postgres.NewJobStore(db)
	triggerStore := postgres.NewTriggerStore(db)
	lockMgr := lock.NewPostgresDistributedLockManager(db)

	clk := clock.New(cfg.DefaultZone)

	var jobCache *cache.JobCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		jobCache = cache.New(rdb)
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		logger.Fatal("bus publisher init failed", zap.Error(err))
	}
	defer publisher.Close()

	engine := scheduler.New(triggerStore, clk, logger)
	if err := withTriggerReloadLock(ctx, lockMgr, engine); err != nil {
		logger.Fatal("trigger reload failed", zap.Error(err))
	}

	// No production entity store adapter is wired here: spec §1 puts the
	// entity store out of scope as an external collaborator, so the
	// executor runs against an empty fake until one is supplied.
	exec := executor.New(jobStore, entitystore.NewFake(), publisher, clk, logger)
	pool := worker.New(engine.Fires(), cfg.WorkerCount, exec.Fire, engine.Complete, logger)

	svc := jobservice.New(jobStore, engine, clk, jobCache, logger)
	router := api.NewRouter(svc)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: router}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		pool.Run(ctx)
	}()

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// withTriggerReloadLock guards Engine.Reload with a distributed advisory
// lock so that, during a rolling restart, at most one instance rebuilds the
// in-memory trigger heap from storage at a time (spec §9 open question:
// concurrent instances sharing one Postgres-backed trigger store).
func withTriggerReloadLock(ctx context.Context, mgr *lock.PostgresDistributedLockManager, engine *scheduler.Engine) error {
	if err := mgr.Acquire(ctx, lock.TriggerReloadLock); err != nil {
		return err
	}
	defer mgr.Release(context.Background(), lock.TriggerReloadLock)
	return engine.Reload(ctx)
}

func buildPublisher(cfg config.Config) (bus.Publisher, error) {
	switch cfg.BusDriver {
	case config.BusRabbitMQ:
		broker, err := message_broaker.NewRabbitMQ(cfg.RabbitMQURL, "triggerd", cfg.RabbitMQQueue, cfg.RabbitMQQueue)
		if err != nil {
			return nil, err
		}
		return bus.NewRabbitMQPublisher(broker, cfg.RabbitMQQueue), nil
	default:
		return bus.NewKafkaPublisher(bus.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
	}
}
