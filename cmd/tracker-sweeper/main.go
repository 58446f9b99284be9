// Tracker Sweeper — периодический обход активных projects.
//
// Sweeper подстраховывает watcher: даже если события изменений были
// потеряны, каскадные рекомендации будут найдены при очередном обходе.
// Лидерство между репликами разыгрывается через pg advisory lock.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Tracker/internal/cascade"
	"github.com/shaiso/Tracker/internal/mq"
	"github.com/shaiso/Tracker/internal/repo"
	"github.com/shaiso/Tracker/internal/sweeper"
	"github.com/shaiso/Tracker/internal/telemetry"
	"github.com/shaiso/Tracker/internal/workflow"
)

const sweepLockKey int64 = 424243

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting tracker-sweeper")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Лидерство: обход выполняет только одна реплика sweeper'а.
	var isLeader bool
	if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", sweepLockKey).Scan(&isLeader); err != nil {
		logger.Error("failed to acquire advisory lock", "error", err)
		os.Exit(1)
	}
	if !isLeader {
		logger.Warn("another sweeper instance holds the lock, standing by")
	}
	defer func() {
		if isLeader {
			_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", sweepLockKey)
		}
	}()

	// Создаём репозитории
	projectRepo := repo.NewProjectRepo(pool)
	featureRepo := repo.NewFeatureRepo(pool)
	taskRepo := repo.NewTaskRepo(pool)

	// Конфигурация workflow для детектора
	wfConfig, err := workflow.Load(os.Getenv("WORKFLOW_CONFIG"))
	if err != nil {
		logger.Error("failed to load workflow config", "error", err)
		os.Exit(1)
	}
	resolver := workflow.NewResolver(wfConfig)
	detector := cascade.NewDetector(projectRepo, featureRepo, taskRepo, resolver)

	// RabbitMQ — опционален
	var publisher *mq.Publisher
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, cascade events will only be logged", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Создаём sweeper
	sw := sweeper.New(sweeper.Config{
		Projects:  projectRepo,
		Features:  featureRepo,
		Tasks:     taskRepo,
		Detector:  detector,
		Publisher: publisher,
		Logger:    logger,
	})

	cronExpr := os.Getenv("SWEEP_CRON")
	if cronExpr != "" {
		if err := sweeper.ValidateCronExpr(cronExpr); err != nil {
			logger.Error("invalid SWEEP_CRON", "expr", cronExpr, "error", err)
			os.Exit(1)
		}
	}

	// Цикл обхода по cron-расписанию
	if isLeader {
		go func() {
			if err := sw.Run(ctx, cronExpr); err != nil && ctx.Err() == nil {
				logger.Error("sweeper loop error", "error", err)
				cancel()
			}
		}()
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SWEEP_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("tracker-sweeper stopped")
}
