// Tracker Watcher — реагирует на изменения контейнеров и зависимостей.
//
// Watcher:
//   - Получает события об изменениях статусов и рёбер из RabbitMQ
//   - Запускает read-only детектор каскадных рекомендаций
//   - Публикует cascade.detected для потребителей
//   - При недоступном MQ добирает изменения polling-ом
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Tracker/internal/cascade"
	"github.com/shaiso/Tracker/internal/mq"
	"github.com/shaiso/Tracker/internal/repo"
	"github.com/shaiso/Tracker/internal/telemetry"
	"github.com/shaiso/Tracker/internal/watcher"
	"github.com/shaiso/Tracker/internal/workflow"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting tracker-watcher")

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

	// Создаём репозитории
	projectRepo := repo.NewProjectRepo(pool)
	featureRepo := repo.NewFeatureRepo(pool)
	taskRepo := repo.NewTaskRepo(pool)

	// Конфигурация workflow — нужна детектору для вычисления
	// предлагаемых статусов.
	wfConfig, err := workflow.Load(os.Getenv("WORKFLOW_CONFIG"))
	if err != nil {
		logger.Error("failed to load workflow config", "error", err)
		os.Exit(1)
	}
	resolver := workflow.NewResolver(wfConfig)
	detector := cascade.NewDetector(projectRepo, featureRepo, taskRepo, resolver)

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	pollInterval := 30 * time.Second
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			pollInterval = d
		} else {
			logger.Warn("invalid POLL_INTERVAL, using default", "value", v)
		}
	}

	// Создаём watcher
	w := watcher.New(watcher.Config{
		Detector:     detector,
		Tasks:        taskRepo,
		Features:     featureRepo,
		Publisher:    publisher,
		Conn:         mqConn,
		PollInterval: pollInterval,
		Logger:       logger,
	})

	// Запускаем watcher
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("WATCHER_PORT"); v != "" {
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

	// Останавливаем watcher
	w.Stop()
	logger.Info("tracker-watcher stopped")
}
