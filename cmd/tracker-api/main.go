// Tracker API — HTTP API для управления иерархией projects/features/tasks,
// графом зависимостей и переходами статусов.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Tracker/internal/api"
	"github.com/shaiso/Tracker/internal/cascade"
	"github.com/shaiso/Tracker/internal/depgraph"
	"github.com/shaiso/Tracker/internal/lockmgr"
	"github.com/shaiso/Tracker/internal/mq"
	"github.com/shaiso/Tracker/internal/repo"
	"github.com/shaiso/Tracker/internal/telemetry"
	"github.com/shaiso/Tracker/internal/tracker"
	"github.com/shaiso/Tracker/internal/workflow"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_api_http_requests_total",
		Help: "Total HTTP requests handled by tracker_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting tracker-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	projectRepo := repo.NewProjectRepo(pool)
	featureRepo := repo.NewFeatureRepo(pool)
	taskRepo := repo.NewTaskRepo(pool)
	depRepo := repo.NewDependencyRepo(pool)

	// Загружаем конфигурацию workflow. Пустой WORKFLOW_CONFIG означает
	// встроенную конфигурацию по умолчанию.
	wfConfig, err := workflow.Load(os.Getenv("WORKFLOW_CONFIG"))
	if err != nil {
		logger.Error("failed to load workflow config", "error", err)
		os.Exit(1)
	}
	resolver := workflow.NewResolver(wfConfig)
	validator := workflow.NewValidator(resolver)
	logger.Info("workflow config loaded", "flows", len(wfConfig.Flows))

	// Движок консистентности
	graph := depgraph.NewStore(depRepo)
	locks := lockmgr.New(lockmgr.Config{Logger: logger})
	detector := cascade.NewDetector(projectRepo, featureRepo, taskRepo, resolver)

	// RabbitMQ — опционален: без него API работает, но события
	// не публикуются (watcher добирает изменения через polling).
	var publisher *mq.Publisher
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, events will not be published", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Сервисный слой
	var eventPublisher tracker.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}
	service := tracker.New(tracker.Config{
		Projects:  projectRepo,
		Features:  featureRepo,
		Tasks:     taskRepo,
		Graph:     graph,
		Locks:     locks,
		Resolver:  resolver,
		Validator: validator,
		Detector:  detector,
		Publisher: eventPublisher,
		Logger:    logger,
	})

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Service: service,
		Logger:  logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
