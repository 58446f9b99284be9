package watcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/cascade"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/mq"
)

// Default configuration values.
const (
	defaultPollInterval = 30 * time.Second
	defaultBatchSize    = 200
)

// TaskPoller — порт polling fallback'а по tasks.
type TaskPoller interface {
	ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]domain.Task, error)
}

// FeaturePoller — порт polling fallback'а по features.
type FeaturePoller interface {
	ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]domain.Feature, error)
}

// Watcher наблюдает за изменениями трекера и публикует каскадные
// рекомендации.
//
// Watcher:
//   - Получает события переходов и изменений графа из RabbitMQ (event-driven)
//   - Периодически проверяет недавно изменённые контейнеры (polling fallback)
//   - Прогоняет детектор каскадов по родителю изменившегося контейнера
//   - Публикует обнаруженные рекомендации в tracker.cascade
//
// Watcher никогда не применяет рекомендованные переходы сам.
type Watcher struct {
	// Detection
	detector *cascade.Detector

	// Polling fallback
	tasks    TaskPoller
	features FeaturePoller

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Consumers
	containerConsumer  *mq.Consumer
	dependencyConsumer *mq.Consumer

	// Configuration
	pollInterval time.Duration
	batchSize    int

	// lastPoll — верхняя граница предыдущего poll-окна.
	lastPoll   time.Time
	lastPollMu sync.Mutex

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Watcher.
type Config struct {
	// Detector — детектор каскадных рекомендаций.
	Detector *cascade.Detector

	// Pollers
	Tasks    TaskPoller
	Features FeaturePoller

	// MQ
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 30s)
	BatchSize    int           // количество контейнеров за один poll (default: 200)

	// Logger — логгер.
	Logger *slog.Logger
}

// New создаёт новый Watcher.
func New(cfg Config) *Watcher {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		detector:     cfg.Detector,
		tasks:        cfg.Tasks,
		features:     cfg.Features,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		lastPoll:     time.Now(),
		logger:       logger,
	}
}

// Start запускает Watcher.
//
// Запускает:
//   - Consumer для containers.changed
//   - Consumer для dependencies.changed
//   - Polling горутину для fallback
func (w *Watcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting watcher",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	// Без MQ работаем в polling-only режиме: consumers не запускаются,
	// все изменения добираются через ListUpdatedSince.
	if w.conn != nil {
		w.containerConsumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueContainersChanged),
			Handler:  w.handleContainerChanged,
			Prefetch: 10,
		})

		w.dependencyConsumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueDependenciesChanged),
			Handler:  w.handleDependencyChanged,
			Prefetch: 10,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.containerConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("container consumer error", "error", err)
			}
		}()

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.dependencyConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("dependency consumer error", "error", err)
			}
		}()
	} else {
		w.logger.Warn("no MQ connection, running in polling-only mode")
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("watcher started")
	return nil
}

// Stop останавливает Watcher.
func (w *Watcher) Stop() {
	w.logger.Info("stopping watcher...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.containerConsumer != nil {
		w.containerConsumer.Stop()
	}
	if w.dependencyConsumer != nil {
		w.dependencyConsumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("watcher stopped")
}

// pollLoop — цикл polling для fallback.
//
// Подхватывает изменения, события о которых были потеряны
// (рестарт RabbitMQ, изменения во время простоя watcher'а).
func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling: детекция по всем контейнерам,
// изменённым после предыдущего окна.
func (w *Watcher) poll(ctx context.Context) {
	w.lastPollMu.Lock()
	since := w.lastPoll
	w.lastPoll = time.Now()
	w.lastPollMu.Unlock()

	tasks, err := w.tasks.ListUpdatedSince(ctx, since, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list updated tasks", "error", err)
		return
	}

	features, err := w.features.ListUpdatedSince(ctx, since, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list updated features", "error", err)
		return
	}

	if len(tasks) == 0 && len(features) == 0 {
		return
	}

	w.logger.Debug("poll found updated containers",
		"tasks", len(tasks),
		"features", len(features),
	)

	// Детекция идемпотентна: повторный прогон по уже обработанному
	// контейнеру даёт те же рекомендации и ничего не ломает.
	for i := range tasks {
		w.detect(ctx, tasks[i].ID, domain.ContainerTypeTask)
	}
	for i := range features {
		w.detect(ctx, features[i].ID, domain.ContainerTypeFeature)
	}
}

// detect прогоняет детектор и публикует найденные рекомендации.
func (w *Watcher) detect(ctx context.Context, id uuid.UUID, containerType domain.ContainerType) {
	events, err := w.detector.DetectCascadeEvents(ctx, id, containerType)
	if err != nil {
		w.logger.Error("cascade detection failed",
			"container_type", containerType,
			"container_id", id,
			"error", err,
		)
		return
	}

	for _, ev := range events {
		w.publishEvent(ctx, ev)
	}
}

// publishEvent публикует одну каскадную рекомендацию.
func (w *Watcher) publishEvent(ctx context.Context, ev domain.CascadeEvent) {
	if w.publisher == nil {
		// polling-only режим: рекомендация видна только в логе
		w.logger.Info("cascade event detected",
			"event", ev.Event,
			"target_type", ev.TargetType,
			"target_id", ev.TargetID,
			"suggested_status", ev.SuggestedStatus,
		)
		return
	}

	payload := mq.CascadeDetectedPayload{
		Event:           string(ev.Event),
		TargetType:      string(ev.TargetType),
		TargetID:        ev.TargetID,
		TargetName:      ev.TargetName,
		CurrentStatus:   ev.CurrentStatus,
		SuggestedStatus: ev.SuggestedStatus,
		Flow:            ev.Flow,
		Automatic:       ev.Automatic,
		Reason:          ev.Reason,
	}

	if err := w.publisher.PublishCascadeDetected(ctx, payload); err != nil {
		w.logger.Error("failed to publish cascade event",
			"event", ev.Event,
			"target_id", ev.TargetID,
			"error", err,
		)
		return
	}

	w.logger.Info("cascade event published",
		"event", ev.Event,
		"target_type", ev.TargetType,
		"target_id", ev.TargetID,
		"current_status", ev.CurrentStatus,
		"suggested_status", ev.SuggestedStatus,
		"automatic", ev.Automatic,
	)
}
