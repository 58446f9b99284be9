package sweeper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/cascade"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/mq"
)

// ProjectRepo — порт чтения активных projects.
type ProjectRepo interface {
	ListActive(ctx context.Context, limit int) ([]domain.Project, error)
}

// FeatureRepo — порт чтения features.
type FeatureRepo interface {
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Feature, error)
}

// TaskRepo — порт чтения tasks.
type TaskRepo interface {
	ListByFeatureID(ctx context.Context, featureID uuid.UUID) ([]domain.Task, error)
}

// Sweeper периодически обходит активные projects и прогоняет детектор
// каскадов по всей их иерархии.
//
// Страховочный механизм поверх event-driven пути watcher'а: рекомендации,
// потерянные из-за сбоев MQ или длительного простоя, будут найдены
// ближайшим обходом. Детекция идемпотентна, повторная публикация
// той же рекомендации безопасна.
type Sweeper struct {
	projects  ProjectRepo
	features  FeatureRepo
	tasks     TaskRepo
	detector  *cascade.Detector
	publisher *mq.Publisher
	logger    *slog.Logger
	batchSize int
}

// Config — конфигурация Sweeper.
type Config struct {
	Projects  ProjectRepo
	Features  FeatureRepo
	Tasks     TaskRepo
	Detector  *cascade.Detector
	Publisher *mq.Publisher
	Logger    *slog.Logger
	BatchSize int // количество projects за один обход (default: 100)
}

// New создаёт новый Sweeper.
func New(cfg Config) *Sweeper {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		projects:  cfg.Projects,
		features:  cfg.Features,
		tasks:     cfg.Tasks,
		detector:  cfg.Detector,
		publisher: cfg.Publisher,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Tick выполняет один обход.
//
// 1. Находит активные projects (нетерминальный статус)
// 2. Для каждого project прогоняет детекцию по всей иерархии
// 3. Публикует обнаруженные рекомендации в tracker.cascade
//
// Ошибки одного project не блокируют обработку остальных.
func (s *Sweeper) Tick(ctx context.Context) error {
	projects, err := s.projects.ListActive(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("list active projects: %w", err)
	}

	if len(projects) == 0 {
		return nil
	}

	s.logger.Debug("found active projects", "count", len(projects))

	var swept, published int
	for i := range projects {
		project := &projects[i]

		n, err := s.sweepProject(ctx, project)
		if err != nil {
			s.logger.Error("failed to sweep project",
				"project_id", project.ID,
				"project_name", project.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		swept++
		published += n
	}

	s.logger.Info("sweep completed",
		"active", len(projects),
		"swept", swept,
		"events_published", published,
	)

	return nil
}

// sweepProject прогоняет детекцию по иерархии одного project.
//
// Детектор инспектирует родителя переданного контейнера, поэтому
// достаточно одного представителя на уровень: первая feature покрывает
// rollup project'а, первая task каждой feature — rollup этой feature.
// Возвращает число опубликованных рекомендаций.
func (s *Sweeper) sweepProject(ctx context.Context, project *domain.Project) (int, error) {
	features, err := s.features.ListByProjectID(ctx, project.ID)
	if err != nil {
		return 0, fmt.Errorf("list features: %w", err)
	}

	var published int

	if len(features) > 0 {
		n, err := s.detect(ctx, features[0].ID, domain.ContainerTypeFeature)
		if err != nil {
			return published, err
		}
		published += n
	}

	for i := range features {
		tasks, err := s.tasks.ListByFeatureID(ctx, features[i].ID)
		if err != nil {
			return published, fmt.Errorf("list tasks of feature %s: %w", features[i].ID, err)
		}
		if len(tasks) == 0 {
			continue
		}

		n, err := s.detect(ctx, tasks[0].ID, domain.ContainerTypeTask)
		if err != nil {
			return published, err
		}
		published += n
	}

	return published, nil
}

// detect прогоняет детектор и публикует найденные рекомендации.
// Возвращает число опубликованных событий.
func (s *Sweeper) detect(ctx context.Context, id uuid.UUID, containerType domain.ContainerType) (int, error) {
	events, err := s.detector.DetectCascadeEvents(ctx, id, containerType)
	if err != nil {
		return 0, fmt.Errorf("detect cascade for %s %s: %w", containerType, id, err)
	}

	var published int
	for _, ev := range events {
		if s.publisher == nil {
			// без MQ рекомендация видна только в логе
			s.logger.Info("cascade event detected",
				"event", ev.Event,
				"target_type", ev.TargetType,
				"target_id", ev.TargetID,
				"suggested_status", ev.SuggestedStatus,
			)
			continue
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

		if err := s.publisher.PublishCascadeDetected(ctx, payload); err != nil {
			// Не фатальная ошибка — следующий обход опубликует снова
			s.logger.Warn("failed to publish cascade event",
				"event", ev.Event,
				"target_id", ev.TargetID,
				"error", err,
			)
			continue
		}
		published++
	}

	return published, nil
}
