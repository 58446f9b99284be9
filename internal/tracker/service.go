package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/cascade"
	"github.com/shaiso/Tracker/internal/depgraph"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/lockmgr"
	"github.com/shaiso/Tracker/internal/mq"
	"github.com/shaiso/Tracker/internal/workflow"
)

// ProjectRepo — порт персистентности projects.
type ProjectRepo interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, limit int) ([]domain.Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// FeatureRepo — порт персистентности features.
type FeatureRepo interface {
	Create(ctx context.Context, feature *domain.Feature) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Feature, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Feature, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CountByProjectID(ctx context.Context, projectID uuid.UUID) (int, error)
	CountNonTerminalByProjectID(ctx context.Context, projectID uuid.UUID) (int, error)
}

// TaskRepo — порт персистентности tasks.
type TaskRepo interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByFeatureID(ctx context.Context, featureID uuid.UUID) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher — порт публикации событий трекера.
// Реализация — mq.Publisher; в тестах подменяется фейком.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, payload mq.StatusChangedPayload) error
	PublishDependencyChanged(ctx context.Context, payload mq.DependencyChangedPayload) error
}

// Service — точка входа для всех операций трекера.
//
// Каждая мутирующая операция проходит одну и ту же последовательность:
//
//	lock scope → снимок состояния → валидация → запись → событие
//
// Блокировки берутся через lockmgr (одна сущность — WithLock, ребро —
// WithPair по обеим конечным tasks). Read-only операции (preview,
// детекция каскадов, запросы графа) блокировок не берут.
type Service struct {
	projects ProjectRepo
	features FeatureRepo
	tasks    TaskRepo

	graph     *depgraph.Store
	locks     *lockmgr.Manager
	resolver  *workflow.Resolver
	validator *workflow.Validator
	detector  *cascade.Detector

	publisher EventPublisher
	logger    *slog.Logger
}

// Config — конфигурация Service.
type Config struct {
	// Repositories
	Projects ProjectRepo
	Features FeatureRepo
	Tasks    TaskRepo

	// Engine
	Graph     *depgraph.Store
	Locks     *lockmgr.Manager
	Resolver  *workflow.Resolver
	Validator *workflow.Validator
	Detector  *cascade.Detector

	// Publisher — публикация событий. Может быть nil (режим без MQ),
	// тогда события не публикуются.
	Publisher EventPublisher

	// Logger — логгер.
	Logger *slog.Logger
}

// New создаёт новый Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		projects:  cfg.Projects,
		features:  cfg.Features,
		tasks:     cfg.Tasks,
		graph:     cfg.Graph,
		locks:     cfg.Locks,
		resolver:  cfg.Resolver,
		validator: cfg.Validator,
		detector:  cfg.Detector,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// Resolver возвращает resolver активной конфигурации flows.
func (s *Service) Resolver() *workflow.Resolver {
	return s.resolver
}

// DetectCascade возвращает каскадные рекомендации для родителя
// изменившегося контейнера. Строго read-only.
func (s *Service) DetectCascade(ctx context.Context, id uuid.UUID, containerType domain.ContainerType) ([]domain.CascadeEvent, error) {
	return s.detector.DetectCascadeEvents(ctx, id, containerType)
}

// GetContainer возвращает унифицированное представление контейнера
// любого уровня иерархии.
func (s *Service) GetContainer(ctx context.Context, t domain.ContainerType, id uuid.UUID) (domain.Container, error) {
	switch t {
	case domain.ContainerTypeProject:
		project, err := s.projects.GetByID(ctx, id)
		if err != nil {
			return domain.Container{}, fmt.Errorf("get project: %w", err)
		}
		return project.AsContainer(), nil

	case domain.ContainerTypeFeature:
		feature, err := s.features.GetByID(ctx, id)
		if err != nil {
			return domain.Container{}, fmt.Errorf("get feature: %w", err)
		}
		return feature.AsContainer(), nil

	case domain.ContainerTypeTask:
		task, err := s.tasks.GetByID(ctx, id)
		if err != nil {
			return domain.Container{}, fmt.Errorf("get task: %w", err)
		}
		return task.AsContainer(), nil

	default:
		return domain.Container{}, fmt.Errorf("%w: %q", ErrUnknownContainerType, t)
	}
}

// updateStatus записывает статус контейнера через репозиторий его типа.
func (s *Service) updateStatus(ctx context.Context, t domain.ContainerType, id uuid.UUID, status string) error {
	switch t {
	case domain.ContainerTypeProject:
		return s.projects.UpdateStatus(ctx, id, status)
	case domain.ContainerTypeFeature:
		return s.features.UpdateStatus(ctx, id, status)
	case domain.ContainerTypeTask:
		return s.tasks.UpdateStatus(ctx, id, status)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownContainerType, t)
	}
}
