package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Tracker/internal/domain"
)

// ProjectRepo — репозиторий для работы с projects.
type ProjectRepo struct {
	pool *pgxpool.Pool
}

// NewProjectRepo создаёт новый ProjectRepo.
func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

// Create создаёт новый project.
func (r *ProjectRepo) Create(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, status, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Status,
		project.Tags,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID возвращает project по ID.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `
		SELECT id, name, status, tags, created_at, updated_at
		FROM projects
		WHERE id = $1
	`
	return scanProject(r.pool.QueryRow(ctx, query, id))
}

// List возвращает все projects.
func (r *ProjectRepo) List(ctx context.Context, limit int) ([]domain.Project, error) {
	query := `
		SELECT id, name, status, tags, created_at, updated_at
		FROM projects
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// ListActive возвращает projects в нетерминальных статусах.
// Используется sweeper'ом для периодического обхода.
func (r *ProjectRepo) ListActive(ctx context.Context, limit int) ([]domain.Project, error) {
	query := `
		SELECT id, name, status, tags, created_at, updated_at
		FROM projects
		WHERE status NOT IN ($1, $2)
		ORDER BY created_at ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query,
		domain.StatusCompleted, domain.StatusCancelled, limit)
	if err != nil {
		return nil, fmt.Errorf("list active projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// UpdateStatus записывает новый статус project.
// Единственный путь записи поля status.
func (r *ProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func scanProject(row pgx.Row) (*domain.Project, error) {
	var project domain.Project

	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Status,
		&project.Tags,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}

	return &project, nil
}

func collectProjects(rows pgx.Rows) ([]domain.Project, error) {
	var projects []domain.Project
	for rows.Next() {
		var project domain.Project
		err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Status,
			&project.Tags,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}
