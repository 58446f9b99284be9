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

// TaskRepo — репозиторий для работы с tasks.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Create создаёт новый task.
func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, feature_id, name, status, summary, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.FeatureID,
		task.Name,
		task.Status,
		task.Summary,
		task.Tags,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID возвращает task по ID.
func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, feature_id, name, status, summary, tags, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

// ListByFeatureID возвращает все tasks feature.
func (r *TaskRepo) ListByFeatureID(ctx context.Context, featureID uuid.UUID) ([]domain.Task, error) {
	query := `
		SELECT id, feature_id, name, status, summary, tags, created_at, updated_at
		FROM tasks
		WHERE feature_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, featureID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by feature_id: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// Update обновляет изменяемые поля task (кроме status).
func (r *TaskRepo) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET name = $2, summary = $3, tags = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Name,
		task.Summary,
		task.Tags,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus записывает новый статус task.
// Единственный путь записи поля status; вызывается только из
// validate-then-transition последовательности service-слоя.
func (r *TaskRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет task.
func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountNonTerminalByFeatureID возвращает число незавершённых tasks feature.
func (r *TaskRepo) CountNonTerminalByFeatureID(ctx context.Context, featureID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE feature_id = $1 AND status NOT IN ($2, $3)
	`, featureID, domain.StatusCompleted, domain.StatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count non-terminal tasks: %w", err)
	}
	return count, nil
}

// ListUpdatedSince возвращает tasks, изменённые после since.
// Используется polling fallback'ом watcher'а.
func (r *TaskRepo) ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]domain.Task, error) {
	query := `
		SELECT id, feature_id, name, status, summary, tags, created_at, updated_at
		FROM tasks
		WHERE updated_at > $1
		ORDER BY updated_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list updated tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// --- Helpers ---

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task

	err := row.Scan(
		&task.ID,
		&task.FeatureID,
		&task.Name,
		&task.Status,
		&task.Summary,
		&task.Tags,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		err := rows.Scan(
			&task.ID,
			&task.FeatureID,
			&task.Name,
			&task.Status,
			&task.Summary,
			&task.Tags,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
