package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Tracker/internal/domain"
)

// DependencyRepo — репозиторий для работы с рёбрами зависимостей.
//
// Инварианты графа (ацикличность BLOCKS, отсутствие дубликатов)
// обеспечивает internal/depgraph; репозиторий — только персистентность.
type DependencyRepo struct {
	pool *pgxpool.Pool
}

// NewDependencyRepo создаёт новый DependencyRepo.
func NewDependencyRepo(pool *pgxpool.Pool) *DependencyRepo {
	return &DependencyRepo{pool: pool}
}

// Create создаёт новое ребро зависимости.
func (r *DependencyRepo) Create(ctx context.Context, dep *domain.Dependency) error {
	query := `
		INSERT INTO dependencies (id, from_task_id, to_task_id, type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		dep.ID,
		dep.FromTaskID,
		dep.ToTaskID,
		dep.Type,
		dep.CreatedAt,
	)
	if err != nil {
		// Уникальный индекс (from_task_id, to_task_id, type) — вторая
		// линия защиты от дубликатов при гонке между инстансами API
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert dependency: %w", err)
	}
	return nil
}

// GetByID возвращает ребро по ID.
func (r *DependencyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dependency, error) {
	query := `
		SELECT id, from_task_id, to_task_id, type, created_at
		FROM dependencies
		WHERE id = $1
	`
	return scanDependency(r.pool.QueryRow(ctx, query, id))
}

// Delete удаляет ребро по ID.
func (r *DependencyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM dependencies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dependency: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByTaskID каскадно удаляет все рёбра task (в обе стороны).
// Возвращает число удалённых рёбер.
func (r *DependencyRepo) DeleteByTaskID(ctx context.Context, taskID uuid.UUID) (int, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM dependencies WHERE from_task_id = $1 OR to_task_id = $1
	`, taskID)
	if err != nil {
		return 0, fmt.Errorf("delete dependencies by task_id: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// ListByFromTaskID возвращает рёбра, исходящие из task.
func (r *DependencyRepo) ListByFromTaskID(ctx context.Context, taskID uuid.UUID) ([]domain.Dependency, error) {
	query := `
		SELECT id, from_task_id, to_task_id, type, created_at
		FROM dependencies
		WHERE from_task_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies by from_task_id: %w", err)
	}
	defer rows.Close()

	return collectDependencies(rows)
}

// ListByToTaskID возвращает рёбра, входящие в task.
func (r *DependencyRepo) ListByToTaskID(ctx context.Context, taskID uuid.UUID) ([]domain.Dependency, error) {
	query := `
		SELECT id, from_task_id, to_task_id, type, created_at
		FROM dependencies
		WHERE to_task_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies by to_task_id: %w", err)
	}
	defer rows.Close()

	return collectDependencies(rows)
}

// Exists проверяет существование ребра (from, to, type).
func (r *DependencyRepo) Exists(ctx context.Context, from, to uuid.UUID, depType domain.DependencyType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM dependencies
			WHERE from_task_id = $1 AND to_task_id = $2 AND type = $3
		)
	`, from, to, depType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check dependency exists: %w", err)
	}
	return exists, nil
}

// --- Helpers ---

func scanDependency(row pgx.Row) (*domain.Dependency, error) {
	var dep domain.Dependency

	err := row.Scan(
		&dep.ID,
		&dep.FromTaskID,
		&dep.ToTaskID,
		&dep.Type,
		&dep.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dependency: %w", err)
	}

	return &dep, nil
}

func collectDependencies(rows pgx.Rows) ([]domain.Dependency, error) {
	var deps []domain.Dependency
	for rows.Next() {
		var dep domain.Dependency
		err := rows.Scan(
			&dep.ID,
			&dep.FromTaskID,
			&dep.ToTaskID,
			&dep.Type,
			&dep.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}
