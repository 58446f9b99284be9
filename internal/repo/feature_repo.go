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

// FeatureRepo — репозиторий для работы с features.
type FeatureRepo struct {
	pool *pgxpool.Pool
}

// NewFeatureRepo создаёт новый FeatureRepo.
func NewFeatureRepo(pool *pgxpool.Pool) *FeatureRepo {
	return &FeatureRepo{pool: pool}
}

// Create создаёт новую feature.
func (r *FeatureRepo) Create(ctx context.Context, feature *domain.Feature) error {
	query := `
		INSERT INTO features (id, project_id, name, status, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		feature.ID,
		feature.ProjectID,
		feature.Name,
		feature.Status,
		feature.Tags,
		feature.CreatedAt,
		feature.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feature: %w", err)
	}
	return nil
}

// GetByID возвращает feature по ID.
func (r *FeatureRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Feature, error) {
	query := `
		SELECT id, project_id, name, status, tags, created_at, updated_at
		FROM features
		WHERE id = $1
	`
	return scanFeature(r.pool.QueryRow(ctx, query, id))
}

// ListByProjectID возвращает все features project.
func (r *FeatureRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Feature, error) {
	query := `
		SELECT id, project_id, name, status, tags, created_at, updated_at
		FROM features
		WHERE project_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list features by project_id: %w", err)
	}
	defer rows.Close()

	return collectFeatures(rows)
}

// UpdateStatus записывает новый статус feature.
// Единственный путь записи поля status.
func (r *FeatureRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE features SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update feature status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByProjectID возвращает число features project.
func (r *FeatureRepo) CountByProjectID(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM features WHERE project_id = $1
	`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return count, nil
}

// CountNonTerminalByProjectID возвращает число незавершённых features project.
func (r *FeatureRepo) CountNonTerminalByProjectID(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM features
		WHERE project_id = $1 AND status NOT IN ($2, $3)
	`, projectID, domain.StatusCompleted, domain.StatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count non-terminal features: %w", err)
	}
	return count, nil
}

// ListUpdatedSince возвращает features, изменённые после since.
func (r *FeatureRepo) ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]domain.Feature, error) {
	query := `
		SELECT id, project_id, name, status, tags, created_at, updated_at
		FROM features
		WHERE updated_at > $1
		ORDER BY updated_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list updated features: %w", err)
	}
	defer rows.Close()

	return collectFeatures(rows)
}

// --- Helpers ---

func scanFeature(row pgx.Row) (*domain.Feature, error) {
	var feature domain.Feature

	err := row.Scan(
		&feature.ID,
		&feature.ProjectID,
		&feature.Name,
		&feature.Status,
		&feature.Tags,
		&feature.CreatedAt,
		&feature.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan feature: %w", err)
	}

	return &feature, nil
}

func collectFeatures(rows pgx.Rows) ([]domain.Feature, error) {
	var features []domain.Feature
	for rows.Next() {
		var feature domain.Feature
		err := rows.Scan(
			&feature.ID,
			&feature.ProjectID,
			&feature.Name,
			&feature.Status,
			&feature.Tags,
			&feature.CreatedAt,
			&feature.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		features = append(features, feature)
	}
	return features, rows.Err()
}
