package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tutor-server/internal/dialogue"
	"tutor-server/internal/interfaces"
)

const (
	listExercisesQuery  = `SELECT payload FROM exercises ORDER BY id`
	exercisesStatQuery  = `SELECT COALESCE(MAX(updated_at), 'epoch'::timestamptz), COUNT(*) FROM exercises`
	upsertExerciseQuery = `
        INSERT INTO exercises (id, grade, topic, payload, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (id) DO UPDATE SET
            grade = EXCLUDED.grade,
            topic = EXCLUDED.topic,
            payload = EXCLUDED.payload,
            updated_at = NOW()`
)

type pgExerciseRepository struct {
	logger *zap.Logger
}

var _ interfaces.ExerciseRepository = (*pgExerciseRepository)(nil)

// NewPgExerciseRepository создает репозиторий упражнений.
func NewPgExerciseRepository(logger *zap.Logger) interfaces.ExerciseRepository {
	return &pgExerciseRepository{logger: logger.Named("PgExerciseRepo")}
}

// ListAll читает все упражнения. Строки с битым payload пропускаются.
func (r *pgExerciseRepository) ListAll(ctx context.Context, querier interfaces.DBTX) ([]dialogue.Exercise, error) {
	rows, err := querier.Query(ctx, listExercisesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	exercises := make([]dialogue.Exercise, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		var ex dialogue.Exercise
		if err := json.Unmarshal(payload, &ex); err != nil {
			r.logger.Warn("Skipping exercise with malformed payload", zap.Error(err))
			continue
		}
		exercises = append(exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exercises: %w", err)
	}
	return exercises, nil
}

func (r *pgExerciseRepository) LastModified(ctx context.Context, querier interfaces.DBTX) (time.Time, int, error) {
	var (
		updatedAt time.Time
		count     int
	)
	if err := querier.QueryRow(ctx, exercisesStatQuery).Scan(&updatedAt, &count); err != nil {
		return time.Time{}, 0, fmt.Errorf("failed to stat exercises: %w", err)
	}
	return updatedAt, count, nil
}

func (r *pgExerciseRepository) Upsert(ctx context.Context, querier interfaces.DBTX, ex dialogue.Exercise) error {
	if err := ex.Validate(); err != nil {
		return err
	}
	if ex.ID == "" {
		ex.ID = dialogue.DeriveID(ex)
	}
	payload, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("failed to marshal exercise %s: %w", ex.ID, err)
	}
	if _, err := querier.Exec(ctx, upsertExerciseQuery, ex.ID, ex.Grade, ex.Topic, payload); err != nil {
		return fmt.Errorf("failed to upsert exercise %s: %w", ex.ID, err)
	}
	return nil
}
