package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.uber.org/zap"

	"tutor-server/internal/interfaces"
	"tutor-server/internal/models"
)

const (
	getHeadlineQuery   = `SELECT language, welcome_message, input_placeholder FROM headlines WHERE language = $1`
	listHeadlinesQuery = `SELECT language, welcome_message, input_placeholder FROM headlines ORDER BY language`
)

type pgHeadlineRepository struct {
	logger *zap.Logger
}

var _ interfaces.HeadlineRepository = (*pgHeadlineRepository)(nil)

// NewPgHeadlineRepository создает репозиторий приветствий.
func NewPgHeadlineRepository(logger *zap.Logger) interfaces.HeadlineRepository {
	return &pgHeadlineRepository{logger: logger.Named("PgHeadlineRepo")}
}

func (r *pgHeadlineRepository) Get(ctx context.Context, querier interfaces.DBTX, language string) (*models.Headline, error) {
	var h models.Headline
	if err := pgxscan.Get(ctx, querier, &h, getHeadlineQuery, language); err != nil {
		if err = wrapNotFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get headline %s: %w", language, err)
	}
	return &h, nil
}

func (r *pgHeadlineRepository) List(ctx context.Context, querier interfaces.DBTX) ([]models.Headline, error) {
	headlines := make([]models.Headline, 0)
	if err := pgxscan.Select(ctx, querier, &headlines, listHeadlinesQuery); err != nil {
		r.logger.Error("Failed to list headlines", zap.Error(err))
		return nil, fmt.Errorf("failed to list headlines: %w", err)
	}
	return headlines, nil
}
