package catalog

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tutor-server/internal/dialogue"
	"tutor-server/internal/interfaces"
	"tutor-server/internal/models"
)

// refreshTimeout ограничивает одну загрузку каталога. Загрузка не зависит
// от отмены запроса, который ее начал: результат ждут и другие запросы.
const refreshTimeout = 10 * time.Second

// PgStore отдает упражнения из таблицы exercises.
// Изменения проверяются не чаще refreshInterval.
type PgStore struct {
	db              interfaces.DBTX
	repo            interfaces.ExerciseRepository
	refreshInterval time.Duration
	logger          *zap.Logger
	now             func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	cur       *Snapshot
	checkedAt time.Time
}

var _ Store = (*PgStore)(nil)

// NewPgStore создает хранилище над репозиторием упражнений.
func NewPgStore(db interfaces.DBTX, repo interfaces.ExerciseRepository, refreshInterval time.Duration, logger *zap.Logger) *PgStore {
	return &PgStore{
		db:              db,
		repo:            repo,
		refreshInterval: refreshInterval,
		logger:          logger.Named("PgCatalog"),
		now:             time.Now,
	}
}

func (s *PgStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	cur, checkedAt := s.cur, s.checkedAt
	s.mu.RUnlock()
	if cur != nil && s.now().Sub(checkedAt) < s.refreshInterval {
		return cur, nil
	}

	v, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.refresh(refreshCtx)
	})
	if err != nil {
		if cur != nil {
			s.logger.Warn("Failed to refresh exercises, serving previous snapshot", zap.Error(err))
			return cur, nil
		}
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *PgStore) refresh(ctx context.Context) (*Snapshot, error) {
	modified, count, err := s.repo.LastModified(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDataUnavailable, err)
	}
	version := strconv.FormatInt(modified.UnixNano(), 36) + "-" + strconv.Itoa(count)

	s.mu.RLock()
	cur := s.cur
	s.mu.RUnlock()
	if cur != nil && cur.Version == version {
		s.mu.Lock()
		s.checkedAt = s.now()
		s.mu.Unlock()
		return cur, nil
	}

	// Пустая таблица - корректный пустой каталог, а не недоступные данные.
	var exercises []dialogue.Exercise
	if count > 0 {
		exercises, err = s.repo.ListAll(ctx, s.db)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrDataUnavailable, err)
		}
	}
	snap := newSnapshot(exercises, version)

	s.mu.Lock()
	s.cur = snap
	s.checkedAt = s.now()
	s.mu.Unlock()

	s.logger.Info("Exercises loaded from database",
		zap.Int("count", len(snap.Exercises)),
		zap.Int("rejected", snap.Rejected),
		zap.String("version", version),
	)
	return snap, nil
}
