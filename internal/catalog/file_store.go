package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tutor-server/internal/dialogue"
	"tutor-server/internal/models"
)

// FileStore читает упражнения из JSON-файла (массив упражнений).
// Файл перечитывается, когда меняются время модификации или размер.
type FileStore struct {
	path   string
	logger *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cur   *Snapshot
}

var _ Store = (*FileStore)(nil)

// NewFileStore создает хранилище над файлом path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.Named("FileCatalog"),
	}
}

func (s *FileStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(s.path)
	if err != nil {
		s.logger.Error("Exercises file is not accessible", zap.String("path", s.path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrDataUnavailable, err)
	}
	version := strconv.FormatInt(info.ModTime().UnixNano(), 36) + "-" + strconv.FormatInt(info.Size(), 36)

	s.mu.RLock()
	cur := s.cur
	s.mu.RUnlock()
	if cur != nil && cur.Version == version {
		return cur, nil
	}

	v, err, _ := s.group.Do(version, func() (interface{}, error) {
		return s.load(version)
	})
	if err != nil {
		if cur != nil {
			s.logger.Warn("Failed to reload exercises, serving previous snapshot",
				zap.String("version", cur.Version),
				zap.Error(err),
			)
			return cur, nil
		}
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *FileStore) load(version string) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDataUnavailable, err)
	}
	var exercises []dialogue.Exercise
	if err := json.Unmarshal(data, &exercises); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", models.ErrDataUnavailable, s.path, err)
	}

	snap := newSnapshot(exercises, version)
	s.mu.Lock()
	s.cur = snap
	s.mu.Unlock()

	s.logger.Info("Exercises loaded",
		zap.String("path", s.path),
		zap.Int("count", len(snap.Exercises)),
		zap.Int("rejected", snap.Rejected),
	)
	return snap, nil
}
