package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tutor-server/internal/catalog"
	"tutor-server/internal/dialogue"
	"tutor-server/internal/mocks"
	"tutor-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const exercisesJSON = `[
  {"id": "e1", "grade": "8", "topic": "algebra", "text": {"question": ["$2x=10$"], "solution": ["x=5"]}, "hints": ["divide by 2"]},
  {"text": {"question": ["1+1"], "solution": ["2"]}, "hints": []},
  {"id": "bad", "text": {"question": ["q1", "q2"], "solution": ["s1"]}, "hints": []}
]`

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestFileStoreLoadsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exercises.json")
	base := time.Now().Add(-time.Hour)
	writeFile(t, path, exercisesJSON, base)
	store := catalog.NewFileStore(path, zap.NewNop())
	ctx := context.Background()

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Exercises, 2)
	assert.Equal(t, 1, snap.Rejected)
	assert.Equal(t, "e1", snap.Exercises[0].ID)
	assert.NotEmpty(t, snap.Exercises[1].ID, "missing id is derived")

	again, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, snap, again)

	writeFile(t, path, `[{"id":"only","text":{"question":["q"],"solution":["s"]},"hints":[]}]`, base.Add(time.Minute))
	reloaded, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, snap.Version, reloaded.Version)
	require.Len(t, reloaded.Exercises, 1)
	assert.Equal(t, "only", reloaded.Exercises[0].ID)
}

func TestFileStoreCorruptedFileKeepsPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exercises.json")
	base := time.Now().Add(-time.Hour)
	writeFile(t, path, exercisesJSON, base)
	store := catalog.NewFileStore(path, zap.NewNop())

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	writeFile(t, path, `{not json`, base.Add(time.Minute))
	got, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, got)
}

func TestFileStoreUnavailable(t *testing.T) {
	dir := t.TempDir()

	_, err := catalog.NewFileStore(filepath.Join(dir, "missing.json"), zap.NewNop()).Snapshot(context.Background())
	assert.ErrorIs(t, err, models.ErrDataUnavailable)

	corrupted := filepath.Join(dir, "corrupted.json")
	writeFile(t, corrupted, `{"exercises": 1}`, time.Now())
	_, err = catalog.NewFileStore(corrupted, zap.NewNop()).Snapshot(context.Background())
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestPgStoreRefresh(t *testing.T) {
	ctx := context.Background()
	modified := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	pool := []dialogue.Exercise{{ID: "e1", Questions: []string{"q"}, Solutions: []string{"s"}}}

	repo := new(mocks.ExerciseRepository)
	repo.On("LastModified", mock.Anything, mock.Anything).Return(modified, 1, nil)
	repo.On("ListAll", mock.Anything, mock.Anything).Return(pool, nil).Once()

	store := catalog.NewPgStore(nil, repo, 0, zap.NewNop())

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Exercises, 1)

	// Версия не изменилась: ListAll повторно не вызывается.
	again, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, snap, again)
	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "LastModified", 2)
}

func TestPgStoreRefreshIntervalSkipsDatabase(t *testing.T) {
	repo := new(mocks.ExerciseRepository)
	repo.On("LastModified", mock.Anything, mock.Anything).Return(time.Now(), 1, nil).Once()
	repo.On("ListAll", mock.Anything, mock.Anything).
		Return([]dialogue.Exercise{{ID: "e1", Questions: []string{"q"}, Solutions: []string{"s"}}}, nil).Once()

	store := catalog.NewPgStore(nil, repo, time.Hour, zap.NewNop())
	for i := 0; i < 3; i++ {
		_, err := store.Snapshot(context.Background())
		require.NoError(t, err)
	}
	repo.AssertExpectations(t)
}

func TestPgStoreEmptyTableIsEmptyCatalog(t *testing.T) {
	modified := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := new(mocks.ExerciseRepository)
	repo.On("LastModified", mock.Anything, mock.Anything).Return(modified, 1, nil).Once()
	repo.On("ListAll", mock.Anything, mock.Anything).
		Return([]dialogue.Exercise{{ID: "e1", Questions: []string{"q"}, Solutions: []string{"s"}}}, nil).Once()
	repo.On("LastModified", mock.Anything, mock.Anything).Return(time.Time{}, 0, nil)

	store := catalog.NewPgStore(nil, repo, 0, zap.NewNop())

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Exercises, 1)

	// Таблицу очистили: каталог становится пустым, старый снимок не отдается.
	snap, err = store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Exercises)
	repo.AssertNumberOfCalls(t, "ListAll", 1)

	// Пустой каталог с самого начала тоже не ошибка.
	empty := new(mocks.ExerciseRepository)
	empty.On("LastModified", mock.Anything, mock.Anything).Return(time.Time{}, 0, nil)
	snap, err = catalog.NewPgStore(nil, empty, 0, zap.NewNop()).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Exercises)
	empty.AssertNotCalled(t, "ListAll", mock.Anything, mock.Anything)
}

func TestPgStoreRefreshIgnoresCallerCancellation(t *testing.T) {
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	repo := new(mocks.ExerciseRepository)
	repo.On("LastModified", live, mock.Anything).Return(time.Now(), 1, nil).Once()
	repo.On("ListAll", live, mock.Anything).
		Return([]dialogue.Exercise{{ID: "e1", Questions: []string{"q"}, Solutions: []string{"s"}}}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := catalog.NewPgStore(nil, repo, time.Hour, zap.NewNop()).Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Exercises, 1)
	repo.AssertExpectations(t)
}

func TestPgStoreUnavailable(t *testing.T) {
	t.Run("database error", func(t *testing.T) {
		repo := new(mocks.ExerciseRepository)
		repo.On("LastModified", mock.Anything, mock.Anything).Return(time.Time{}, 0, errors.New("connection reset"))

		_, err := catalog.NewPgStore(nil, repo, 0, zap.NewNop()).Snapshot(context.Background())
		assert.ErrorIs(t, err, models.ErrDataUnavailable)
	})

	t.Run("list error", func(t *testing.T) {
		repo := new(mocks.ExerciseRepository)
		repo.On("LastModified", mock.Anything, mock.Anything).Return(time.Now(), 2, nil)
		repo.On("ListAll", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := catalog.NewPgStore(nil, repo, 0, zap.NewNop()).Snapshot(context.Background())
		assert.ErrorIs(t, err, models.ErrDataUnavailable)
	})
}
