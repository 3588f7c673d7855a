package artifact_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tutor-server/internal/artifact"
	"tutor-server/internal/dialogue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSVGStore_Render(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "diagrams")
	store, err := artifact.NewSVGStore(dir, "/media/diagrams/", zap.NewNop())
	require.NoError(t, err)

	ex := dialogue.Exercise{ID: "ex-1", Diagram: " <svg><circle r=\"1\"/></svg> "}
	p, err := store.Render(context.Background(), ex)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(p))
	assert.True(t, strings.HasSuffix(p, ".svg"))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, `<svg><circle r="1"/></svg>`, string(data))

	url := store.PublicURL(p)
	assert.Equal(t, "/media/diagrams/"+filepath.Base(p), url)
}

func TestSVGStore_UniqueNames(t *testing.T) {
	store, err := artifact.NewSVGStore(t.TempDir(), "/media", zap.NewNop())
	require.NoError(t, err)

	ex := dialogue.Exercise{Diagram: "<svg/>"}
	a, err := store.Render(context.Background(), ex)
	require.NoError(t, err)
	b, err := store.Render(context.Background(), ex)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSVGStore_Errors(t *testing.T) {
	store, err := artifact.NewSVGStore(t.TempDir(), "/media", zap.NewNop())
	require.NoError(t, err)

	_, err = store.Render(context.Background(), dialogue.Exercise{})
	assert.ErrorIs(t, err, artifact.ErrEmptyDiagram)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Render(ctx, dialogue.Exercise{Diagram: "<svg/>"})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, store.PublicURL(""))

	_, err = artifact.NewSVGStore("", "/media", zap.NewNop())
	assert.Error(t, err)
}
