package service_test

import (
	"testing"
	"time"

	"tutor-server/internal/dialogue"
	"tutor-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineCache_ValidatesRevisionAndVersion(t *testing.T) {
	c := service.NewEngineCache(4, 0)
	user, room := uuid.New(), uuid.New()
	engine := dialogue.NewEngine(nil, dialogue.InitialState("en"), dialogue.Deps{})

	c.Put(user, room, engine, 3, "v1")

	got, ok := c.Get(user, room, 3, "v1")
	require.True(t, ok)
	assert.Same(t, engine, got)

	_, ok = c.Get(uuid.New(), room, 3, "v1")
	assert.False(t, ok, "another user must not see the engine")

	_, ok = c.Get(user, room, 3, "v2")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "stale entry is dropped")

	c.Put(user, room, engine, 3, "v1")
	_, ok = c.Get(user, room, 4, "v1")
	assert.False(t, ok)
}

func TestEngineCache_BoundedAndExpiring(t *testing.T) {
	c := service.NewEngineCache(2, 50*time.Millisecond)
	user := uuid.New()
	engine := dialogue.NewEngine(nil, dialogue.InitialState("en"), dialogue.Deps{})

	for i := 0; i < 3; i++ {
		c.Put(user, uuid.New(), engine, 1, "v")
	}
	assert.Equal(t, 2, c.Len())

	room := uuid.New()
	c.Put(user, room, engine, 1, "v")
	time.Sleep(120 * time.Millisecond)
	_, ok := c.Get(user, room, 1, "v")
	assert.False(t, ok)
}
