package service

import (
	"time"

	"tutor-server/internal/dialogue"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type engineKey struct {
	UserID uuid.UUID
	RoomID uuid.UUID
}

type cachedEngine struct {
	engine          *dialogue.Engine
	revision        int64
	snapshotVersion string
}

// EngineCache хранит движки разговоров между запросами.
// Доступ к движку одной комнаты сериализуется блокировкой комнаты.
type EngineCache struct {
	lru *expirable.LRU[engineKey, *cachedEngine]
}

// NewEngineCache создает кэш на size записей с временем жизни ttl.
func NewEngineCache(size int, ttl time.Duration) *EngineCache {
	if size <= 0 {
		size = 1024
	}
	return &EngineCache{lru: expirable.NewLRU[engineKey, *cachedEngine](size, nil, ttl)}
}

// Get возвращает движок, только если он соответствует сохраненной ревизии
// состояния и текущей версии каталога. Устаревшая запись удаляется.
func (c *EngineCache) Get(userID, roomID uuid.UUID, revision int64, snapshotVersion string) (*dialogue.Engine, bool) {
	key := engineKey{UserID: userID, RoomID: roomID}
	entry, ok := c.lru.Get(key)
	if !ok {
		engineCacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if entry.revision != revision || entry.snapshotVersion != snapshotVersion {
		c.lru.Remove(key)
		engineCacheRequestsTotal.WithLabelValues("stale").Inc()
		return nil, false
	}
	engineCacheRequestsTotal.WithLabelValues("hit").Inc()
	return entry.engine, true
}

func (c *EngineCache) Put(userID, roomID uuid.UUID, engine *dialogue.Engine, revision int64, snapshotVersion string) {
	c.lru.Add(engineKey{UserID: userID, RoomID: roomID}, &cachedEngine{
		engine:          engine,
		revision:        revision,
		snapshotVersion: snapshotVersion,
	})
}

func (c *EngineCache) Evict(userID, roomID uuid.UUID) {
	c.lru.Remove(engineKey{UserID: userID, RoomID: roomID})
}

func (c *EngineCache) Len() int {
	return c.lru.Len()
}
