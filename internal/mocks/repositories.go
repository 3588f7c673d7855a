package mocks

import (
	"context"
	"time"

	"tutor-server/internal/dialogue"
	"tutor-server/internal/interfaces"
	"tutor-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// RoomRepository is a mock type for the interfaces.RoomRepository type
type RoomRepository struct {
	mock.Mock
}

func (_m *RoomRepository) Create(ctx context.Context, querier interfaces.DBTX, room *models.ChatRoom) error {
	ret := _m.Called(ctx, querier, room)
	return ret.Error(0)
}

func (_m *RoomRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id, userID uuid.UUID) (*models.ChatRoom, error) {
	ret := _m.Called(ctx, querier, id, userID)
	var r0 *models.ChatRoom
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ChatRoom)
	}
	return r0, ret.Error(1)
}

func (_m *RoomRepository) Get(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.ChatRoom, error) {
	ret := _m.Called(ctx, querier, id)
	var r0 *models.ChatRoom
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ChatRoom)
	}
	return r0, ret.Error(1)
}

func (_m *RoomRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) ([]*models.ChatRoom, error) {
	ret := _m.Called(ctx, querier, userID)
	var r0 []*models.ChatRoom
	if v := ret.Get(0); v != nil {
		r0 = v.([]*models.ChatRoom)
	}
	return r0, ret.Error(1)
}

func (_m *RoomRepository) Rename(ctx context.Context, querier interfaces.DBTX, id, userID uuid.UUID, name string) error {
	ret := _m.Called(ctx, querier, id, userID, name)
	return ret.Error(0)
}

func (_m *RoomRepository) SetName(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, name string) error {
	ret := _m.Called(ctx, querier, id, name)
	return ret.Error(0)
}

func (_m *RoomRepository) Delete(ctx context.Context, querier interfaces.DBTX, id, userID uuid.UUID) error {
	ret := _m.Called(ctx, querier, id, userID)
	return ret.Error(0)
}

func (_m *RoomRepository) UpdateState(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, expectedRevision int64, state []byte) (int64, error) {
	ret := _m.Called(ctx, querier, id, expectedRevision, state)
	var r0 int64
	if v := ret.Get(0); v != nil {
		r0 = v.(int64)
	}
	return r0, ret.Error(1)
}

// MessageRepository is a mock type for the interfaces.MessageRepository type
type MessageRepository struct {
	mock.Mock
}

func (_m *MessageRepository) Create(ctx context.Context, querier interfaces.DBTX, msg *models.Message) error {
	ret := _m.Called(ctx, querier, msg)
	return ret.Error(0)
}

func (_m *MessageRepository) ListByRoom(ctx context.Context, querier interfaces.DBTX, roomID uuid.UUID) ([]models.Message, error) {
	ret := _m.Called(ctx, querier, roomID)
	var r0 []models.Message
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Message)
	}
	return r0, ret.Error(1)
}

func (_m *MessageRepository) ListLast(ctx context.Context, querier interfaces.DBTX, roomID uuid.UUID, limit int) ([]models.Message, error) {
	ret := _m.Called(ctx, querier, roomID, limit)
	var r0 []models.Message
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Message)
	}
	return r0, ret.Error(1)
}

func (_m *MessageRepository) CountByRoom(ctx context.Context, querier interfaces.DBTX, roomID uuid.UUID) (int, error) {
	ret := _m.Called(ctx, querier, roomID)
	return ret.Int(0), ret.Error(1)
}

// HeadlineRepository is a mock type for the interfaces.HeadlineRepository type
type HeadlineRepository struct {
	mock.Mock
}

func (_m *HeadlineRepository) Get(ctx context.Context, querier interfaces.DBTX, language string) (*models.Headline, error) {
	ret := _m.Called(ctx, querier, language)
	var r0 *models.Headline
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Headline)
	}
	return r0, ret.Error(1)
}

func (_m *HeadlineRepository) List(ctx context.Context, querier interfaces.DBTX) ([]models.Headline, error) {
	ret := _m.Called(ctx, querier)
	var r0 []models.Headline
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Headline)
	}
	return r0, ret.Error(1)
}

// ExerciseRepository is a mock type for the interfaces.ExerciseRepository type
type ExerciseRepository struct {
	mock.Mock
}

func (_m *ExerciseRepository) ListAll(ctx context.Context, querier interfaces.DBTX) ([]dialogue.Exercise, error) {
	ret := _m.Called(ctx, querier)
	var r0 []dialogue.Exercise
	if v := ret.Get(0); v != nil {
		r0 = v.([]dialogue.Exercise)
	}
	return r0, ret.Error(1)
}

func (_m *ExerciseRepository) LastModified(ctx context.Context, querier interfaces.DBTX) (time.Time, int, error) {
	ret := _m.Called(ctx, querier)
	return ret.Get(0).(time.Time), ret.Int(1), ret.Error(2)
}

func (_m *ExerciseRepository) Upsert(ctx context.Context, querier interfaces.DBTX, ex dialogue.Exercise) error {
	ret := _m.Called(ctx, querier, ex)
	return ret.Error(0)
}

var (
	_ interfaces.RoomRepository     = (*RoomRepository)(nil)
	_ interfaces.MessageRepository  = (*MessageRepository)(nil)
	_ interfaces.HeadlineRepository = (*HeadlineRepository)(nil)
	_ interfaces.ExerciseRepository = (*ExerciseRepository)(nil)
)

// Transactor runs fn immediately with a nil querier.
type Transactor struct {
	Calls int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(tx interfaces.DBTX) error) error {
	t.Calls++
	return fn(nil)
}

var _ interfaces.Transactor = (*Transactor)(nil)
