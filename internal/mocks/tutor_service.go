package mocks

import (
	"context"

	"tutor-server/internal/models"
	"tutor-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// TutorService is a mock type for the service.TutorService type
type TutorService struct {
	mock.Mock
}

func (_m *TutorService) CreateRoom(ctx context.Context, userID uuid.UUID, name, lang string) (*models.ChatRoom, error) {
	ret := _m.Called(ctx, userID, name, lang)
	var r0 *models.ChatRoom
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ChatRoom)
	}
	return r0, ret.Error(1)
}

func (_m *TutorService) ListRooms(ctx context.Context, userID uuid.UUID) ([]*models.ChatRoom, error) {
	ret := _m.Called(ctx, userID)
	var r0 []*models.ChatRoom
	if v := ret.Get(0); v != nil {
		r0 = v.([]*models.ChatRoom)
	}
	return r0, ret.Error(1)
}

func (_m *TutorService) GetRoom(ctx context.Context, userID, roomID uuid.UUID) (*models.RoomWithMessages, error) {
	ret := _m.Called(ctx, userID, roomID)
	var r0 *models.RoomWithMessages
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.RoomWithMessages)
	}
	return r0, ret.Error(1)
}

func (_m *TutorService) RenameRoom(ctx context.Context, userID, roomID uuid.UUID, name string) error {
	ret := _m.Called(ctx, userID, roomID, name)
	return ret.Error(0)
}

func (_m *TutorService) DeleteRoom(ctx context.Context, userID, roomID uuid.UUID) error {
	ret := _m.Called(ctx, userID, roomID)
	return ret.Error(0)
}

func (_m *TutorService) ListMessages(ctx context.Context, userID, roomID uuid.UUID) ([]models.Message, error) {
	ret := _m.Called(ctx, userID, roomID)
	var r0 []models.Message
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Message)
	}
	return r0, ret.Error(1)
}

func (_m *TutorService) PostMessage(ctx context.Context, userID, roomID uuid.UUID, input service.PostMessageInput) (*models.Message, error) {
	ret := _m.Called(ctx, userID, roomID, input)
	var r0 *models.Message
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Message)
	}
	return r0, ret.Error(1)
}

func (_m *TutorService) GetHeadlines(ctx context.Context, lang string) ([]models.Headline, error) {
	ret := _m.Called(ctx, lang)
	var r0 []models.Headline
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Headline)
	}
	return r0, ret.Error(1)
}

var _ service.TutorService = (*TutorService)(nil)
