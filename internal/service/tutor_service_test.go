package service_test

import (
	"context"
	"errors"
	"testing"

	"tutor-server/internal/catalog"
	"tutor-server/internal/dialogue"
	"tutor-server/internal/mocks"
	"tutor-server/internal/models"
	"tutor-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	rooms     *mocks.RoomRepository
	messages  *mocks.MessageRepository
	headlines *mocks.HeadlineRepository
	catalog   *mocks.CatalogStore
	ai        *mocks.Answerer
	artifacts *mocks.ArtifactStore
	titles    *mocks.TitleTaskPublisher
	tx        *mocks.Transactor
	cache     *service.EngineCache
	svc       service.TutorService

	userID uuid.UUID
	roomID uuid.UUID
}

func newFixture(t *testing.T, exercises ...dialogue.Exercise) *fixture {
	t.Helper()
	f := &fixture{
		rooms:     new(mocks.RoomRepository),
		messages:  new(mocks.MessageRepository),
		headlines: new(mocks.HeadlineRepository),
		catalog:   new(mocks.CatalogStore),
		ai:        new(mocks.Answerer),
		artifacts: new(mocks.ArtifactStore),
		titles:    new(mocks.TitleTaskPublisher),
		tx:        &mocks.Transactor{},
		cache:     service.NewEngineCache(16, 0),
		userID:    uuid.New(),
		roomID:    uuid.New(),
	}
	f.catalog.On("Snapshot", mock.Anything).Return(&catalog.Snapshot{Exercises: exercises, Version: "v1"}, nil).Maybe()
	f.svc = service.NewTutorService(service.TutorDeps{
		Tx:        f.tx,
		Rooms:     f.rooms,
		Messages:  f.messages,
		Headlines: f.headlines,
		Catalog:   f.catalog,
		Cache:     f.cache,
		AI:        f.ai,
		Artifacts: f.artifacts,
		Titles:    f.titles,
		Engine:    service.EngineOptions{RNGSeed: 7},
		Logger:    zap.NewNop(),
	})
	return f
}

func (f *fixture) room(revision int64, state dialogue.State) *models.ChatRoom {
	raw, err := state.Marshal()
	if err != nil {
		panic(err)
	}
	return &models.ChatRoom{ID: f.roomID, UserID: f.userID, FSMState: raw, StateRevision: revision}
}

// expectPersist настраивает успешное сохранение и возвращает указатель на сохраненное состояние.
func (f *fixture) expectPersist(fromRevision, toRevision int64, messageCount int) *dialogue.State {
	saved := &dialogue.State{}
	f.messages.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.Message")).Return(nil).Twice()
	f.rooms.On("UpdateState", mock.Anything, mock.Anything, f.roomID, fromRevision, mock.MatchedBy(func(raw []byte) bool {
		s, err := dialogue.UnmarshalState(raw)
		*saved = s
		return err == nil
	})).Return(toRevision, nil).Once()
	f.messages.On("CountByRoom", mock.Anything, mock.Anything, f.roomID).Return(messageCount, nil).Once()
	return saved
}

func algebra(id, question, solution string) dialogue.Exercise {
	return dialogue.Exercise{ID: id, Grade: "8", Topic: "algebra", Questions: []string{question}, Solutions: []string{solution}}
}

func TestPostMessage_NewRoomStartsConversation(t *testing.T) {
	f := newFixture(t)
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(1, dialogue.InitialState("en")), nil).Once()
	saved := f.expectPersist(1, 2, 2)

	msg, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: " hello "})

	require.NoError(t, err)
	assert.Equal(t, models.SenderBot, msg.Sender)
	assert.NotEmpty(t, msg.Text)
	assert.Equal(t, dialogue.StageSmallTalk, saved.Stage)
	assert.Equal(t, 1, f.tx.Calls)
	assert.Equal(t, 1, f.cache.Len())

	created := f.messages.Calls[0].Arguments.Get(2).(*models.Message)
	assert.Equal(t, models.SenderUser, created.Sender)
	assert.Equal(t, "hello", created.Text)
	require.NotNil(t, created.UserID)
	assert.Equal(t, f.userID, *created.UserID)
	f.rooms.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestPostMessage_ReusesCachedEngineWhileRevisionMatches(t *testing.T) {
	f := newFixture(t)
	initial := f.room(1, dialogue.InitialState("en"))
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(initial, nil).Once()
	f.expectPersist(1, 2, 2)
	_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "hi"})
	require.NoError(t, err)

	// В БД ревизия 2, но сохраненное состояние нарочно старое: движок должен прийти из кэша.
	stale := f.room(2, dialogue.InitialState("en"))
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(stale, nil).Once()
	saved := f.expectPersist(2, 3, 4)

	_, err = f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "fine"})

	require.NoError(t, err)
	assert.Equal(t, dialogue.StagePersonalFollowup, saved.Stage)
}

func TestPostMessage_RebuildsWhenRevisionChanged(t *testing.T) {
	f := newFixture(t)
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(1, dialogue.InitialState("en")), nil).Once()
	f.expectPersist(1, 2, 2)
	_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "hi"})
	require.NoError(t, err)

	askGrade := dialogue.InitialState("en")
	askGrade.Stage = dialogue.StageAskGrade
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(5, askGrade), nil).Once()
	saved := f.expectPersist(5, 6, 4)

	_, err = f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "8"})

	require.NoError(t, err)
	assert.Equal(t, dialogue.StageExerciseSelection, saved.Stage)
	assert.Equal(t, "8", saved.Grade)
}

func TestPostMessage_DataUnavailable(t *testing.T) {
	f := newFixture(t)
	f.catalog.ExpectedCalls = nil
	f.catalog.On("Snapshot", mock.Anything).Return(nil, models.ErrDataUnavailable)
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(1, dialogue.InitialState("en")), nil)

	_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "hi"})

	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.tx.Calls)
}

func TestPostMessage_ConflictEvictsCache(t *testing.T) {
	f := newFixture(t)
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(1, dialogue.InitialState("en")), nil).Once()
	f.expectPersist(1, 2, 2)
	_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.Len())

	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(2, dialogue.InitialState("en")), nil).Once()
	f.messages.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()
	f.rooms.On("UpdateState", mock.Anything, mock.Anything, f.roomID, int64(2), mock.Anything).Return(int64(0), models.ErrConflict).Once()

	_, err = f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "again"})

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, 0, f.cache.Len())
}

func TestPostMessage_CancelledDuringAIPersistsNothing(t *testing.T) {
	ex := algebra("e1", "2x=10", "x=5")
	f := newFixture(t, ex)
	state := dialogue.InitialState("en")
	state.Stage = dialogue.StageQuestionAnswer
	state.Grade, state.Topic = "8", "algebra"
	state.CurrentExercise = &ex
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(3, state), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.ai.On("Answer", mock.Anything, "x=4").Run(func(mock.Arguments) { cancel() }).Return("", context.Canceled)

	_, err := f.svc.PostMessage(ctx, f.userID, f.roomID, service.PostMessageInput{Text: "x=4"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.tx.Calls)
	assert.Equal(t, 0, f.cache.Len())
}

func TestPostMessage_AttachesDiagram(t *testing.T) {
	ex := algebra("e1", "area?", "12")
	ex.Diagram = "<svg/>"
	f := newFixture(t, ex)
	state := dialogue.InitialState("en")
	state.Stage = dialogue.StageExerciseSelection
	state.Grade = "8"
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(1, state), nil)
	f.artifacts.On("Render", mock.Anything, mock.Anything).Return("/data/diagrams/abc.svg", nil).Once()
	f.artifacts.On("PublicURL", "/data/diagrams/abc.svg").Return("/media/diagrams/abc.svg").Once()
	saved := f.expectPersist(1, 2, 4)

	msg, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "algebra"})

	require.NoError(t, err)
	require.Len(t, msg.URLs, 1)
	assert.Equal(t, "/media/diagrams/abc.svg", msg.URLs[0].FileURL)
	assert.Equal(t, models.URLTypeImage, msg.URLs[0].Type)
	assert.Equal(t, dialogue.StageQuestionAnswer, saved.Stage)
	assert.Equal(t, []string{"e1"}, saved.RecentlyAskedIDs)
}

func TestPostMessage_LanguageSwitch(t *testing.T) {
	f := newFixture(t)
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(1, dialogue.InitialState("en")), nil)
	saved := f.expectPersist(1, 2, 2)

	_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "שלום", Language: "he"})

	require.NoError(t, err)
	assert.Equal(t, dialogue.LanguageHebrew, saved.Language)
}

func TestPostMessage_InvalidStoredStateStartsOver(t *testing.T) {
	f := newFixture(t)
	room := &models.ChatRoom{ID: f.roomID, UserID: f.userID, FSMState: []byte(`{"state":"BOGUS"}`), StateRevision: 1}
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(room, nil)
	saved := f.expectPersist(1, 2, 2)

	_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, dialogue.StageSmallTalk, saved.Stage)
}

func TestPostMessage_EmptyText(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "   "})

	assert.ErrorIs(t, err, models.ErrInvalidInput)
	f.rooms.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessage_RoomNotFound(t *testing.T) {
	f := newFixture(t)
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(nil, models.ErrNotFound)

	_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "hi"})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostMessage_SchedulesTitle(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		named    bool
		expected bool
	}{
		{"below window", 10, false, false},
		{"inside window", 12, false, true},
		{"upper bound excluded", 14, false, false},
		{"already named", 12, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			room := f.room(1, dialogue.InitialState("he"))
			if tt.named {
				name := "Fractions"
				room.Name = &name
			}
			f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(room, nil)
			f.messages.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			f.rooms.On("UpdateState", mock.Anything, mock.Anything, f.roomID, int64(1), mock.Anything).Return(int64(2), nil)
			f.messages.On("CountByRoom", mock.Anything, mock.Anything, f.roomID).Return(tt.count, nil).Maybe()
			f.titles.On("PublishTitleTask", mock.Anything, mock.MatchedBy(func(p models.TitleTaskPayload) bool {
				return p.RoomID == f.roomID && p.Language == "he" && p.TaskID != ""
			})).Return(nil).Maybe()

			_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "hi"})

			require.NoError(t, err)
			if tt.expected {
				f.titles.AssertNumberOfCalls(t, "PublishTitleTask", 1)
			} else {
				f.titles.AssertNotCalled(t, "PublishTitleTask", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestPostMessage_TitlePublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(1, dialogue.InitialState("en")), nil)
	f.expectPersist(1, 2, 11)
	f.titles.On("PublishTitleTask", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	msg, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "hi"})

	require.NoError(t, err)
	assert.NotNil(t, msg)
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t)
	f.rooms.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(r *models.ChatRoom) bool {
		s, err := dialogue.UnmarshalState(r.FSMState)
		return err == nil && r.UserID == f.userID && r.Name == nil && s.Language == "he" && s.Stage == dialogue.StageStart
	})).Return(nil).Once()

	room, err := f.svc.CreateRoom(context.Background(), f.userID, "  ", "he")

	require.NoError(t, err)
	assert.Nil(t, room.Name)
	f.rooms.AssertExpectations(t)
}

func TestRenameRoom(t *testing.T) {
	f := newFixture(t)
	f.rooms.On("Rename", mock.Anything, mock.Anything, f.roomID, f.userID, "Geometry").Return(nil).Once()

	require.NoError(t, f.svc.RenameRoom(context.Background(), f.userID, f.roomID, " Geometry "))
	assert.ErrorIs(t, f.svc.RenameRoom(context.Background(), f.userID, f.roomID, ""), models.ErrInvalidInput)
	f.rooms.AssertExpectations(t)
}

func TestDeleteRoomEvictsEngine(t *testing.T) {
	f := newFixture(t)
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(f.room(1, dialogue.InitialState("en")), nil)
	f.expectPersist(1, 2, 2)
	_, err := f.svc.PostMessage(context.Background(), f.userID, f.roomID, service.PostMessageInput{Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.Len())

	f.rooms.On("Delete", mock.Anything, mock.Anything, f.roomID, f.userID).Return(nil).Once()
	require.NoError(t, f.svc.DeleteRoom(context.Background(), f.userID, f.roomID))
	assert.Equal(t, 0, f.cache.Len())
}

func TestGetRoomAndMessages(t *testing.T) {
	f := newFixture(t)
	room := f.room(1, dialogue.InitialState("en"))
	history := []models.Message{{ID: 1, RoomID: f.roomID, Sender: models.SenderUser, Text: "hi"}}
	f.rooms.On("GetByID", mock.Anything, mock.Anything, f.roomID, f.userID).Return(room, nil)
	f.messages.On("ListByRoom", mock.Anything, mock.Anything, f.roomID).Return(history, nil)

	got, err := f.svc.GetRoom(context.Background(), f.userID, f.roomID)
	require.NoError(t, err)
	assert.Equal(t, f.roomID, got.ID)
	assert.Equal(t, history, got.Messages)

	msgs, err := f.svc.ListMessages(context.Background(), f.userID, f.roomID)
	require.NoError(t, err)
	assert.Equal(t, history, msgs)
}

func TestGetHeadlines(t *testing.T) {
	f := newFixture(t)
	en := models.Headline{Language: "en", WelcomeMessage: "Welcome", InputPlaceholder: "Type"}
	he := models.Headline{Language: "he", WelcomeMessage: "ברוכים הבאים", InputPlaceholder: "הקלד"}
	f.headlines.On("List", mock.Anything, mock.Anything).Return([]models.Headline{en, he}, nil)
	f.headlines.On("Get", mock.Anything, mock.Anything, "he").Return(&he, nil)
	f.headlines.On("Get", mock.Anything, mock.Anything, "fr").Return(nil, models.ErrNotFound)

	all, err := f.svc.GetHeadlines(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := f.svc.GetHeadlines(context.Background(), "HE")
	require.NoError(t, err)
	assert.Equal(t, []models.Headline{he}, one)

	_, err = f.svc.GetHeadlines(context.Background(), "fr")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
