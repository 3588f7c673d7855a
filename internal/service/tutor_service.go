package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"tutor-server/internal/catalog"
	"tutor-server/internal/dialogue"
	"tutor-server/internal/interfaces"
	"tutor-server/internal/locker"
	"tutor-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Название комнаты генерируется, когда сообщений больше titleMinMessages и меньше titleMaxMessages.
	titleMinMessages = 10
	titleMaxMessages = 14
)

// TutorService - операции над комнатами и сообщениями.
type TutorService interface {
	CreateRoom(ctx context.Context, userID uuid.UUID, name, lang string) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, userID uuid.UUID) ([]*models.ChatRoom, error)
	GetRoom(ctx context.Context, userID, roomID uuid.UUID) (*models.RoomWithMessages, error)
	RenameRoom(ctx context.Context, userID, roomID uuid.UUID, name string) error
	DeleteRoom(ctx context.Context, userID, roomID uuid.UUID) error
	ListMessages(ctx context.Context, userID, roomID uuid.UUID) ([]models.Message, error)
	// PostMessage передает реплику движку и возвращает ответ бота.
	PostMessage(ctx context.Context, userID, roomID uuid.UUID, input PostMessageInput) (*models.Message, error)
	GetHeadlines(ctx context.Context, lang string) ([]models.Headline, error)
}

// PostMessageInput - входящее сообщение пользователя.
type PostMessageInput struct {
	Text     string
	Language string // пустая строка - язык разговора не меняется
	URLs     []models.MessageURL
}

// ArtifactStore сохраняет иллюстрации и выдает их публичные адреса.
type ArtifactStore interface {
	dialogue.ArtifactRenderer
	PublicURL(path string) string
}

// EngineOptions - параметры движков, создаваемых сервисом.
type EngineOptions struct {
	RecentWindow    int
	EndOnExhaustion bool
	RNGSeed         int64 // 0 - случайный источник
}

// TutorDeps - зависимости TutorService.
type TutorDeps struct {
	DB        interfaces.DBTX
	Tx        interfaces.Transactor
	Rooms     interfaces.RoomRepository
	Messages  interfaces.MessageRepository
	Headlines interfaces.HeadlineRepository
	Catalog   catalog.Store
	Locker    locker.Locker
	Cache     *EngineCache
	AI        dialogue.Answerer
	Artifacts ArtifactStore                 // может быть nil
	Titles    interfaces.TitleTaskPublisher // может быть nil
	Engine    EngineOptions
	Logger    *zap.Logger
}

type tutorServiceImpl struct {
	db        interfaces.DBTX
	tx        interfaces.Transactor
	rooms     interfaces.RoomRepository
	messages  interfaces.MessageRepository
	headlines interfaces.HeadlineRepository
	catalog   catalog.Store
	locker    locker.Locker
	cache     *EngineCache
	ai        dialogue.Answerer
	artifacts ArtifactStore
	titles    interfaces.TitleTaskPublisher
	opts      EngineOptions
	logger    *zap.Logger
}

// NewTutorService создает сервис.
func NewTutorService(deps TutorDeps) TutorService {
	cache := deps.Cache
	if cache == nil {
		cache = NewEngineCache(0, 0)
	}
	lk := deps.Locker
	if lk == nil {
		lk = locker.NewKeyedMutex()
	}
	return &tutorServiceImpl{
		db:        deps.DB,
		tx:        deps.Tx,
		rooms:     deps.Rooms,
		messages:  deps.Messages,
		headlines: deps.Headlines,
		catalog:   deps.Catalog,
		locker:    lk,
		cache:     cache,
		ai:        deps.AI,
		artifacts: deps.Artifacts,
		titles:    deps.Titles,
		opts:      deps.Engine,
		logger:    deps.Logger.Named("TutorService"),
	}
}

func (s *tutorServiceImpl) CreateRoom(ctx context.Context, userID uuid.UUID, name, lang string) (*models.ChatRoom, error) {
	state, err := dialogue.InitialState(lang).Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare initial state: %w", err)
	}
	room := &models.ChatRoom{
		UserID:   userID,
		FSMState: state,
	}
	if name = strings.TrimSpace(name); name != "" {
		room.Name = &name
	}
	if err := s.rooms.Create(ctx, s.db, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *tutorServiceImpl) ListRooms(ctx context.Context, userID uuid.UUID) ([]*models.ChatRoom, error) {
	return s.rooms.ListByUser(ctx, s.db, userID)
}

func (s *tutorServiceImpl) GetRoom(ctx context.Context, userID, roomID uuid.UUID) (*models.RoomWithMessages, error) {
	room, err := s.rooms.GetByID(ctx, s.db, roomID, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByRoom(ctx, s.db, roomID)
	if err != nil {
		return nil, err
	}
	return &models.RoomWithMessages{ChatRoom: *room, Messages: messages}, nil
}

func (s *tutorServiceImpl) RenameRoom(ctx context.Context, userID, roomID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: %w", models.ErrInvalidInput, ErrEmptyName)
	}
	return s.rooms.Rename(ctx, s.db, roomID, userID, name)
}

func (s *tutorServiceImpl) DeleteRoom(ctx context.Context, userID, roomID uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, roomID.String())
	if err != nil {
		return fmt.Errorf("failed to lock room %s: %w", roomID, err)
	}
	defer unlock()

	if err := s.rooms.Delete(ctx, s.db, roomID, userID); err != nil {
		return err
	}
	s.cache.Evict(userID, roomID)
	return nil
}

func (s *tutorServiceImpl) ListMessages(ctx context.Context, userID, roomID uuid.UUID) ([]models.Message, error) {
	if _, err := s.rooms.GetByID(ctx, s.db, roomID, userID); err != nil {
		return nil, err
	}
	return s.messages.ListByRoom(ctx, s.db, roomID)
}

func (s *tutorServiceImpl) GetHeadlines(ctx context.Context, lang string) ([]models.Headline, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return s.headlines.List(ctx, s.db)
	}
	h, err := s.headlines.Get(ctx, s.db, lang)
	if err != nil {
		return nil, err
	}
	return []models.Headline{*h}, nil
}

func (s *tutorServiceImpl) PostMessage(ctx context.Context, userID, roomID uuid.UUID, input PostMessageInput) (*models.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, ErrEmptyMessage)
	}
	log := s.logger.With(zap.String("roomID", roomID.String()), zap.String("userID", userID.String()))

	unlock, err := s.locker.Lock(ctx, roomID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to lock room %s: %w", roomID, err)
	}
	defer unlock()

	room, err := s.rooms.GetByID(ctx, s.db, roomID, userID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		log.Error("Exercise snapshot unavailable", zap.Error(err))
		return nil, err
	}

	engine := s.engineFor(userID, room, snapshot, input.Language, log)
	if input.Language != "" && !engine.SetLanguage(input.Language) {
		log.Debug("Unsupported language ignored", zap.String("lang", input.Language))
	}
	fromStage := engine.State().Stage

	reply, err := engine.Transition(ctx, text)
	if err != nil {
		s.cache.Evict(userID, roomID)
		return nil, err
	}
	dialogueTransitionsTotal.WithLabelValues(fromStage.String()).Inc()
	if reply.UsedAI {
		dialogueFallbackRepliesTotal.Inc()
	}

	state, err := engine.State().Marshal()
	if err != nil {
		s.cache.Evict(userID, roomID)
		return nil, err
	}

	uid := userID
	userMsg := &models.Message{RoomID: roomID, Sender: models.SenderUser, UserID: &uid, Text: text, URLs: input.URLs}
	botMsg := &models.Message{RoomID: roomID, Sender: models.SenderBot, Text: reply.Text}
	if reply.ArtifactPath != "" && s.artifacts != nil {
		botMsg.URLs = []models.MessageURL{{FileURL: s.artifacts.PublicURL(reply.ArtifactPath), Type: models.URLTypeImage}}
	}

	var newRevision int64
	err = s.tx.WithinTx(ctx, func(tx interfaces.DBTX) error {
		if err := s.messages.Create(ctx, tx, userMsg); err != nil {
			return err
		}
		if err := s.messages.Create(ctx, tx, botMsg); err != nil {
			return err
		}
		rev, err := s.rooms.UpdateState(ctx, tx, roomID, room.StateRevision, state)
		if err != nil {
			return err
		}
		newRevision = rev
		return nil
	})
	if err != nil {
		s.cache.Evict(userID, roomID)
		if errors.Is(err, models.ErrConflict) {
			log.Warn("Room state changed concurrently, reply discarded", zap.Int64("revision", room.StateRevision))
		}
		return nil, err
	}

	s.cache.Put(userID, roomID, engine, newRevision, snapshot.Version)
	s.maybeScheduleTitle(ctx, room, engine.State().Language, log)
	return botMsg, nil
}

// engineFor берет движок из кэша или восстанавливает его из сохраненного состояния.
func (s *tutorServiceImpl) engineFor(userID uuid.UUID, room *models.ChatRoom, snapshot *catalog.Snapshot, lang string, log *zap.Logger) *dialogue.Engine {
	if engine, ok := s.cache.Get(userID, room.ID, room.StateRevision, snapshot.Version); ok {
		return engine
	}

	state, err := dialogue.UnmarshalState(room.FSMState)
	if err != nil {
		log.Warn("Stored dialogue state is invalid, starting over", zap.Error(err))
		state = dialogue.InitialState(lang)
	}
	return dialogue.NewEngine(snapshot.Exercises, state, dialogue.Deps{
		AI:              s.ai,
		Artifacts:       s.renderer(),
		Rand:            s.newRand(),
		Logger:          s.logger,
		RecentWindow:    s.opts.RecentWindow,
		EndOnExhaustion: s.opts.EndOnExhaustion,
	})
}

func (s *tutorServiceImpl) renderer() dialogue.ArtifactRenderer {
	if s.artifacts == nil {
		return nil
	}
	return s.artifacts
}

func (s *tutorServiceImpl) newRand() *rand.Rand {
	if s.opts.RNGSeed == 0 {
		return nil
	}
	return rand.New(rand.NewSource(s.opts.RNGSeed))
}

// maybeScheduleTitle ставит задачу на название комнаты. Ошибки только логируются.
func (s *tutorServiceImpl) maybeScheduleTitle(ctx context.Context, room *models.ChatRoom, lang string, log *zap.Logger) {
	if s.titles == nil || room.Name != nil {
		return
	}
	count, err := s.messages.CountByRoom(ctx, s.db, room.ID)
	if err != nil {
		log.Warn("Failed to count room messages", zap.Error(err))
		return
	}
	if count <= titleMinMessages || count >= titleMaxMessages {
		return
	}

	payload := models.TitleTaskPayload{TaskID: uuid.NewString(), RoomID: room.ID, Language: lang}
	if err := s.titles.PublishTitleTask(ctx, payload); err != nil {
		titleTasksTotal.WithLabelValues("publish_failed").Inc()
		log.Warn("Failed to schedule room title task", zap.Error(err))
		return
	}
	titleTasksTotal.WithLabelValues("scheduled").Inc()
}
