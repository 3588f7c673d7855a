package interfaces

import (
	"context"
	"time"

	"tutor-server/internal/dialogue"
	"tutor-server/internal/models"

	"github.com/google/uuid"
)

// RoomRepository хранит комнаты и сериализованное состояние диалога.
type RoomRepository interface {
	Create(ctx context.Context, querier DBTX, room *models.ChatRoom) error
	// GetByID возвращает комнату владельца. Чужая комната - models.ErrNotFound.
	GetByID(ctx context.Context, querier DBTX, id, userID uuid.UUID) (*models.ChatRoom, error)
	// Get возвращает комнату без проверки владельца (фоновые задачи).
	Get(ctx context.Context, querier DBTX, id uuid.UUID) (*models.ChatRoom, error)
	ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID) ([]*models.ChatRoom, error)
	Rename(ctx context.Context, querier DBTX, id, userID uuid.UUID, name string) error
	// SetName задает название, только если пользователь его еще не задал.
	SetName(ctx context.Context, querier DBTX, id uuid.UUID, name string) error
	Delete(ctx context.Context, querier DBTX, id, userID uuid.UUID) error
	// UpdateState сохраняет состояние, если ревизия не изменилась, и возвращает новую.
	// Иначе models.ErrConflict.
	UpdateState(ctx context.Context, querier DBTX, id uuid.UUID, expectedRevision int64, state []byte) (int64, error)
}

// MessageRepository хранит сообщения и их вложения.
type MessageRepository interface {
	// Create заполняет ID и CreatedAt, вложения сохраняются вместе с сообщением.
	Create(ctx context.Context, querier DBTX, msg *models.Message) error
	ListByRoom(ctx context.Context, querier DBTX, roomID uuid.UUID) ([]models.Message, error)
	// ListLast возвращает последние limit сообщений в хронологическом порядке.
	ListLast(ctx context.Context, querier DBTX, roomID uuid.UUID, limit int) ([]models.Message, error)
	CountByRoom(ctx context.Context, querier DBTX, roomID uuid.UUID) (int, error)
}

// HeadlineRepository отдает тексты приветствия.
type HeadlineRepository interface {
	Get(ctx context.Context, querier DBTX, language string) (*models.Headline, error)
	List(ctx context.Context, querier DBTX) ([]models.Headline, error)
}

// ExerciseRepository - таблица упражнений.
type ExerciseRepository interface {
	ListAll(ctx context.Context, querier DBTX) ([]dialogue.Exercise, error)
	// LastModified возвращает время последнего изменения и число строк.
	LastModified(ctx context.Context, querier DBTX) (time.Time, int, error)
	Upsert(ctx context.Context, querier DBTX, ex dialogue.Exercise) error
}
