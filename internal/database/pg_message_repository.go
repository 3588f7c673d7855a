package database

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutor-server/internal/interfaces"
	"tutor-server/internal/models"
)

const (
	createMessageQuery = `
        INSERT INTO messages (room_id, sender, user_id, text)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	createMessageURLQuery = `
        INSERT INTO message_urls (message_id, file_url, type)
        VALUES ($1, $2, $3)
        RETURNING id`
	touchRoomQuery = `UPDATE chat_rooms SET updated_at = NOW() WHERE id = $1`

	listRoomMessagesQuery = `
        SELECT id, room_id, sender, user_id, text, created_at
        FROM messages WHERE room_id = $1
        ORDER BY created_at, id`
	listLastMessagesQuery = `
        SELECT * FROM (
            SELECT id, room_id, sender, user_id, text, created_at
            FROM messages WHERE room_id = $1
            ORDER BY created_at DESC, id DESC
            LIMIT $2
        ) last ORDER BY created_at, id`
	listMessageURLsQuery = `
        SELECT id, message_id, file_url, type
        FROM message_urls WHERE message_id = ANY($1)
        ORDER BY id`
	countRoomMessagesQuery = `SELECT COUNT(*) FROM messages WHERE room_id = $1`
)

type pgMessageRepository struct {
	logger *zap.Logger
}

var _ interfaces.MessageRepository = (*pgMessageRepository)(nil)

// NewPgMessageRepository создает репозиторий сообщений.
func NewPgMessageRepository(logger *zap.Logger) interfaces.MessageRepository {
	return &pgMessageRepository{logger: logger.Named("PgMessageRepo")}
}

func (r *pgMessageRepository) Create(ctx context.Context, querier interfaces.DBTX, msg *models.Message) error {
	err := querier.QueryRow(ctx, createMessageQuery, msg.RoomID, msg.Sender, msg.UserID, msg.Text).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create message",
			zap.String("roomID", msg.RoomID.String()),
			zap.String("sender", string(msg.Sender)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to create message: %w", err)
	}

	for i := range msg.URLs {
		u := &msg.URLs[i]
		u.MessageID = msg.ID
		if err := querier.QueryRow(ctx, createMessageURLQuery, u.MessageID, u.FileURL, u.Type).Scan(&u.ID); err != nil {
			return fmt.Errorf("failed to create message url: %w", err)
		}
	}

	if _, err := querier.Exec(ctx, touchRoomQuery, msg.RoomID); err != nil {
		return fmt.Errorf("failed to touch chat room: %w", err)
	}
	return nil
}

func (r *pgMessageRepository) ListByRoom(ctx context.Context, querier interfaces.DBTX, roomID uuid.UUID) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	if err := pgxscan.Select(ctx, querier, &messages, listRoomMessagesQuery, roomID); err != nil {
		r.logger.Error("Failed to list messages", zap.String("roomID", roomID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if err := r.attachURLs(ctx, querier, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *pgMessageRepository) ListLast(ctx context.Context, querier interfaces.DBTX, roomID uuid.UUID, limit int) ([]models.Message, error) {
	messages := make([]models.Message, 0, limit)
	if limit <= 0 {
		return messages, nil
	}
	if err := pgxscan.Select(ctx, querier, &messages, listLastMessagesQuery, roomID, limit); err != nil {
		return nil, fmt.Errorf("failed to list last messages: %w", err)
	}
	return messages, nil
}

func (r *pgMessageRepository) CountByRoom(ctx context.Context, querier interfaces.DBTX, roomID uuid.UUID) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countRoomMessagesQuery, roomID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// attachURLs загружает вложения одним запросом.
func (r *pgMessageRepository) attachURLs(ctx context.Context, querier interfaces.DBTX, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]int64, len(messages))
	index := make(map[int64]int, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
		index[m.ID] = i
		messages[i].URLs = []models.MessageURL{}
	}

	var urls []models.MessageURL
	if err := pgxscan.Select(ctx, querier, &urls, listMessageURLsQuery, ids); err != nil {
		return fmt.Errorf("failed to list message urls: %w", err)
	}
	for _, u := range urls {
		if i, ok := index[u.MessageID]; ok {
			messages[i].URLs = append(messages[i].URLs, u)
		}
	}
	return nil
}
