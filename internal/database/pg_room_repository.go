package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutor-server/internal/interfaces"
	"tutor-server/internal/models"
)

const (
	roomColumns = `id, user_id, name, fsm_state, state_revision, created_at, updated_at`

	createRoomQuery = `
        INSERT INTO chat_rooms (id, user_id, name, fsm_state)
        VALUES ($1, $2, $3, $4)
        RETURNING state_revision, created_at, updated_at`
	getRoomQuery          = `SELECT ` + roomColumns + ` FROM chat_rooms WHERE id = $1`
	getUserRoomQuery      = `SELECT ` + roomColumns + ` FROM chat_rooms WHERE id = $1 AND user_id = $2`
	listUserRoomsQuery    = `SELECT ` + roomColumns + ` FROM chat_rooms WHERE user_id = $1 ORDER BY updated_at DESC`
	renameRoomQuery       = `UPDATE chat_rooms SET name = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`
	setGeneratedNameQuery = `UPDATE chat_rooms SET name = $2 WHERE id = $1 AND name IS NULL`
	deleteRoomQuery       = `DELETE FROM chat_rooms WHERE id = $1 AND user_id = $2`
	updateRoomStateQuery  = `
        UPDATE chat_rooms
        SET fsm_state = $3, state_revision = state_revision + 1, updated_at = NOW()
        WHERE id = $1 AND state_revision = $2
        RETURNING state_revision`
	roomExistsQuery = `SELECT EXISTS (SELECT 1 FROM chat_rooms WHERE id = $1)`
)

type pgRoomRepository struct {
	logger *zap.Logger
}

var _ interfaces.RoomRepository = (*pgRoomRepository)(nil)

// NewPgRoomRepository создает репозиторий комнат.
func NewPgRoomRepository(logger *zap.Logger) interfaces.RoomRepository {
	return &pgRoomRepository{logger: logger.Named("PgRoomRepo")}
}

func (r *pgRoomRepository) Create(ctx context.Context, querier interfaces.DBTX, room *models.ChatRoom) error {
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	if len(room.FSMState) == 0 {
		room.FSMState = []byte("{}")
	}
	err := querier.QueryRow(ctx, createRoomQuery, room.ID, room.UserID, room.Name, room.FSMState).
		Scan(&room.StateRevision, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create chat room", zap.String("userID", room.UserID.String()), zap.Error(err))
		return fmt.Errorf("failed to create chat room: %w", err)
	}
	r.logger.Info("Chat room created", zap.String("roomID", room.ID.String()), zap.String("userID", room.UserID.String()))
	return nil
}

func (r *pgRoomRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id, userID uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := pgxscan.Get(ctx, querier, &room, getUserRoomQuery, id, userID); err != nil {
		if err = wrapNotFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		r.logger.Error("Failed to get chat room", zap.String("roomID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get chat room %s: %w", id, err)
	}
	return &room, nil
}

func (r *pgRoomRepository) Get(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := pgxscan.Get(ctx, querier, &room, getRoomQuery, id); err != nil {
		if err = wrapNotFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get chat room %s: %w", id, err)
	}
	return &room, nil
}

func (r *pgRoomRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) ([]*models.ChatRoom, error) {
	rooms := make([]*models.ChatRoom, 0)
	if err := pgxscan.Select(ctx, querier, &rooms, listUserRoomsQuery, userID); err != nil {
		r.logger.Error("Failed to list chat rooms", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	return rooms, nil
}

func (r *pgRoomRepository) Rename(ctx context.Context, querier interfaces.DBTX, id, userID uuid.UUID, name string) error {
	tag, err := querier.Exec(ctx, renameRoomQuery, id, userID, name)
	if err != nil {
		return fmt.Errorf("failed to rename chat room %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgRoomRepository) SetName(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, name string) error {
	tag, err := querier.Exec(ctx, setGeneratedNameQuery, id, name)
	if err != nil {
		return fmt.Errorf("failed to set chat room name %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Комнаты нет либо название уже задано.
		r.logger.Debug("Chat room name not updated", zap.String("roomID", id.String()))
	}
	return nil
}

func (r *pgRoomRepository) Delete(ctx context.Context, querier interfaces.DBTX, id, userID uuid.UUID) error {
	tag, err := querier.Exec(ctx, deleteRoomQuery, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat room %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Chat room deleted", zap.String("roomID", id.String()))
	return nil
}

func (r *pgRoomRepository) UpdateState(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, expectedRevision int64, state []byte) (int64, error) {
	var revision int64
	err := querier.QueryRow(ctx, updateRoomStateQuery, id, expectedRevision, state).Scan(&revision)
	if err == nil {
		return revision, nil
	}
	if !errors.Is(wrapNotFound(err), models.ErrNotFound) {
		r.logger.Error("Failed to update dialogue state", zap.String("roomID", id.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to update dialogue state: %w", err)
	}

	// Строка не обновилась: комнаты нет или ревизия ушла вперед.
	var exists bool
	if err := querier.QueryRow(ctx, roomExistsQuery, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check chat room: %w", err)
	}
	if !exists {
		return 0, models.ErrNotFound
	}
	r.logger.Warn("Dialogue state revision conflict",
		zap.String("roomID", id.String()),
		zap.Int64("expectedRevision", expectedRevision),
	)
	return 0, models.ErrConflict
}
