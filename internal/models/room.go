package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom - разговор ученика с репетитором.
type ChatRoom struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	Name          *string   `db:"name" json:"name"`
	FSMState      []byte    `db:"fsm_state" json:"-"`
	StateRevision int64     `db:"state_revision" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// RoomWithMessages - комната вместе с историей сообщений.
type RoomWithMessages struct {
	ChatRoom
	Messages []Message `json:"messages"`
}
