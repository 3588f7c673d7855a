package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender - автор сообщения.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// URLType - тип вложения.
type URLType string

const (
	URLTypeImage URLType = "image"
	URLTypeFile  URLType = "file"
)

// Message - одно сообщение в комнате.
type Message struct {
	ID        int64        `db:"id" json:"id"`
	RoomID    uuid.UUID    `db:"room_id" json:"room_id"`
	Sender    Sender       `db:"sender" json:"sender"`
	UserID    *uuid.UUID   `db:"user_id" json:"user_id,omitempty"`
	Text      string       `db:"text" json:"text"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	URLs      []MessageURL `db:"-" json:"urls"`
}

// MessageURL - вложение сообщения (иллюстрация или файл).
type MessageURL struct {
	ID        int64   `db:"id" json:"id"`
	MessageID int64   `db:"message_id" json:"-"`
	FileURL   string  `db:"file_url" json:"file_url"`
	Type      URLType `db:"type" json:"type"`
}
