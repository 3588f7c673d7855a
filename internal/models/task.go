package models

import "github.com/google/uuid"

// TitleTaskPayload - задача на генерацию названия комнаты.
type TitleTaskPayload struct {
	TaskID   string    `json:"task_id"`
	RoomID   uuid.UUID `json:"room_id"`
	Language string    `json:"language"`
}
