package interfaces

import (
	"context"

	"tutor-server/internal/models"
)

// TitleTaskPublisher ставит задачу генерации названия комнаты.
type TitleTaskPublisher interface {
	PublishTitleTask(ctx context.Context, payload models.TitleTaskPayload) error
}
