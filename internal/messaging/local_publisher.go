package messaging

import (
	"context"
	"fmt"

	"tutor-server/internal/interfaces"
	"tutor-server/internal/models"
	"tutor-server/pkg/taskmanager"

	"go.uber.org/zap"
)

// LocalTitlePublisher выполняет задачи внутри процесса, когда брокер не настроен.
type LocalTitlePublisher struct {
	tasks   *taskmanager.TaskManager
	handler TitleTaskHandler
	logger  *zap.Logger
}

var _ interfaces.TitleTaskPublisher = (*LocalTitlePublisher)(nil)

func NewLocalTitlePublisher(tasks *taskmanager.TaskManager, handler TitleTaskHandler, logger *zap.Logger) *LocalTitlePublisher {
	return &LocalTitlePublisher{
		tasks:   tasks,
		handler: handler,
		logger:  logger.Named("LocalTitlePublisher"),
	}
}

func (p *LocalTitlePublisher) PublishTitleTask(ctx context.Context, payload models.TitleTaskPayload) error {
	id, err := p.tasks.Submit(ctx, "room-title:"+payload.RoomID.String(), func(taskCtx context.Context) error {
		return p.handler.HandleTitleTask(taskCtx, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule title task: %w", err)
	}
	p.logger.Debug("Title task scheduled",
		zap.String("taskID", payload.TaskID),
		zap.String("localTaskID", id.String()),
		zap.String("roomID", payload.RoomID.String()),
	)
	return nil
}
