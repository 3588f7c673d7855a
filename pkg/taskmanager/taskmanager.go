package taskmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrTooManyTasks - достигнут лимит активных задач.
	ErrTooManyTasks = errors.New("too many active tasks")
	// ErrClosed - менеджер уже остановлен.
	ErrClosed = errors.New("task manager is closed")
	// ErrTaskNotFound - задачи с таким ID нет.
	ErrTaskNotFound = errors.New("task not found")
)

// TaskStatus представляет статус задачи
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

func (s TaskStatus) finished() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// TaskFunc - функция, выполняемая в задаче.
type TaskFunc func(ctx context.Context) error

// Task - снимок состояния задачи.
type Task struct {
	ID        uuid.UUID
	Name      string
	Status    TaskStatus
	Err       error
	CreatedAt time.Time
	UpdatedAt time.Time
}

type entry struct {
	task   Task
	cancel context.CancelFunc
}

// Config содержит конфигурацию для TaskManager
type Config struct {
	MaxTasks    int           // по умолчанию 10
	TaskTimeout time.Duration // 0 - без ограничения
}

// TaskManager выполняет фоновые задачи в отдельных горутинах с ограничением
// на число одновременно активных задач.
type TaskManager struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]*entry
	maxTasks int
	timeout  time.Duration
	closed   bool
	wg       sync.WaitGroup
}

// New создает новый экземпляр TaskManager
func New(cfg Config) *TaskManager {
	maxTasks := cfg.MaxTasks
	if maxTasks <= 0 {
		maxTasks = 10
	}
	return &TaskManager{
		tasks:    make(map[uuid.UUID]*entry),
		maxTasks: maxTasks,
		timeout:  cfg.TaskTimeout,
	}
}

// Submit запускает задачу. Контекст задачи не зависит от ctx вызывающего,
// но наследует из него zerolog-логгер.
func (tm *TaskManager) Submit(ctx context.Context, name string, fn TaskFunc) (uuid.UUID, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.closed {
		return uuid.Nil, ErrClosed
	}
	active := 0
	for _, e := range tm.tasks {
		if !e.task.Status.finished() {
			active++
		}
	}
	if active >= tm.maxTasks {
		return uuid.Nil, ErrTooManyTasks
	}

	base := log.Ctx(ctx).WithContext(context.Background())
	var taskCtx context.Context
	var cancel context.CancelFunc
	if tm.timeout > 0 {
		taskCtx, cancel = context.WithTimeout(base, tm.timeout)
	} else {
		taskCtx, cancel = context.WithCancel(base)
	}

	now := time.Now()
	id := uuid.New()
	e := &entry{
		task:   Task{ID: id, Name: name, Status: TaskStatusPending, CreatedAt: now, UpdatedAt: now},
		cancel: cancel,
	}
	tm.tasks[id] = e

	tm.wg.Add(1)
	go func() {
		defer tm.wg.Done()
		defer cancel()
		tm.run(taskCtx, e, fn)
	}()

	return id, nil
}

func (tm *TaskManager) run(ctx context.Context, e *entry, fn TaskFunc) {
	tm.setStatus(e, TaskStatusRunning, nil)

	err := fn(ctx)

	switch {
	case err == nil:
		tm.setStatus(e, TaskStatusCompleted, nil)
	case errors.Is(err, context.Canceled):
		tm.setStatus(e, TaskStatusCancelled, err)
	default:
		tm.setStatus(e, TaskStatusFailed, err)
	}

	ev := log.Ctx(ctx).Info()
	if err != nil {
		ev = log.Ctx(ctx).Error().Err(err)
	}
	ev.Str("taskID", e.task.ID.String()).Str("task", e.task.Name).Msg("task finished")
}

func (tm *TaskManager) setStatus(e *entry, status TaskStatus, err error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	e.task.Status = status
	e.task.Err = err
	e.task.UpdatedAt = time.Now()
}

// Get возвращает снимок задачи.
func (tm *TaskManager) Get(id uuid.UUID) (Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	e, ok := tm.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return e.task, nil
}

// Cancel отменяет незавершенную задачу.
func (tm *TaskManager) Cancel(id uuid.UUID) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	e, ok := tm.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if e.task.Status.finished() {
		return fmt.Errorf("task %s is already %s", id, e.task.Status)
	}
	e.cancel()
	return nil
}

// CleanupTasks удаляет завершенные задачи старше age.
func (tm *TaskManager) CleanupTasks(age time.Duration) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, e := range tm.tasks {
		if e.task.Status.finished() && now.Sub(e.task.UpdatedAt) > age {
			delete(tm.tasks, id)
			removed++
		}
	}
	return removed
}

// Shutdown перестает принимать задачи и ждет завершения запущенных.
// По истечении ctx оставшиеся задачи отменяются.
func (tm *TaskManager) Shutdown(ctx context.Context) error {
	tm.mu.Lock()
	tm.closed = true
	tm.mu.Unlock()

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		tm.mu.Lock()
		for _, e := range tm.tasks {
			if !e.task.Status.finished() {
				e.cancel()
			}
		}
		tm.mu.Unlock()
		<-done
		return fmt.Errorf("task manager shutdown: %w", ctx.Err())
	}
}
