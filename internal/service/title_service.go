package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"tutor-server/internal/dialogue"
	"tutor-server/internal/interfaces"
	"tutor-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	titleHistorySize = 5
	maxTitleLength   = 100
)

// TitleGenerator - генерация текста по произвольной инструкции (ai.Fallback).
type TitleGenerator interface {
	Complete(ctx context.Context, instructions, input string) (string, error)
}

// TitleService дает комнате название по последним сообщениям.
type TitleService struct {
	db        interfaces.DBTX
	rooms     interfaces.RoomRepository
	messages  interfaces.MessageRepository
	generator TitleGenerator
	logger    *zap.Logger
}

func NewTitleService(db interfaces.DBTX, rooms interfaces.RoomRepository, messages interfaces.MessageRepository, generator TitleGenerator, logger *zap.Logger) *TitleService {
	return &TitleService{
		db:        db,
		rooms:     rooms,
		messages:  messages,
		generator: generator,
		logger:    logger.Named("TitleService"),
	}
}

// HandleTitleTask выполняет задачу из очереди или локального планировщика.
func (s *TitleService) HandleTitleTask(ctx context.Context, payload models.TitleTaskPayload) error {
	if payload.RoomID == uuid.Nil {
		return fmt.Errorf("%w: empty room id", models.ErrInvalidInput)
	}
	log := s.logger.With(zap.String("taskID", payload.TaskID), zap.String("roomID", payload.RoomID.String()))

	room, err := s.rooms.Get(ctx, s.db, payload.RoomID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("Room is gone, title task skipped")
			titleTasksTotal.WithLabelValues("skipped").Inc()
		}
		return err
	}
	if room.Name != nil {
		log.Debug("Room already has a name, title task skipped")
		titleTasksTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	history, err := s.messages.ListLast(ctx, s.db, payload.RoomID, titleHistorySize)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		titleTasksTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	instructions := dialogue.Phrases(payload.Language).TitleInstructions
	raw, err := s.generator.Complete(ctx, instructions, transcript(history))
	if err != nil {
		titleTasksTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to generate room title: %w", err)
	}
	title := cleanTitle(raw)
	if title == "" {
		titleTasksTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("generated room title is empty")
	}

	if err := s.rooms.SetName(ctx, s.db, payload.RoomID, title); err != nil {
		return err
	}
	titleTasksTotal.WithLabelValues("completed").Inc()
	log.Info("Room title generated", zap.String("title", title))
	return nil
}

func transcript(history []models.Message) string {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(string(m.Sender))
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(m.Text))
		b.WriteString("\n")
	}
	return b.String()
}

// cleanTitle оставляет первую строку без кавычек и обрезает по длине.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	title = strings.Trim(strings.TrimSpace(title), "\"'«»“”*# ")
	if utf8.RuneCountInString(title) > maxTitleLength {
		title = strings.TrimSpace(string([]rune(title)[:maxTitleLength]))
	}
	return title
}
