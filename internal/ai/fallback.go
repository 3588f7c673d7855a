package ai

import (
	"context"
	"strings"

	"tutor-server/internal/dialogue"

	"go.uber.org/zap"
)

// DefaultTutorPrompt - системная инструкция помощника по умолчанию.
const DefaultTutorPrompt = "You are a patient math tutor for school students. " +
	"Answer briefly and clearly, guide the student towards the solution step by step " +
	"and do not just give away the final answer unless asked for it. " +
	"Reply in the same language the student writes in."

// Fallback отвечает ученику, когда у движка нет готового ответа.
type Fallback struct {
	client       Client
	systemPrompt string
	logger       *zap.Logger
}

var _ dialogue.Answerer = (*Fallback)(nil)

// NewFallback создает помощника. Пустой systemPrompt заменяется DefaultTutorPrompt.
func NewFallback(client Client, systemPrompt string, logger *zap.Logger) *Fallback {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultTutorPrompt
	}
	return &Fallback{
		client:       client,
		systemPrompt: systemPrompt,
		logger:       logger.Named("AIFallback"),
	}
}

// Answer реализует dialogue.Answerer.
func (f *Fallback) Answer(ctx context.Context, prompt string) (string, error) {
	text, err := f.client.GenerateText(ctx, f.systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", buildGenerationError("empty answer", nil)
	}
	return text, nil
}

// Complete выполняет запрос с произвольной инструкцией, например для заголовка комнаты.
func (f *Fallback) Complete(ctx context.Context, instructions, input string) (string, error) {
	text, err := f.client.GenerateText(ctx, instructions, input)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
