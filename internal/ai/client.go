package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrAIGenerationFailed - ошибка при генерации текста AI
var ErrAIGenerationFailed = errors.New("ai generation failed")

// Client - генеративная модель.
type Client interface {
	GenerateText(ctx context.Context, systemPrompt, userInput string) (string, error)
}

// Config - настройки подключения к модели.
type Config struct {
	ClientType string // openai или ollama
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration // таймаут HTTP-клиента
}

// NewClient создает клиент нужной реализации.
func NewClient(cfg Config, logger *zap.Logger) (Client, error) {
	switch strings.ToLower(cfg.ClientType) {
	case "openai":
		return newOpenAIClient(cfg, logger), nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("неизвестный тип AI клиента: '%s'", cfg.ClientType)
	}
}

func buildGenerationError(reason string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrAIGenerationFailed, reason)
	}
	return fmt.Errorf("%w: %s: %w", ErrAIGenerationFailed, reason, err)
}
