package ai

import (
	"context"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIClient реализует Client через OpenAI-совместимый API.
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func newOpenAIClient(cfg Config, logger *zap.Logger) *openAIClient {
	openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	l := logger.Named("OpenAIClient")
	l.Info("OpenAI client created",
		zap.String("baseURL", openaiConfig.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return &openAIClient{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  cfg.Model,
		logger: l,
	}
}

func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt, userInput string) (string, error) {
	if strings.TrimSpace(systemPrompt) == "" && strings.TrimSpace(userInput) == "" {
		return "", buildGenerationError("empty prompt", nil)
	}

	messages := make([]openaigo.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt})
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, Content: userInput})
	}
	observePromptTokens(c.model, systemPrompt+"\n"+userInput)

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	duration := time.Since(start)

	if err != nil {
		recordRequest(c.model, "error", duration)
		c.logger.Warn("AI API request failed", zap.Duration("duration", duration), zap.Error(err))
		return "", buildGenerationError("request failed", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		recordRequest(c.model, "error_empty_response", duration)
		return "", buildGenerationError("empty response", nil)
	}

	recordRequest(c.model, "success", duration)
	c.logger.Debug("AI API response received",
		zap.Duration("duration", duration),
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}
