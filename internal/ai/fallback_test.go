package ai_test

import (
	"context"
	"errors"
	"testing"

	"tutor-server/internal/ai"
	"tutor-server/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFallback_UsesDefaultPrompt(t *testing.T) {
	client := new(mocks.AIClient)
	client.On("GenerateText", mock.Anything, ai.DefaultTutorPrompt, "what is 2+2?").Return("  4  ", nil).Once()

	f := ai.NewFallback(client, "", zap.NewNop())
	text, err := f.Answer(context.Background(), "what is 2+2?")

	require.NoError(t, err)
	assert.Equal(t, "4", text)
	client.AssertExpectations(t)
}

func TestFallback_CustomPrompt(t *testing.T) {
	client := new(mocks.AIClient)
	client.On("GenerateText", mock.Anything, "be short", "x").Return("y", nil).Once()

	f := ai.NewFallback(client, "be short", zap.NewNop())
	text, err := f.Answer(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, "y", text)
	client.AssertExpectations(t)
}

func TestFallback_EmptyAnswerIsError(t *testing.T) {
	client := new(mocks.AIClient)
	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).Return("   ", nil)

	f := ai.NewFallback(client, "", zap.NewNop())
	_, err := f.Answer(context.Background(), "x")

	assert.ErrorIs(t, err, ai.ErrAIGenerationFailed)
}

func TestFallback_PropagatesClientError(t *testing.T) {
	boom := errors.New("boom")
	client := new(mocks.AIClient)
	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).Return("", boom)

	f := ai.NewFallback(client, "", zap.NewNop())
	_, err := f.Answer(context.Background(), "x")

	assert.ErrorIs(t, err, boom)
}

func TestFallback_CompleteUsesGivenInstructions(t *testing.T) {
	client := new(mocks.AIClient)
	client.On("GenerateText", mock.Anything, "title please", "transcript").Return(" Fractions \n", nil).Once()

	f := ai.NewFallback(client, "", zap.NewNop())
	text, err := f.Complete(context.Background(), "title please", "transcript")

	require.NoError(t, err)
	assert.Equal(t, "Fractions", text)
}

func TestNewClient(t *testing.T) {
	_, err := ai.NewClient(ai.Config{ClientType: "openai", APIKey: "k", Model: "gpt-4o-mini"}, zap.NewNop())
	require.NoError(t, err)

	_, err = ai.NewClient(ai.Config{ClientType: "Ollama", BaseURL: "http://localhost:11434/v1", Model: "llama3"}, zap.NewNop())
	require.NoError(t, err)

	_, err = ai.NewClient(ai.Config{ClientType: "bard"}, zap.NewNop())
	assert.Error(t, err)
}

func TestClient_EmptyPromptRejected(t *testing.T) {
	client, err := ai.NewClient(ai.Config{ClientType: "openai", APIKey: "k", Model: "gpt-4o-mini"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GenerateText(context.Background(), " ", "")
	assert.ErrorIs(t, err, ai.ErrAIGenerationFailed)
}
