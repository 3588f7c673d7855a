package mocks

import (
	"context"

	"tutor-server/internal/ai"

	"github.com/stretchr/testify/mock"
)

// AIClient is a mock type for the ai.Client type
type AIClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, systemPrompt, userInput
func (_m *AIClient) GenerateText(ctx context.Context, systemPrompt string, userInput string) (string, error) {
	ret := _m.Called(ctx, systemPrompt, userInput)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, string) string); ok {
		r0 = rf(ctx, systemPrompt, userInput)
	} else {
		r0 = ret.String(0)
	}

	return r0, ret.Error(1)
}

var _ ai.Client = (*AIClient)(nil)
