package mocks

import (
	"context"

	"tutor-server/internal/dialogue"

	"github.com/stretchr/testify/mock"
)

// Answerer is a mock type for the dialogue.Answerer type
type Answerer struct {
	mock.Mock
}

// Answer provides a mock function with given fields: ctx, prompt
func (_m *Answerer) Answer(ctx context.Context, prompt string) (string, error) {
	ret := _m.Called(ctx, prompt)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string) string); ok {
		r0 = rf(ctx, prompt)
	} else {
		r0 = ret.String(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, prompt)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ArtifactRenderer is a mock type for the dialogue.ArtifactRenderer type
type ArtifactRenderer struct {
	mock.Mock
}

// Render provides a mock function with given fields: ctx, ex
func (_m *ArtifactRenderer) Render(ctx context.Context, ex dialogue.Exercise) (string, error) {
	ret := _m.Called(ctx, ex)
	return ret.String(0), ret.Error(1)
}

var (
	_ dialogue.Answerer         = (*Answerer)(nil)
	_ dialogue.ArtifactRenderer = (*ArtifactRenderer)(nil)
)
