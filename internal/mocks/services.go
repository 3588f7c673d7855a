package mocks

import (
	"context"

	"tutor-server/internal/catalog"
	"tutor-server/internal/dialogue"
	"tutor-server/internal/interfaces"
	"tutor-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// CatalogStore is a mock type for the catalog.Store type
type CatalogStore struct {
	mock.Mock
}

func (_m *CatalogStore) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	ret := _m.Called(ctx)
	var r0 *catalog.Snapshot
	if v := ret.Get(0); v != nil {
		r0 = v.(*catalog.Snapshot)
	}
	return r0, ret.Error(1)
}

// TitleTaskPublisher is a mock type for the interfaces.TitleTaskPublisher type
type TitleTaskPublisher struct {
	mock.Mock
}

func (_m *TitleTaskPublisher) PublishTitleTask(ctx context.Context, payload models.TitleTaskPayload) error {
	ret := _m.Called(ctx, payload)
	return ret.Error(0)
}

// TitleGenerator is a mock type for the service.TitleGenerator type
type TitleGenerator struct {
	mock.Mock
}

func (_m *TitleGenerator) Complete(ctx context.Context, instructions, input string) (string, error) {
	ret := _m.Called(ctx, instructions, input)
	return ret.String(0), ret.Error(1)
}

// ArtifactStore is a mock type for the service.ArtifactStore type
type ArtifactStore struct {
	mock.Mock
}

func (_m *ArtifactStore) Render(ctx context.Context, ex dialogue.Exercise) (string, error) {
	ret := _m.Called(ctx, ex)
	return ret.String(0), ret.Error(1)
}

func (_m *ArtifactStore) PublicURL(path string) string {
	ret := _m.Called(path)
	return ret.String(0)
}

var (
	_ catalog.Store                 = (*CatalogStore)(nil)
	_ interfaces.TitleTaskPublisher = (*TitleTaskPublisher)(nil)
)
