package assetservice

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, folder, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStore) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, "https://assets.test/")
}
