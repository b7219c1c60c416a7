package handlers

import (
	"context"

	"github.com/smitebuilds/recommender/internal/models"
)

// MockRatings
type MockRatings struct {
	Snapshot *models.RatingsSnapshot
}

func (m *MockRatings) Get() *models.RatingsSnapshot { return m.Snapshot }

// MockStore
type MockStore struct {
	ItemsFunc func(ctx context.Context) ([]models.Item, error)
	PingErr   error
}

func (m *MockStore) Items(ctx context.Context) ([]models.Item, error) {
	if m.ItemsFunc != nil {
		return m.ItemsFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) Ping(ctx context.Context) error { return m.PingErr }

// MockCache counts writes so tests can assert the cache-aside path.
type MockCache struct {
	Entries map[string][]byte
	Stores  int
	PingErr error
}

func NewMockCache() *MockCache {
	return &MockCache{Entries: map[string][]byte{}}
}

func (m *MockCache) Dashboard(ctx context.Context, name string) ([]byte, bool) {
	body, ok := m.Entries[name]
	return body, ok
}

func (m *MockCache) StoreDashboard(ctx context.Context, name string, body []byte) {
	m.Stores++
	m.Entries[name] = body
}

func (m *MockCache) Ping(ctx context.Context) error { return m.PingErr }
