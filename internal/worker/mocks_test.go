package worker

import (
	"context"
	"sync"

	"github.com/smitebuilds/recommender/internal/models"
)

// MockFetcher implements MatchFetcher for testing
type MockFetcher struct {
	mu      sync.Mutex
	Calls   [][]string
	Respond func(matchIDs []string) ([]models.MatchPlayer, error)
}

func (m *MockFetcher) GetMatchDetailsBatch(ctx context.Context, matchIDs []string) ([]models.MatchPlayer, error) {
	m.mu.Lock()
	ids := make([]string, len(matchIDs))
	copy(ids, matchIDs)
	m.Calls = append(m.Calls, ids)
	m.mu.Unlock()
	return m.Respond(matchIDs)
}

func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockStore implements ParticipantStore for testing
type MockStore struct {
	mu      sync.Mutex
	Records []models.ParticipantRecord
	Flushes int
	Err     error
}

func (m *MockStore) InsertParticipants(ctx context.Context, records []models.ParticipantRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Records = append(m.Records, records...)
	m.Flushes++
	return nil
}

func (m *MockStore) Stored() []models.ParticipantRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ParticipantRecord, len(m.Records))
	copy(out, m.Records)
	return out
}

func (m *MockStore) FlushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Flushes
}

// MockBatchCache implements BatchCache for testing
type MockBatchCache struct {
	mu      sync.Mutex
	Entries map[string][]models.MatchPlayer
	Hits    int
	Writes  int
}

func NewMockBatchCache() *MockBatchCache {
	return &MockBatchCache{Entries: make(map[string][]models.MatchPlayer)}
}

func (m *MockBatchCache) MatchBatch(ctx context.Context, idsKey string) ([]models.MatchPlayer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	players, ok := m.Entries[idsKey]
	if ok {
		m.Hits++
	}
	return players, ok
}

func (m *MockBatchCache) StoreMatchBatch(ctx context.Context, idsKey string, players []models.MatchPlayer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[idsKey] = players
	m.Writes++
}
