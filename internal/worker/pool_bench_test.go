package worker

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/models"
)

func benchBatch() ([]string, []models.MatchPlayer) {
	ids := make([]string, 0, 10)
	players := make([]models.MatchPlayer, 0, 100)
	for m := 0; m < 10; m++ {
		matchID := int64(263074000 + m)
		ids = append(ids, fmt.Sprintf("%d", matchID))
		for s := 0; s < 10; s++ {
			win := "Loser"
			if s < 5 {
				win = "Winner"
			}
			players = append(players, models.MatchPlayer{
				Match:     matchID,
				QueueID:   426,
				GodID:     1000 + s,
				TaskForce: 1 + s/5,
				WinStatus: win,
				ItemID1:   19692,
				ItemID2:   9599,
				ItemID3:   15639,
				ItemID4:   9600,
				ItemID5:   7545,
				ItemID6:   9619,
			})
		}
	}
	return ids, players
}

// Measures the parse path for one full ten-match batch: 100 participant
// rows filtered and converted to storage records.
func BenchmarkFetchJob(b *testing.B) {
	ids, players := benchBatch()
	fetcher := &MockFetcher{
		Respond: func([]string) ([]models.MatchPlayer, error) {
			return players, nil
		},
	}

	pool := NewPool(PoolConfig{Fetcher: fetcher, Store: &MockStore{}, Logger: zap.NewNop()})
	pool.ctx, pool.cancel = context.WithCancel(context.Background())
	defer pool.cancel()

	job := Job{MatchIDs: ids}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if records := pool.fetchJob(job); len(records) != 100 {
			b.Fatalf("records = %d, want 100", len(records))
		}
	}
}

func BenchmarkFetchJobCached(b *testing.B) {
	ids, players := benchBatch()
	cache := NewMockBatchCache()

	pool := NewPool(PoolConfig{
		Fetcher: &MockFetcher{Respond: func([]string) ([]models.MatchPlayer, error) {
			b.Fatal("fetcher called despite warm cache")
			return nil, nil
		}},
		Store:  &MockStore{},
		Cache:  cache,
		Logger: zap.NewNop(),
	})
	pool.ctx, pool.cancel = context.WithCancel(context.Background())
	defer pool.cancel()

	job := Job{MatchIDs: ids}
	cache.StoreMatchBatch(pool.ctx, "263074000,263074001,263074002,263074003,263074004,263074005,263074006,263074007,263074008,263074009", players)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if records := pool.fetchJob(job); len(records) != 100 {
			b.Fatalf("records = %d, want 100", len(records))
		}
	}
}
