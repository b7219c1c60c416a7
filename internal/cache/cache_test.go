package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/models"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(rdb, 24*time.Hour, zap.NewNop().Sugar()), mr
}

func TestMatchIDsRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.MatchIDs(ctx, 426, "20260801", "-1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	entries := []models.MatchIDEntry{
		{Match: "263074111", ActiveFlag: "n"},
		{Match: "263074112", ActiveFlag: "n"},
	}
	c.StoreMatchIDs(ctx, 426, "20260801", "-1", entries)

	got, ok := c.MatchIDs(ctx, 426, "20260801", "-1")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if len(got) != 2 || got[0].Match != "263074111" {
		t.Errorf("got = %+v", got)
	}

	// Different hour is a different key.
	if _, ok := c.MatchIDs(ctx, 426, "20260801", "5"); ok {
		t.Error("expected miss for different hour")
	}
}

func TestMatchBatchRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	players := []models.MatchPlayer{
		{Match: 263074111, GodID: 1672, WinStatus: "Winner", TaskForce: 1, ItemID1: 19692},
	}
	c.StoreMatchBatch(ctx, "263074111,263074112", players)

	got, ok := c.MatchBatch(ctx, "263074111,263074112")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if len(got) != 1 || got[0].GodID != 1672 || !got[0].Won() {
		t.Errorf("got = %+v", got)
	}
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.StoreMatchIDs(ctx, 426, "20260801", "-1", []models.MatchIDEntry{{Match: "1"}})
	mr.FastForward(25 * time.Hour)

	if _, ok := c.MatchIDs(ctx, 426, "20260801", "-1"); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestDashboardCache(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	body := []byte(`{"gods": []}`)
	c.StoreDashboard(ctx, "gods", body)

	got, ok := c.Dashboard(ctx, "gods")
	if !ok || string(got) != string(body) {
		t.Errorf("Dashboard = %q, %v", got, ok)
	}

	mr.FastForward(time.Minute)
	if _, ok := c.Dashboard(ctx, "gods"); ok {
		t.Error("expected miss after dashboard TTL")
	}
}

func TestDeadRedisDegrades(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	c := New(rdb, time.Hour, zap.NewNop().Sugar())
	mr.Close()

	// Reads miss, writes log and drop; neither panics or errors out.
	if _, ok := c.MatchIDs(context.Background(), 426, "20260801", "-1"); ok {
		t.Error("expected miss against dead redis")
	}
	c.StoreMatchIDs(context.Background(), 426, "20260801", "-1", nil)
}
