package ratings

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/models"
	"github.com/smitebuilds/recommender/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedMatches stores 8 Conquest matches of Ao Kuang against Izanami. Ao
// Kuang wins whenever he finishes Deathbringer and loses his two Rage
// games, so his model has a clean signal to find.
func seedMatches(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()

	gods := []models.God{
		{ID: 1672, Name: "Ao Kuang"},
		{ID: 1956, Name: "Izanami"},
	}
	if err := s.ReplaceGods(ctx, gods); err != nil {
		t.Fatalf("ReplaceGods: %v", err)
	}
	items := []models.Item{
		{ItemID: 19692, DeviceName: "Deathbringer", ItemTier: 3, Type: "Item"},
		{ItemID: 9599, DeviceName: "Rage", ItemTier: 3, Type: "Item"},
		{ItemID: 9600, DeviceName: "Spectral Armor", ItemTier: 3, Type: "Item"},
	}
	if err := s.ReplaceItems(ctx, items); err != nil {
		t.Fatalf("ReplaceItems: %v", err)
	}

	var records []models.ParticipantRecord
	for i := 0; i < 8; i++ {
		matchID := int64(300 + i)
		ownItem := 19692
		won := true
		if i >= 6 {
			ownItem = 9599
			won = false
		}
		records = append(records,
			models.ParticipantRecord{MatchID: matchID, QueueID: 426, GodID: 1672, TaskForce: 1, Won: won, ItemIDs: []int{ownItem}},
			models.ParticipantRecord{MatchID: matchID, QueueID: 426, GodID: 1956, TaskForce: 2, Won: !won, ItemIDs: []int{9600}},
		)
	}
	if err := s.InsertParticipants(ctx, records); err != nil {
		t.Fatalf("InsertParticipants: %v", err)
	}
}

func testConfig() BuilderConfig {
	return BuilderConfig{
		Lambda:             0.1,
		MaxIterations:      300,
		MinGodMatches:      4,
		MinItemAppearances: 1,
		MinItemTier:        3,
		HoldoutFraction:    0,
		Parallelism:        2,
		QueueID:            426,
		Dates:              []string{"20260801"},
		PatchVersion:       "11.7",
	}
}

func TestBuildSnapshot(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)

	b := NewBuilder(s, testConfig(), zap.NewNop().Sugar())
	snap, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := uuid.Parse(snap.RunID); err != nil {
		t.Errorf("run ID %q is not a UUID", snap.RunID)
	}
	if snap.Matches != 8 || snap.Participants != 16 {
		t.Errorf("totals = %d matches / %d participants, want 8/16", snap.Matches, snap.Participants)
	}
	if snap.QueueID != 426 || snap.PatchVersion != "11.7" {
		t.Errorf("metadata queue=%d patch=%q", snap.QueueID, snap.PatchVersion)
	}
	if len(snap.Gods) != 2 {
		t.Fatalf("expected 2 gods, got %d", len(snap.Gods))
	}

	ao := snap.Gods[0]
	if ao.GodName != "Ao Kuang" {
		t.Fatalf("gods not ordered by name: %q first", ao.GodName)
	}
	if ao.Matches != 8 || ao.Wins != 6 {
		t.Errorf("Ao Kuang %d matches / %d wins, want 8/6", ao.Matches, ao.Wins)
	}

	if len(ao.With) != 2 {
		t.Fatalf("with table has %d rows, want 2", len(ao.With))
	}
	if ao.With[0].ItemID != 19692 || ao.With[0].Coefficient <= 0 {
		t.Errorf("best buy = item %d coefficient %v, want Deathbringer positive",
			ao.With[0].ItemID, ao.With[0].Coefficient)
	}
	if ao.With[1].ItemID != 9599 || ao.With[1].Coefficient >= 0 {
		t.Errorf("worst buy = item %d coefficient %v, want Rage negative",
			ao.With[1].ItemID, ao.With[1].Coefficient)
	}
	if got, want := ao.With[0].Odds, math.Exp(ao.With[0].Coefficient); math.Abs(got-want) > 1e-12 {
		t.Errorf("odds = %v, want exp(coefficient) = %v", got, want)
	}
	if ao.With[0].ItemName != "Deathbringer" {
		t.Errorf("item name = %q", ao.With[0].ItemName)
	}
	if ao.With[0].Appearances != 6 {
		t.Errorf("Deathbringer appearances = %d, want 6", ao.With[0].Appearances)
	}
	if len(ao.Against) != 1 || ao.Against[0].ItemID != 9600 {
		t.Errorf("against table = %+v, want just Spectral Armor", ao.Against)
	}

	if ao.Metrics.Examples != 8 || ao.Metrics.Features != 3 {
		t.Errorf("metrics %d examples / %d features, want 8/3",
			ao.Metrics.Examples, ao.Metrics.Features)
	}
	if !ao.Metrics.Converged {
		t.Error("expected a converged fit")
	}
	if ao.Metrics.AUC != 1 {
		t.Errorf("AUC on separable data = %v, want 1", ao.Metrics.AUC)
	}
	if ao.Metrics.Accuracy < 0.75 {
		t.Errorf("accuracy = %v, want >= 0.75", ao.Metrics.Accuracy)
	}

	iz := snap.Gods[1]
	if iz.GodName != "Izanami" || iz.Wins != 2 {
		t.Errorf("second god %q with %d wins, want Izanami with 2", iz.GodName, iz.Wins)
	}
	if len(iz.Against) != 2 || iz.Against[0].ItemID != 19692 || iz.Against[0].Coefficient >= 0 {
		t.Errorf("Izanami against = %+v, want Deathbringer ranked most dangerous", iz.Against)
	}
}

func TestBuildHoldsOutByMatch(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)

	cfg := testConfig()
	cfg.HoldoutFraction = 0.2
	b := NewBuilder(s, cfg, zap.NewNop().Sugar())
	snap, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Gods) != 2 {
		t.Fatalf("expected 2 gods, got %d", len(snap.Gods))
	}

	ao := snap.Gods[0]
	if ao.Metrics.Examples != 6 || ao.Metrics.HoldoutExamples != 2 {
		t.Errorf("split = %d train / %d holdout, want 6/2",
			ao.Metrics.Examples, ao.Metrics.HoldoutExamples)
	}
	// Both held-out matches are Deathbringer wins, so the label set is
	// degenerate and AUC falls back to 0.5.
	if ao.Metrics.HoldoutAUC != 0.5 {
		t.Errorf("holdout AUC = %v, want 0.5", ao.Metrics.HoldoutAUC)
	}
	if ao.Metrics.HoldoutAccuracy != 1 {
		t.Errorf("holdout accuracy = %v, want 1", ao.Metrics.HoldoutAccuracy)
	}
	// Appearance counts still cover every example, not just train.
	if ao.With[0].Appearances != 6 {
		t.Errorf("appearances = %d, want 6", ao.With[0].Appearances)
	}
}

func TestBuildSkipsThinGods(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)

	cfg := testConfig()
	cfg.MinGodMatches = 50
	b := NewBuilder(s, cfg, zap.NewNop().Sugar())
	snap, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Gods) != 0 {
		t.Errorf("expected no gods below the threshold, got %d", len(snap.Gods))
	}
	if snap.Matches != 8 {
		t.Errorf("snapshot still reports %d matches, want 8", snap.Matches)
	}
}

func TestBuildEmptyStore(t *testing.T) {
	s := newTestStore(t)

	b := NewBuilder(s, testConfig(), zap.NewNop().Sugar())
	snap, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Gods) != 0 || snap.Matches != 0 {
		t.Errorf("empty store produced %d gods / %d matches", len(snap.Gods), snap.Matches)
	}
}
