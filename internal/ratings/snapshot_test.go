package ratings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smitebuilds/recommender/internal/models"
)

func sampleSnapshot() *models.RatingsSnapshot {
	return &models.RatingsSnapshot{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		QueueID:     426,
		Params:      models.FitParams{Lambda: 0.1, MaxIterations: 500},
		Matches:     2,
		Participants: 4,
		Gods: []models.GodRatings{
			{
				GodID:   1672,
				GodName: "Ao Kuang",
				Matches: 2,
				Wins:    1,
				With: []models.ItemRating{
					{ItemID: 19692, ItemName: "Deathbringer", Coefficient: 0.42, Odds: 1.52, Appearances: 2},
				},
			},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.json")
	snap := sampleSnapshot()

	body, err := Encode(snap)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := WriteFile(path, body); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunID != snap.RunID {
		t.Errorf("run ID = %q, want %q", got.RunID, snap.RunID)
	}
	if len(got.Gods) != 1 || got.Gods[0].GodName != "Ao Kuang" {
		t.Errorf("gods = %+v", got.Gods)
	}
	if got.Gods[0].With[0].ItemID != 19692 {
		t.Errorf("with table = %+v", got.Gods[0].With)
	}
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ratings.json")

	first := sampleSnapshot()
	second := sampleSnapshot()
	for _, snap := range []*models.RatingsSnapshot{first, second} {
		body, err := Encode(snap)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if err := WriteFile(path, body); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunID != second.RunID {
		t.Errorf("run ID = %q, want the second write %q", got.RunID, second.RunID)
	}

	// No temp files left behind.
	leftovers, err := filepath.Glob(filepath.Join(dir, ".ratings-*"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestDecodeRejectsBadBodies(t *testing.T) {
	if _, err := Decode([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
	if _, err := Decode([]byte(`{"queue_id": 426}`)); err == nil {
		t.Error("expected validation error for a snapshot without a run ID")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(nil)
	if h.Get() != nil {
		t.Error("expected nil before the first load")
	}

	snap := sampleSnapshot()
	h.Set(snap)
	if h.Get() != snap {
		t.Error("holder did not hand back the snapshot it was given")
	}
}
