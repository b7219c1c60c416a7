package ratings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/smitebuilds/recommender/internal/models"
)

var validate = validator.New()

// Encode renders a snapshot as indented JSON, stable enough to diff
// between runs.
func Encode(snap *models.RatingsSnapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Decode parses and validates a snapshot body.
func Decode(body []byte) (*models.RatingsSnapshot, error) {
	var snap models.RatingsSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := validate.Struct(&snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return &snap, nil
}

// Load reads and validates the snapshot at path.
func Load(path string) (*models.RatingsSnapshot, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

// WriteFile writes body to path through a temp file in the same directory
// and a rename, so readers never see a half-written snapshot.
func WriteFile(path string, body []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ratings-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Holder hands the current snapshot to concurrent readers and lets the
// watcher swap in a fresh one.
type Holder struct {
	mu   sync.RWMutex
	snap *models.RatingsSnapshot
}

// NewHolder seeds the holder, possibly with nil when no snapshot exists yet.
func NewHolder(snap *models.RatingsSnapshot) *Holder {
	return &Holder{snap: snap}
}

// Get returns the current snapshot or nil before the first load.
func (h *Holder) Get() *models.RatingsSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Set swaps in a new snapshot.
func (h *Holder) Set(snap *models.RatingsSnapshot) {
	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
}
