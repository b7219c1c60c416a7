// Package dataset turns stored match examples into design matrices for the
// per-god models. Feature columns are item indicators in two blocks: items
// the god finished the match with, then items any opponent finished with.
package dataset

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/smitebuilds/recommender/internal/models"
	"github.com/smitebuilds/recommender/internal/store"
)

// Builder screens items against the reference table and assembles design
// matrices. One Builder serves every god in a run.
type Builder struct {
	items          map[int]models.Item
	minTier        int
	minAppearances int
}

// NewBuilder indexes the item reference table. Only finished items of at
// least minTier that show up in at least minAppearances examples become
// feature columns.
func NewBuilder(items []models.Item, minTier, minAppearances int) *Builder {
	idx := make(map[int]models.Item, len(items))
	for _, it := range items {
		idx[it.ItemID] = it
	}
	return &Builder{items: idx, minTier: minTier, minAppearances: minAppearances}
}

// eligible reports whether an item may become a feature column. Actives,
// consumables, starting items and low tiers carry no build signal, and
// console matches sometimes reference items missing from the table.
func (b *Builder) eligible(id int) bool {
	it, ok := b.items[id]
	if !ok {
		return false
	}
	return it.Type == "Item" && !it.StartingItem && it.ItemTier >= b.minTier
}

// Design is the training input for one god. X has one row per example and
// one column per entry of WithItems then AgainstItems; the intercept is the
// model's, not a column.
type Design struct {
	GodID        int
	WithItems    []int
	AgainstItems []int
	X            *mat.Dense
	Y            []float64
	MatchIDs     []int64

	// Appearance counts over all examples, keyed by item ID.
	WithCounts    map[int]int
	AgainstCounts map[int]int
}

// Build assembles the design for one god. The two blocks screen their
// candidate items independently: an item common in the god's own builds may
// still be too rare among its opponents to earn an against column.
func (b *Builder) Build(godID int, examples []store.GodExample) (*Design, error) {
	if len(examples) == 0 {
		return nil, errors.New("no examples")
	}

	withCounts := make(map[int]int)
	againstCounts := make(map[int]int)
	for _, ex := range examples {
		for _, id := range b.presence(ex.OwnItems) {
			withCounts[id]++
		}
		for _, id := range b.presence(ex.EnemyItems) {
			againstCounts[id]++
		}
	}

	withItems := threshold(withCounts, b.minAppearances)
	againstItems := threshold(againstCounts, b.minAppearances)
	if len(withItems)+len(againstItems) == 0 {
		return nil, fmt.Errorf("god %d: no items pass the appearance threshold", godID)
	}

	withCol := make(map[int]int, len(withItems))
	for j, id := range withItems {
		withCol[id] = j
	}
	againstCol := make(map[int]int, len(againstItems))
	for j, id := range againstItems {
		againstCol[id] = len(withItems) + j
	}

	n := len(examples)
	X := mat.NewDense(n, len(withItems)+len(againstItems), nil)
	y := make([]float64, n)
	matchIDs := make([]int64, n)

	for i, ex := range examples {
		for _, id := range b.presence(ex.OwnItems) {
			if j, ok := withCol[id]; ok {
				X.Set(i, j, 1)
			}
		}
		for _, id := range b.presence(ex.EnemyItems) {
			if j, ok := againstCol[id]; ok {
				X.Set(i, j, 1)
			}
		}
		if ex.Won {
			y[i] = 1
		}
		matchIDs[i] = ex.MatchID
	}

	return &Design{
		GodID:         godID,
		WithItems:     withItems,
		AgainstItems:  againstItems,
		X:             X,
		Y:             y,
		MatchIDs:      matchIDs,
		WithCounts:    withCounts,
		AgainstCounts: againstCounts,
	}, nil
}

// presence filters ids down to eligible ones and drops duplicates, so an
// item two opponents built still counts as one appearance.
func (b *Builder) presence(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] || !b.eligible(id) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func threshold(counts map[int]int, min int) []int {
	out := make([]int, 0, len(counts))
	for id, n := range counts {
		if n >= min {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// Split partitions the design by hashing match IDs, so every run and every
// god agrees on which matches are held out. Either side may come back nil
// when no rows land on it.
func Split(d *Design, fraction float64) (train, holdout *Design) {
	if fraction <= 0 {
		return d, nil
	}
	cut := uint64(fraction * 1000)

	var trainIdx, holdIdx []int
	for i, id := range d.MatchIDs {
		if bucket(id) < cut {
			holdIdx = append(holdIdx, i)
		} else {
			trainIdx = append(trainIdx, i)
		}
	}
	return subset(d, trainIdx), subset(d, holdIdx)
}

// bucket maps a match ID onto [0, 1000).
func bucket(matchID int64) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatInt(matchID, 10)))
	return h.Sum64() % 1000
}

func subset(d *Design, idx []int) *Design {
	if len(idx) == 0 {
		return nil
	}
	_, cols := d.X.Dims()
	X := mat.NewDense(len(idx), cols, nil)
	y := make([]float64, len(idx))
	matchIDs := make([]int64, len(idx))
	for row, i := range idx {
		X.SetRow(row, d.X.RawRowView(i))
		y[row] = d.Y[i]
		matchIDs[row] = d.MatchIDs[i]
	}
	return &Design{
		GodID:         d.GodID,
		WithItems:     d.WithItems,
		AgainstItems:  d.AgainstItems,
		X:             X,
		Y:             y,
		MatchIDs:      matchIDs,
		WithCounts:    d.WithCounts,
		AgainstCounts: d.AgainstCounts,
	}
}
