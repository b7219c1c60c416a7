// Package ratings fits every qualifying god's model and assembles the
// snapshot file the dashboard and the explorer serve.
package ratings

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smitebuilds/recommender/internal/dataset"
	"github.com/smitebuilds/recommender/internal/model"
	"github.com/smitebuilds/recommender/internal/models"
	"github.com/smitebuilds/recommender/internal/store"
)

// BuilderConfig carries the fit hyperparameters and the run metadata that
// ends up in the snapshot.
type BuilderConfig struct {
	Lambda             float64
	MaxIterations      int
	MinGodMatches      int
	MinItemAppearances int
	MinItemTier        int
	HoldoutFraction    float64
	Parallelism        int
	QueueID            int
	Dates              []string
	PatchVersion       string
}

// Builder runs one training pass over the stored dataset.
type Builder struct {
	store  *store.Store
	cfg    BuilderConfig
	logger *zap.SugaredLogger
}

// NewBuilder creates a Builder over an opened store.
func NewBuilder(st *store.Store, cfg BuilderConfig, logger *zap.SugaredLogger) *Builder {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	return &Builder{store: st, cfg: cfg, logger: logger}
}

// Build fits a model per god and assembles the snapshot. Gods below the
// match threshold or without usable features are skipped, not fatal; the
// snapshot carries whatever gods survived.
func (b *Builder) Build(ctx context.Context) (*models.RatingsSnapshot, error) {
	gods, err := b.store.Gods(ctx)
	if err != nil {
		return nil, err
	}
	items, err := b.store.Items(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := b.store.GodMatchCounts(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := b.store.CountMatches(ctx)
	if err != nil {
		return nil, err
	}
	participants, err := b.store.CountParticipants(ctx)
	if err != nil {
		return nil, err
	}

	itemNames := make(map[int]string, len(items))
	for _, it := range items {
		itemNames[it.ItemID] = it.DeviceName
	}
	db := dataset.NewBuilder(items, b.cfg.MinItemTier, b.cfg.MinItemAppearances)

	// Gods come back ordered by name; results keeps that order without a
	// mutex because every goroutine owns its own slot.
	results := make([]*models.GodRatings, len(gods))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.cfg.Parallelism)
	for i, god := range gods {
		if counts[god.ID] < b.cfg.MinGodMatches {
			b.logger.Debugw("Skipping god below match threshold",
				"god", god.Name, "matches", counts[god.ID], "needed", b.cfg.MinGodMatches)
			continue
		}
		eg.Go(func() error {
			examples, err := b.store.ExamplesByGod(gctx, god.ID)
			if err != nil {
				return err
			}
			results[i] = b.fitGod(god, examples, db, itemNames)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	snap := &models.RatingsSnapshot{
		RunID:        uuid.New().String(),
		GeneratedAt:  time.Now().UTC(),
		PatchVersion: b.cfg.PatchVersion,
		QueueID:      b.cfg.QueueID,
		Dates:        b.cfg.Dates,
		Params: models.FitParams{
			Lambda:             b.cfg.Lambda,
			MaxIterations:      b.cfg.MaxIterations,
			MinGodMatches:      b.cfg.MinGodMatches,
			MinItemAppearances: b.cfg.MinItemAppearances,
			MinItemTier:        b.cfg.MinItemTier,
			HoldoutFraction:    b.cfg.HoldoutFraction,
		},
		Matches:      matches,
		Participants: participants,
	}
	for _, gr := range results {
		if gr != nil {
			snap.Gods = append(snap.Gods, *gr)
		}
	}

	b.logger.Infow("Training run complete",
		"run_id", snap.RunID,
		"gods", len(snap.Gods),
		"matches", matches,
		"participants", participants)
	return snap, nil
}

// fitGod trains one god. A nil return means the god was skipped.
func (b *Builder) fitGod(god models.God, examples []store.GodExample, db *dataset.Builder, itemNames map[int]string) *models.GodRatings {
	d, err := db.Build(god.ID, examples)
	if err != nil {
		b.logger.Warnw("Skipping god with no usable features", "god", god.Name, "error", err)
		return nil
	}

	train, holdout := dataset.Split(d, b.cfg.HoldoutFraction)
	if train == nil {
		b.logger.Warnw("Skipping god with every match held out", "god", god.Name)
		return nil
	}

	fit, err := model.Train(train.X, train.Y, model.Options{
		Lambda:        b.cfg.Lambda,
		MaxIterations: b.cfg.MaxIterations,
	})
	if err != nil {
		b.logger.Warnw("Fit failed", "god", god.Name, "error", err)
		return nil
	}

	probs := fit.PredictAll(train.X)
	metrics := models.FitMetrics{
		Examples:   len(train.Y),
		Features:   len(d.WithItems) + len(d.AgainstItems),
		Iterations: fit.Iterations,
		Converged:  fit.Converged,
		LogLoss:    model.LogLoss(probs, train.Y),
		Accuracy:   model.Accuracy(probs, train.Y),
		AUC:        model.AUC(probs, train.Y),
	}
	if holdout != nil {
		hp := fit.PredictAll(holdout.X)
		metrics.HoldoutExamples = len(holdout.Y)
		metrics.HoldoutLogLoss = model.LogLoss(hp, holdout.Y)
		metrics.HoldoutAccuracy = model.Accuracy(hp, holdout.Y)
		metrics.HoldoutAUC = model.AUC(hp, holdout.Y)
	}

	var wins int
	for _, label := range d.Y {
		if label == 1 {
			wins++
		}
	}

	gr := &models.GodRatings{
		GodID:   god.ID,
		GodName: god.Name,
		Matches: len(d.Y),
		Wins:    wins,
		Metrics: metrics,
		With:    ratingTable(d.WithItems, fit.Weights[1:1+len(d.WithItems)], d.WithCounts, itemNames),
		Against: ratingTable(d.AgainstItems, fit.Weights[1+len(d.WithItems):], d.AgainstCounts, itemNames),
	}
	// Best buys first; for enemy items the most dangerous first.
	sort.Slice(gr.With, func(x, y int) bool { return gr.With[x].Coefficient > gr.With[y].Coefficient })
	sort.Slice(gr.Against, func(x, y int) bool { return gr.Against[x].Coefficient < gr.Against[y].Coefficient })

	b.logger.Infow("Fitted god",
		"god", god.Name,
		"examples", metrics.Examples,
		"features", metrics.Features,
		"accuracy", metrics.Accuracy,
		"holdout_auc", metrics.HoldoutAUC,
		"converged", metrics.Converged)
	return gr
}

func ratingTable(itemIDs []int, weights []float64, counts map[int]int, names map[int]string) []models.ItemRating {
	out := make([]models.ItemRating, 0, len(itemIDs))
	for j, id := range itemIDs {
		out = append(out, models.ItemRating{
			ItemID:      id,
			ItemName:    names[id],
			Coefficient: weights[j],
			Odds:        math.Exp(weights[j]),
			Appearances: counts[id],
		})
	}
	return out
}
