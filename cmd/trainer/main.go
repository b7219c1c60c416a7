// Trainer fits one logistic model per god from the stored matches and
// writes the ratings snapshot the dashboard serves. It reads only the
// local store, so it can rerun freely without spending API quota.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/config"
	"github.com/smitebuilds/recommender/internal/hirez"
	"github.com/smitebuilds/recommender/internal/ratings"
	"github.com/smitebuilds/recommender/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env)
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBPath, sugar)
	if err != nil {
		sugar.Fatalw("Failed to open store", "path", cfg.DBPath, "error", err)
	}
	defer db.Close()

	builder := ratings.NewBuilder(db, ratings.BuilderConfig{
		Lambda:             cfg.Lambda,
		MaxIterations:      cfg.MaxIterations,
		MinGodMatches:      cfg.MinGodMatches,
		MinItemAppearances: cfg.MinItemAppearances,
		MinItemTier:        cfg.MinItemTier,
		HoldoutFraction:    cfg.HoldoutFraction,
		Parallelism:        cfg.FitParallelism,
		QueueID:            cfg.QueueID,
		Dates:              cfg.CollectDates,
		PatchVersion:       patchVersion(ctx, cfg, sugar),
	}, sugar)

	start := time.Now()
	snap, err := builder.Build(ctx)
	if err != nil {
		sugar.Fatalw("Training failed", "error", err)
	}

	body, err := ratings.Encode(snap)
	if err != nil {
		sugar.Fatalw("Failed to encode snapshot", "error", err)
	}
	if err := ratings.WriteFile(cfg.ResultsPath, body); err != nil {
		sugar.Fatalw("Failed to write snapshot", "path", cfg.ResultsPath, "error", err)
	}
	if err := db.SaveSnapshot(context.Background(), snap.RunID, body); err != nil {
		sugar.Warnw("Failed to archive snapshot in store", "error", err)
	}

	sugar.Infow("Snapshot written",
		"path", cfg.ResultsPath,
		"runID", snap.RunID,
		"gods", len(snap.Gods),
		"matches", snap.Matches,
		"bytes", len(body),
		"duration", time.Since(start),
	)
}

// patchVersion stamps the snapshot with the live patch when credentials are
// present. Training itself never talks to the API, so this stays optional.
func patchVersion(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) string {
	devID := os.Getenv("SMITE_DEV_ID")
	authKey := os.Getenv("SMITE_AUTH_KEY")
	if devID == "" || authKey == "" {
		return ""
	}

	client := hirez.NewClient(devID, authKey, cfg.Language, sugar)
	if endpoint, err := hirez.EndpointForName(cfg.Endpoint); err == nil {
		client.SetEndpoint(endpoint)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	info, err := client.GetPatchInfo(ctx)
	if err != nil {
		sugar.Warnw("Failed to fetch patch info", "error", err)
		return ""
	}
	return info.VersionString
}

func newLogger(env string) *zap.Logger {
	if env == "development" {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}
