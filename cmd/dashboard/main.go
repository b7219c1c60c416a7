// Dashboard serves the ratings snapshot over HTTP: an HTML index plus the
// JSON API. The snapshot file is watched, so a trainer run shows up
// without a restart.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/cache"
	"github.com/smitebuilds/recommender/internal/config"
	"github.com/smitebuilds/recommender/internal/handlers"
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

	holder := ratings.NewHolder(nil)
	if snap, err := ratings.Load(cfg.ResultsPath); err == nil {
		holder.Set(snap)
		sugar.Infow("Loaded ratings snapshot", "path", cfg.ResultsPath, "runID", snap.RunID, "gods", len(snap.Gods))
	} else if os.IsNotExist(err) {
		// The file may be gone after a redeploy; the store archives every run.
		if body, serr := db.LatestSnapshot(ctx); serr == nil && body != nil {
			if snap, derr := ratings.Decode(body); derr == nil {
				holder.Set(snap)
				sugar.Infow("Restored snapshot from store", "runID", snap.RunID, "gods", len(snap.Gods))
			} else {
				sugar.Warnw("Archived snapshot unreadable", "error", derr)
			}
		} else {
			sugar.Infow("No snapshot yet, serving empty until the trainer runs", "path", cfg.ResultsPath)
		}
	} else {
		sugar.Warnw("Failed to load snapshot", "path", cfg.ResultsPath, "error", err)
	}

	watcher, err := ratings.NewWatcher(cfg.ResultsPath, holder.Set, sugar)
	if err != nil {
		sugar.Warnw("Snapshot watching disabled", "path", cfg.ResultsPath, "error", err)
	} else {
		defer watcher.Close()
	}

	handlerCfg := handlers.Config{
		Ratings:        holder,
		Store:          db,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	}

	// Redis only speeds up the hot endpoints; the dashboard serves fine
	// without it.
	if opts, err := redis.ParseURL(cfg.RedisURL); err == nil {
		rdb := redis.NewClient(opts)
		c := cache.New(rdb, cfg.CacheTTL, sugar)
		if err := c.Ping(ctx); err != nil {
			sugar.Warnw("Redis unreachable, serving uncached", "error", err)
			rdb.Close()
		} else {
			handlerCfg.Cache = c
			defer rdb.Close()
		}
	} else {
		sugar.Warnw("Bad Redis URL, serving uncached", "url", cfg.RedisURL, "error", err)
	}

	h := handlers.New(handlerCfg)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("Dashboard listening", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Forced shutdown", "error", err)
	}
	sugar.Info("Dashboard stopped")
}

func newLogger(env string) *zap.Logger {
	if env == "development" {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}
