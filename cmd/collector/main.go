// Collector walks one or more days of ranked Conquest match IDs, fetches
// their details in batches and stores the normalized participant rows.
// It is meant to run from cron; every run is incremental because already
// stored matches are filtered out before fetching.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smitebuilds/recommender/internal/cache"
	"github.com/smitebuilds/recommender/internal/config"
	"github.com/smitebuilds/recommender/internal/hirez"
	"github.com/smitebuilds/recommender/internal/models"
	"github.com/smitebuilds/recommender/internal/store"
	"github.com/smitebuilds/recommender/internal/worker"
)

func main() {
	cfg, err := config.LoadCollector()
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

	client := hirez.NewClient(cfg.DevID, cfg.AuthKey, cfg.Language, sugar)
	endpoint, err := hirez.EndpointForName(cfg.Endpoint)
	if err != nil {
		sugar.Fatalw("Bad endpoint", "endpoint", cfg.Endpoint, "error", err)
	}
	client.SetEndpoint(endpoint)
	client.SetSessionTTL(cfg.SessionTTL)
	client.SetRateLimit(cfg.RequestsPerMinute)

	// Redis is optional: without it every batch is fetched from the API.
	var respCache *cache.Cache
	if opts, err := redis.ParseURL(cfg.RedisURL); err == nil {
		rdb := redis.NewClient(opts)
		c := cache.New(rdb, cfg.CacheTTL, sugar)
		if err := c.Ping(ctx); err != nil {
			sugar.Warnw("Redis unreachable, collecting uncached", "error", err)
			rdb.Close()
		} else {
			respCache = c
			defer rdb.Close()
		}
	} else {
		sugar.Warnw("Bad Redis URL, collecting uncached", "url", cfg.RedisURL, "error", err)
	}

	if err := refreshReference(ctx, client, db, sugar); err != nil {
		sugar.Fatalw("Failed to refresh reference tables", "error", err)
	}

	poolCfg := worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Fetcher:       client,
		Store:         db,
		Logger:        logger,
	}
	if respCache != nil {
		poolCfg.Cache = respCache
	}
	pool := worker.NewPool(poolCfg)
	pool.Start(ctx)

	dates := cfg.CollectDates
	if len(dates) == 0 {
		dates = []string{hirez.Yesterday()}
	}

	enqueued := 0
	for _, date := range dates {
		for _, hour := range cfg.CollectHours {
			if ctx.Err() != nil {
				break
			}
			n, err := collectWindow(ctx, client, db, respCache, pool, cfg.QueueID, date, hour, sugar)
			if err != nil {
				sugar.Errorw("Window collection failed", "date", date, "hour", hour, "error", err)
				continue
			}
			enqueued += n
		}
	}

	// Stop drains the queue, so every enqueued batch is fetched and
	// flushed before the process exits.
	pool.Stop()

	matches, _ := db.CountMatches(context.Background())
	participants, _ := db.CountParticipants(context.Background())
	sugar.Infow("Collection run complete",
		"dates", dates,
		"enqueuedMatches", enqueued,
		"storedMatches", matches,
		"storedParticipants", participants,
	)

	if usage, err := client.GetDataUsed(context.Background()); err == nil {
		sugar.Infow("API quota",
			"requestsToday", usage.TotalRequestsToday,
			"dailyLimit", usage.RequestLimitDaily,
			"sessionsToday", usage.TotalSessionsToday,
		)
	}
}

// refreshReference replaces the god and item tables. Both fetches run in
// parallel; either failing aborts the run because training needs them.
func refreshReference(ctx context.Context, client *hirez.Client, db *store.Store, sugar *zap.SugaredLogger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		gods, err := client.GetGods(ctx)
		if err != nil {
			return err
		}
		if err := db.ReplaceGods(ctx, gods); err != nil {
			return err
		}
		sugar.Infow("Refreshed gods", "count", len(gods))
		return nil
	})

	g.Go(func() error {
		items, err := client.GetItems(ctx)
		if err != nil {
			return err
		}
		if err := db.ReplaceItems(ctx, items); err != nil {
			return err
		}
		sugar.Infow("Refreshed items", "count", len(items))
		return nil
	})

	return g.Wait()
}

// collectWindow lists one date/hour window of match IDs, drops matches that
// are still live or already stored, and enqueues the rest in batches of ten.
func collectWindow(ctx context.Context, client *hirez.Client, db *store.Store, respCache *cache.Cache, pool *worker.Pool, queue int, date, hour string, sugar *zap.SugaredLogger) (int, error) {
	var entries []models.MatchIDEntry
	cached := false
	if respCache != nil {
		entries, cached = respCache.MatchIDs(ctx, queue, date, hour)
	}
	if !cached {
		var err error
		entries, err = client.GetMatchIDsByQueue(ctx, queue, date, hour)
		if err != nil {
			return 0, err
		}
		if respCache != nil {
			respCache.StoreMatchIDs(ctx, queue, date, hour, entries)
		}
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.ActiveFlag == "y" || e.Match == "" {
			continue
		}
		ids = append(ids, e.Match)
	}

	fresh, err := db.FilterNewMatchIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	sugar.Infow("Window listed",
		"date", date,
		"hour", hour,
		"listed", len(entries),
		"completed", len(ids),
		"new", len(fresh),
	)

	for _, batch := range chunkIDs(fresh, 10) {
		if !pool.Enqueue(batch) {
			return 0, ctx.Err()
		}
	}
	return len(fresh), nil
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func newLogger(env string) *zap.Logger {
	if env == "development" {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}
