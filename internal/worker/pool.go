// Package worker implements the buffered worker pool that turns queued
// match IDs into stored participant rows. It decouples the quota-paced
// API fetches from database writes, providing:
// - Bounded concurrency against the Hi-Rez API
// - Batch inserts into the dataset store
// - Graceful shutdown that drains the queue and flushes
package worker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/models"
)

// Prometheus metrics
var (
	apiRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smite_api_requests_total",
		Help: "Total number of match detail requests sent to the Hi-Rez API",
	})

	apiErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smite_api_errors_total",
		Help: "Total number of failed Hi-Rez API requests",
	})

	matchesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smite_matches_fetched_total",
		Help: "Total number of matches fetched and parsed",
	})

	participantsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smite_participants_stored_total",
		Help: "Total number of participant rows written to the store",
	})

	storeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smite_store_failures_total",
		Help: "Total number of failed store flushes",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smite_fetch_queue_depth",
		Help: "Current depth of the match fetch queue",
	})

	flushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smite_store_flush_duration_seconds",
		Help:    "Duration of batch inserts into the dataset store",
		Buckets: prometheus.DefBuckets,
	})
)

// Job is one unit of work: up to ten match IDs fetched in a single
// getmatchdetailsbatch call.
type Job struct {
	MatchIDs []string
}

// MatchFetcher fetches participant rows for a batch of match IDs.
type MatchFetcher interface {
	GetMatchDetailsBatch(ctx context.Context, matchIDs []string) ([]models.MatchPlayer, error)
}

// ParticipantStore persists parsed participant records.
type ParticipantStore interface {
	InsertParticipants(ctx context.Context, records []models.ParticipantRecord) error
}

// BatchCache serves match detail responses fetched on a previous run.
type BatchCache interface {
	MatchBatch(ctx context.Context, idsKey string) ([]models.MatchPlayer, bool)
	StoreMatchBatch(ctx context.Context, idsKey string, players []models.MatchPlayer)
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Fetcher       MatchFetcher
	Store         ParticipantStore
	Cache         BatchCache       // optional
	Logger        *zap.Logger
}

// Pool manages the fetch workers.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger

	stopMu  sync.Mutex
	stopped bool
}

// NewPool creates a new worker pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop drains the queue, flushes pending records and shuts the pool down.
// Jobs already enqueued are still fetched unless the outer context dies.
func (p *Pool) Stop() {
	p.stopMu.Lock()
	if p.stopped {
		p.stopMu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.stopMu.Unlock()

	p.logger.Info("Stopping worker pool...")
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds a job to the queue, blocking while the queue is full so a
// fast producer cannot outrun the quota-paced fetchers. It returns false
// once the pool is stopping.
func (p *Pool) Enqueue(matchIDs []string) bool {
	if len(matchIDs) == 0 {
		return true
	}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue batch (pool stopped)", "error", r)
		}
	}()

	select {
	case p.jobQueue <- Job{MatchIDs: matchIDs}:
		return true
	case <-p.ctx.Done():
		p.logger.Warn("Worker pool context canceled, dropping batch")
		return false
	}
}

// QueueDepth returns current queue size.
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker fetches jobs from the queue and flushes parsed records in batches.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]models.ParticipantRecord, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.config.Store.InsertParticipants(context.Background(), batch); err != nil {
			p.logger.Errorw("Store flush failed",
				"worker", id,
				"records", len(batch),
				"error", err,
			)
			storeFailures.Inc()
		} else {
			p.logger.Infow("Flushed batch", "worker", id, "records", len(batch), "duration", time.Since(start))
			participantsStored.Add(float64(len(batch)))
		}
		flushDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}

			records := p.fetchJob(job)
			batch = append(batch, records...)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			flush()
			return
		}
	}
}

// fetchJob resolves one batch of match IDs into participant records, via
// the cache when possible.
func (p *Pool) fetchJob(job Job) []models.ParticipantRecord {
	idsKey := strings.Join(job.MatchIDs, ",")

	var players []models.MatchPlayer
	cached := false
	if p.config.Cache != nil {
		players, cached = p.config.Cache.MatchBatch(p.ctx, idsKey)
	}

	if !cached {
		var err error
		apiRequests.Inc()
		players, err = p.config.Fetcher.GetMatchDetailsBatch(p.ctx, job.MatchIDs)
		if err != nil {
			apiErrors.Inc()
			p.logger.Errorw("Match batch fetch failed",
				"matches", len(job.MatchIDs),
				"first", job.MatchIDs[0],
				"error", err,
			)
			return nil
		}
		if p.config.Cache != nil {
			p.config.Cache.StoreMatchBatch(p.ctx, idsKey, players)
		}
	}

	records := make([]models.ParticipantRecord, 0, len(players))
	seen := make(map[int64]bool)
	for i := range players {
		pl := &players[i]
		// Row-level errors and privacy-nulled rows come back with a
		// ret_msg or a zeroed god.
		if pl.RetMsg != "" || pl.Match == 0 || pl.GodID == 0 {
			continue
		}
		records = append(records, pl.ToRecord())
		if !seen[pl.Match] {
			seen[pl.Match] = true
			matchesFetched.Inc()
		}
	}
	return records
}

// reportQueueDepth updates the queue depth gauge until the pool stops.
func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			queueDepth.Set(0)
			return
		}
	}
}
