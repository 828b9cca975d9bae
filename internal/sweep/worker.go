package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type ProfileExpirer interface {
	ExpireProfiles(ctx context.Context) (int64, error)
}

type TimeoutSweeper interface {
	SweepTimeouts(ctx context.Context, limit int) (int, error)
}

// CounterCleaner prunes attempt events older than the counter retention.
type CounterCleaner interface {
	Cleanup(ctx context.Context, now time.Time) (int64, error)
}

// Worker periodically expires face profiles, fails operations that outlived
// their timeout and prunes old attempt events.
type Worker struct {
	profiles ProfileExpirer
	timeouts TimeoutSweeper
	cleaner  CounterCleaner
	logger   *slog.Logger

	interval  time.Duration
	batchSize int
	runBudget time.Duration

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type Config struct {
	Interval  time.Duration // Time between sweeps (default: 1 minute)
	BatchSize int           // Max operations failed per sweep (default: 500)
	RunBudget time.Duration // Deadline of one sweep (default: 30 seconds)
}

func DefaultConfig() Config {
	return Config{
		Interval:  time.Minute,
		BatchSize: 500,
		RunBudget: 30 * time.Second,
	}
}

// NewWorker builds a worker. cleaner may be nil when the counter backend
// expires entries itself.
func NewWorker(profiles ProfileExpirer, timeouts TimeoutSweeper, cleaner CounterCleaner, logger *slog.Logger, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.RunBudget <= 0 {
		cfg.RunBudget = 30 * time.Second
	}

	return &Worker{
		profiles:  profiles,
		timeouts:  timeouts,
		cleaner:   cleaner,
		logger:    logger.With("component", "sweep"),
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		runBudget: cfg.RunBudget,
		done:      make(chan struct{}),
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
	w.logger.Info("sweep worker started", "interval", w.interval, "batch_size", w.batchSize)
}

// Stop waits for a running sweep to finish. It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		w.logger.Info("sweep worker stopped")
	})
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), w.runBudget)
			w.RunOnce(ctx)
			cancel()
		}
	}
}

// Result counts what one sweep changed.
type Result struct {
	ExpiredProfiles int64
	TimedOut        int
	PrunedAttempts  int64
}

// RunOnce performs a single sweep. A failing step is logged and does not
// stop the others.
func (w *Worker) RunOnce(ctx context.Context) Result {
	var res Result
	var err error

	if w.profiles != nil {
		if res.ExpiredProfiles, err = w.profiles.ExpireProfiles(ctx); err != nil {
			w.logger.Error("profile expiry sweep failed", "error", err)
		}
	}

	if w.timeouts != nil {
		if res.TimedOut, err = w.timeouts.SweepTimeouts(ctx, w.batchSize); err != nil {
			w.logger.Error("operation timeout sweep failed", "error", err)
		}
	}

	if w.cleaner != nil {
		if res.PrunedAttempts, err = w.cleaner.Cleanup(ctx, time.Now()); err != nil {
			w.logger.Error("attempt counter cleanup failed", "error", err)
		}
	}

	if res.ExpiredProfiles > 0 || res.TimedOut > 0 || res.PrunedAttempts > 0 {
		w.logger.Info("sweep finished",
			"expired_profiles", res.ExpiredProfiles,
			"timed_out_operations", res.TimedOut,
			"pruned_attempts", res.PrunedAttempts,
		)
	}
	return res
}
