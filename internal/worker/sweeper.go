package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultStaleAfter    = 10 * time.Minute
)

type StaleDeactivator interface {
	BulkDeactivateStale(ctx context.Context, threshold time.Time, now time.Time) (int64, error)
}

// Sweeper периодически снимает с продажи лоты, которые давно не
// наблюдались.
type Sweeper struct {
	lifecycle

	store      StaleDeactivator
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
	metrics    *Metrics
}

func NewSweeper(store StaleDeactivator, metrics *Metrics) *Sweeper {
	return &Sweeper{
		store:      store,
		interval:   DefaultSweepInterval,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
		metrics:    metrics,
	}
}

func (w *Sweeper) WithSchedule(interval, staleAfter time.Duration) *Sweeper {
	if interval > 0 {
		w.interval = interval
	}
	if staleAfter > 0 {
		w.staleAfter = staleAfter
	}
	return w
}

func (w *Sweeper) WithClock(now func() time.Time) *Sweeper {
	w.now = now
	return w
}

func (w *Sweeper) Start(ctx context.Context) error {
	return w.start(ctx, "sweeper", w.Run)
}

// Run выполняет проход каждые interval. Ошибка прохода не останавливает
// следующие.
func (w *Sweeper) Run(ctx context.Context) error {
	logger(ctx).Info("sweeper started",
		slog.Duration("interval", w.interval),
		slog.Duration("stale-after", w.staleAfter),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				logger(ctx).Error("sweep failed", logx.Error(err))
			}
		}
	}
}

// Sweep выполняет один проход и возвращает число снятых лотов.
func (w *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := w.now().UTC()

	n, err := w.store.BulkDeactivateStale(ctx, now.Add(-w.staleAfter), now)
	if err != nil {
		return 0, err
	}

	w.metrics.ListingsDeactivated.Add(float64(n))

	if n > 0 {
		logger(ctx).Info("stale listings deactivated", slog.Int64("count", n))
	}

	return n, nil
}
