package worker

import (
	"context"
	"time"

	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

const DefaultStatsInterval = time.Minute

type ListingCounter interface {
	CountListings(ctx context.Context) (int64, int64, error)
}

// ListingStatsCollector обновляет метрики числа лотов.
type ListingStatsCollector struct {
	store    ListingCounter
	interval time.Duration
	metrics  *Metrics
}

func NewListingStatsCollector(store ListingCounter, interval time.Duration, metrics *Metrics) *ListingStatsCollector {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	return &ListingStatsCollector{
		store:    store,
		interval: interval,
		metrics:  metrics,
	}
}

func (c *ListingStatsCollector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.Collect(ctx); err != nil {
			logger(ctx).Error("failed to collect listing stats", logx.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *ListingStatsCollector) Collect(ctx context.Context) error {
	total, active, err := c.store.CountListings(ctx)
	if err != nil {
		return err
	}

	c.metrics.ListingsTotal.Set(float64(total))
	c.metrics.ListingsActive.Set(float64(active))

	return nil
}
