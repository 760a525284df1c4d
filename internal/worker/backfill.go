package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/relic"
)

const (
	DefaultBackfillBatch = 1000
	DefaultBackfillDelay = 30 * time.Second
)

type HashStore interface {
	ListWithoutHash(ctx context.Context, limit int) ([]entity.Listing, error)
	SetHash(ctx context.Context, id uuid.UUID, hash string) error
}

// HashBackfill досчитывает хеш характеристик для строк, где он не задан.
type HashBackfill struct {
	store     HashStore
	batchSize int
	delay     time.Duration
}

func NewHashBackfill(store HashStore) *HashBackfill {
	return &HashBackfill{
		store:     store,
		batchSize: DefaultBackfillBatch,
		delay:     DefaultBackfillDelay,
	}
}

func (b *HashBackfill) WithBatch(size int, delay time.Duration) *HashBackfill {
	if size > 0 {
		b.batchSize = size
	}
	if delay >= 0 {
		b.delay = delay
	}
	return b
}

// Run ждёт delay и выполняет Backfill один раз.
func (b *HashBackfill) Run(ctx context.Context) error {
	if b.delay > 0 {
		timer := time.NewTimer(b.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	n, err := b.Backfill(ctx)
	if err != nil {
		return fmt.Errorf("hash backfill: %w", err)
	}

	logger(ctx).Info("hash backfill finished", slog.Int("updated", n))

	return nil
}

// Backfill обрабатывает строки пачками по batchSize, пока они не кончатся.
func (b *HashBackfill) Backfill(ctx context.Context) (int, error) {
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		listings, err := b.store.ListWithoutHash(ctx, b.batchSize)
		if err != nil {
			return total, err
		}

		for _, l := range listings {
			if err := b.store.SetHash(ctx, l.ID, relic.HashAttributes(l.Attributes)); err != nil {
				return total, err
			}
			total++
		}

		if len(listings) < b.batchSize {
			return total, nil
		}
	}
}
