package modules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Background модуль фоновой задачи, работающей до отмены ctx. Отмена
// не считается ошибкой.
type Background struct {
	Name string
	Task func(ctx context.Context) error
}

func (b Background) Run(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		logger(ctx).Info("background task started", slog.String("task", b.Name))

		if err := b.Task(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: %w", b.Name, err)
		}

		logger(ctx).Info("background task stopped", slog.String("task", b.Name))

		return nil
	})
}
