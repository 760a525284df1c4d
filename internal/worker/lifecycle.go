package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

// lifecycle управляет фоновым запуском воркера.
type lifecycle struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func (l *lifecycle) start(ctx context.Context, name string, run func(context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isRunning {
		return fmt.Errorf("%s is already running", name)
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancelFunc = cancel
	l.isRunning = true

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			l.mu.Lock()
			l.isRunning = false
			l.cancelFunc = nil
			l.mu.Unlock()
		}()

		if err := run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(ctx).Error("worker stopped with error", slog.String("worker", name), logx.Error(err))
		}
	}()

	return nil
}

// Stop отменяет контекст воркера и ждёт завершения.
func (l *lifecycle) Stop() {
	l.mu.Lock()

	if !l.isRunning {
		l.mu.Unlock()
		return
	}

	if l.cancelFunc != nil {
		l.cancelFunc()
	}
	l.mu.Unlock()

	l.wg.Wait()
}

// IsRunning возвращает текущий статус.
func (l *lifecycle) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isRunning
}
