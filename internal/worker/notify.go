package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

const (
	DefaultNotifyCapacity    = 1000
	DefaultNotifyConcurrency = 5
	DefaultEnqueueTimeout    = 100 * time.Millisecond
	defaultHandleTimeout     = 30 * time.Second
)

// NotificationQueue ограниченная очередь событий о новых лотах. Publish
// ждёт не дольше enqueueTimeout, затем событие отбрасывается.
type NotificationQueue struct {
	ch             chan entity.CreatedListing
	enqueueTimeout time.Duration
	metrics        *Metrics
}

func NewNotificationQueue(capacity int, enqueueTimeout time.Duration, metrics *Metrics) *NotificationQueue {
	if capacity <= 0 {
		capacity = DefaultNotifyCapacity
	}
	if enqueueTimeout <= 0 {
		enqueueTimeout = DefaultEnqueueTimeout
	}
	return &NotificationQueue{
		ch:             make(chan entity.CreatedListing, capacity),
		enqueueTimeout: enqueueTimeout,
		metrics:        metrics,
	}
}

// Publish реализует reconcile.Publisher.
func (q *NotificationQueue) Publish(ctx context.Context, event entity.CreatedListing) error {
	select {
	case q.ch <- event:
		q.metrics.NotificationQueueLength.Set(float64(len(q.ch)))
		return nil
	default:
	}

	timer := time.NewTimer(q.enqueueTimeout)
	defer timer.Stop()

	select {
	case q.ch <- event:
		q.metrics.NotificationQueueLength.Set(float64(len(q.ch)))
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	q.metrics.NotificationsDropped.Inc()
	logger(ctx).Warn("notification queue full, event dropped",
		slog.String(logx.FieldListingID, event.Listing.ID.String()),
	)

	return domain.NewError(errcodes.QueueFull, "notification queue is full")
}

func (q *NotificationQueue) Len() int { return len(q.ch) }

func (q *NotificationQueue) Cap() int { return cap(q.ch) }

// EventHandler обрабатывает одно событие о новом лоте.
type EventHandler interface {
	Handle(ctx context.Context, event entity.CreatedListing) error
}

// NotificationDispatcher разбирает очередь уведомлений, обрабатывая не более
// concurrency событий одновременно.
type NotificationDispatcher struct {
	lifecycle

	queue         *NotificationQueue
	handler       EventHandler
	concurrency   int64
	sem           *semaphore.Weighted
	handleTimeout time.Duration
	metrics       *Metrics
}

func NewNotificationDispatcher(queue *NotificationQueue, handler EventHandler, concurrency int, metrics *Metrics) *NotificationDispatcher {
	if concurrency <= 0 {
		concurrency = DefaultNotifyConcurrency
	}
	return &NotificationDispatcher{
		queue:         queue,
		handler:       handler,
		concurrency:   int64(concurrency),
		sem:           semaphore.NewWeighted(int64(concurrency)),
		handleTimeout: defaultHandleTimeout,
		metrics:       metrics,
	}
}

func (d *NotificationDispatcher) Start(ctx context.Context) error {
	return d.start(ctx, "notification dispatcher", d.Run)
}

// Run раздаёт события обработчикам до отмены ctx и дожидается начатых.
func (d *NotificationDispatcher) Run(ctx context.Context) error {
	logger(ctx).Info("notification dispatcher started", slog.Int64("concurrency", d.concurrency))

	defer func() {
		_ = d.sem.Acquire(context.WithoutCancel(ctx), d.concurrency)
		d.sem.Release(d.concurrency)
		logger(ctx).Info("notification dispatcher stopped", slog.Int("dropped", d.queue.Len()))
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-d.queue.ch:
			d.metrics.NotificationQueueLength.Set(float64(d.queue.Len()))

			if err := d.sem.Acquire(ctx, 1); err != nil {
				return ctx.Err()
			}

			go func() {
				defer d.sem.Release(1)
				d.handle(ctx, event)
			}()
		}
	}
}

func (d *NotificationDispatcher) handle(ctx context.Context, event entity.CreatedListing) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.handleTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			logger(ctx).Error("notification handler panicked",
				slog.String(logx.FieldListingID, event.Listing.ID.String()),
				slog.Any("panic", p),
			)
		}
	}()

	if err := d.handler.Handle(ctx, event); err != nil {
		logger(ctx).Error("failed to handle created listing",
			slog.String(logx.FieldListingID, event.Listing.ID.String()),
			logx.Error(err),
		)
	}
}
