package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/reconcile"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

const (
	DefaultIngestCapacity = 2000
	DefaultBatchSize      = 100
	DefaultFlushInterval  = 500 * time.Millisecond
)

// IngestQueue ограниченная очередь пакетов на разбор. При заполнении
// Enqueue блокируется.
type IngestQueue struct {
	ch      chan entity.ParseRequest
	metrics *Metrics
}

func NewIngestQueue(capacity int, metrics *Metrics) *IngestQueue {
	if capacity <= 0 {
		capacity = DefaultIngestCapacity
	}
	return &IngestQueue{
		ch:      make(chan entity.ParseRequest, capacity),
		metrics: metrics,
	}
}

// Enqueue ставит пакет в очередь, ожидая свободного места до отмены ctx.
func (q *IngestQueue) Enqueue(ctx context.Context, req entity.ParseRequest) error {
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = time.Now()
	}

	select {
	case q.ch <- req:
		q.metrics.ParseQueueLength.Set(float64(len(q.ch)))
		return nil
	case <-ctx.Done():
		logger(ctx).Warn("ingest queue full, packet rejected",
			slog.String(logx.FieldServerKey, req.ServerKey),
			slog.Int(logx.FieldPayloadSize, len(req.Payload)),
		)
		return domain.WrapError(ctx.Err(), errcodes.QueueFull, "ingest queue is full")
	}
}

func (q *IngestQueue) Len() int { return len(q.ch) }

func (q *IngestQueue) Cap() int { return cap(q.ch) }

type Reconciler interface {
	Reconcile(ctx context.Context, batch []reconcile.Observation) (reconcile.Result, error)
}

// Decoder разбирает пакет магазина в список лотов.
type Decoder func(payload []byte) ([]entity.DecodedLot, error)

// BatchConsumer забирает пакеты из очереди пачками и передаёт их на
// сверку. Пачки обрабатываются строго последовательно.
type BatchConsumer struct {
	lifecycle

	queue      *IngestQueue
	reconciler Reconciler
	decode     Decoder
	metrics    *Metrics

	batchSize     int
	flushInterval time.Duration
}

func NewBatchConsumer(queue *IngestQueue, reconciler Reconciler, decode Decoder, metrics *Metrics) *BatchConsumer {
	return &BatchConsumer{
		queue:         queue,
		reconciler:    reconciler,
		decode:        decode,
		metrics:       metrics,
		batchSize:     DefaultBatchSize,
		flushInterval: DefaultFlushInterval,
	}
}

func (c *BatchConsumer) WithBatching(size int, flushInterval time.Duration) *BatchConsumer {
	if size > 0 {
		c.batchSize = size
	}
	if flushInterval > 0 {
		c.flushInterval = flushInterval
	}
	return c
}

func (c *BatchConsumer) Start(ctx context.Context) error {
	return c.start(ctx, "batch consumer", c.Run)
}

// Run обрабатывает пачки до отмены ctx. Начатая пачка дорабатывается.
func (c *BatchConsumer) Run(ctx context.Context) error {
	logger(ctx).Info("batch consumer started",
		slog.Int("batch-size", c.batchSize),
		slog.Duration("flush-interval", c.flushInterval),
	)

	for {
		batch, ok := c.collect(ctx)
		if !ok {
			logger(ctx).Info("batch consumer stopped", slog.Int("dropped", len(batch)+c.queue.Len()))
			return ctx.Err()
		}

		c.process(context.WithoutCancel(ctx), batch)
	}
}

// collect ждёт первый пакет и добирает пачку до batchSize или до истечения
// flushInterval с момента первого пакета. Окно отсчитывается один раз и не
// продлевается с приходом следующих пакетов.
func (c *BatchConsumer) collect(ctx context.Context) ([]entity.ParseRequest, bool) {
	var first entity.ParseRequest
	select {
	case <-ctx.Done():
		return nil, false
	case first = <-c.queue.ch:
	}

	batch := make([]entity.ParseRequest, 0, c.batchSize)
	batch = append(batch, first)

	timer := time.NewTimer(c.flushInterval)
	defer timer.Stop()

	for len(batch) < c.batchSize {
		select {
		case <-ctx.Done():
			return batch, false
		case req := <-c.queue.ch:
			batch = append(batch, req)
		case <-timer.C:
			return batch, true
		}
	}

	return batch, true
}

func (c *BatchConsumer) process(ctx context.Context, batch []entity.ParseRequest) {
	c.metrics.ParseQueueLength.Set(float64(c.queue.Len()))

	observations := make([]reconcile.Observation, 0, len(batch))
	for _, req := range batch {
		lots, err := c.decode(req.Payload)
		if err != nil {
			logger(ctx).Warn("failed to decode shop packet",
				slog.String(logx.FieldServerKey, req.ServerKey),
				slog.Int(logx.FieldPayloadSize, len(req.Payload)),
				logx.Error(err),
			)
			continue
		}
		if len(lots) == 0 {
			continue
		}
		observations = append(observations, reconcile.Observation{ServerKey: req.ServerKey, Lots: lots})
	}

	if len(observations) == 0 {
		return
	}

	start := time.Now()
	res, err := c.reconciler.Reconcile(ctx, observations)
	elapsed := time.Since(start)

	c.metrics.ObserveBatch(res, len(batch), elapsed)

	if err != nil {
		logger(ctx).Error("batch reconciliation failed",
			slog.Int(logx.FieldBatchSize, len(batch)),
			logx.Error(err),
		)
		return
	}

	logger(ctx).Info("batch processed",
		slog.Int(logx.FieldBatchSize, len(batch)),
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", res.Skipped),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("failed", res.Failed),
		slog.Int64(logx.FieldDurationMs, elapsed.Milliseconds()),
	)
}
