package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

const (
	TaskListingCreated = "relics:listing_created"
	DefaultTaskQueue   = "notifications"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EventHandler обрабатывает событие о созданном лоте.
type EventHandler interface {
	Handle(ctx context.Context, event entity.CreatedListing) error
}

// TaskPublisher передаёт события о новых лотах во внешнюю очередь asynq.
type TaskPublisher struct {
	client   taskEnqueuer
	queue    string
	maxRetry int
}

func NewTaskPublisher(client taskEnqueuer, queue string) *TaskPublisher {
	if queue == "" {
		queue = DefaultTaskQueue
	}
	return &TaskPublisher{
		client:   client,
		queue:    queue,
		maxRetry: 3,
	}
}

// Handle ставит задачу relics:listing_created.
func (p *TaskPublisher) Handle(ctx context.Context, event entity.CreatedListing) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	task := asynq.NewTask(TaskListingCreated, payload)

	info, err := p.client.EnqueueContext(ctx, task,
		asynq.Queue(p.queue),
		asynq.MaxRetry(p.maxRetry),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}

	logger(ctx).Debug("listing task enqueued",
		slog.String(logx.FieldMessageID, info.ID),
		slog.String(logx.FieldListingID, event.Listing.ID.String()),
	)

	return nil
}

// TaskHandler разбирает задачи relics:listing_created на стороне asynq сервера.
type TaskHandler struct {
	next EventHandler
}

func NewTaskHandler(next EventHandler) *TaskHandler {
	return &TaskHandler{next: next}
}

func (h *TaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var event entity.CreatedListing
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return fmt.Errorf("unmarshal %s: %w: %w", task.Type(), err, asynq.SkipRetry)
	}

	return h.next.Handle(ctx, event)
}
