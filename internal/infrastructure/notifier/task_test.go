package notifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/notifier"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

type recordingHandler struct {
	events []entity.CreatedListing
}

func (h *recordingHandler) Handle(_ context.Context, event entity.CreatedListing) error {
	h.events = append(h.events, event)
	return nil
}

func TestTaskPublisher_RoundTrip(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	enqueuer := &fakeEnqueuer{}
	event := createdListing()

	rq.NoError(notifier.NewTaskPublisher(enqueuer, "").Handle(ctx, event))
	rq.Len(enqueuer.tasks, 1)
	rq.Equal(notifier.TaskListingCreated, enqueuer.tasks[0].Type())

	handler := &recordingHandler{}
	rq.NoError(notifier.NewTaskHandler(handler).ProcessTask(ctx, enqueuer.tasks[0]))
	rq.Len(handler.events, 1)
	rq.Equal(event.Listing.ID, handler.events[0].Listing.ID)
	rq.Equal(event.Definition.Name, handler.events[0].Definition.Name)
	rq.Equal("centaur", handler.events[0].ServerKey)
}

func TestTaskPublisher_EnqueueError(t *testing.T) {
	rq := require.New(t)

	enqueuer := &fakeEnqueuer{err: errors.New("redis: connection refused")}
	err := notifier.NewTaskPublisher(enqueuer, "alerts").Handle(context.Background(), createdListing())
	rq.ErrorContains(err, "connection refused")
}

func TestTaskHandler_BadPayload(t *testing.T) {
	rq := require.New(t)

	err := notifier.NewTaskHandler(&recordingHandler{}).
		ProcessTask(context.Background(), asynq.NewTask(notifier.TaskListingCreated, []byte("{")))
	rq.ErrorIs(err, asynq.SkipRetry)
}
