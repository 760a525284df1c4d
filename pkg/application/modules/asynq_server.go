package modules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

type AsynqQueues map[string]int

type AsynqHandler struct {
	Pattern string
	Handle  func(context.Context, *asynq.Task) error
}

// AsynqServer модуль обработчиков фоновых задач. Сервер останавливается
// по отмене ctx, а не по сигналу процесса.
type AsynqServer struct {
	RedisUsername string
	RedisPassword string
	RedisAddress  string
	RedisDB       int
	Concurrency   int
}

func (s AsynqServer) Run(
	ctx context.Context,
	g *errgroup.Group,
	queues AsynqQueues,
	handlers ...AsynqHandler,
) {
	g.Go(func() error {
		redisConnection := asynq.RedisClientOpt{
			Addr:     s.RedisAddress,
			Username: s.RedisUsername,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		}

		worker := asynq.NewServer(redisConnection, asynq.Config{
			//nolint:exhaustruct
			BaseContext: func() context.Context { return ctx },
			Queues:      queues,
			Concurrency: s.Concurrency,
			Logger:      asynqLogger{ctx: ctx},
		})

		mux := asynq.NewServeMux()

		for _, h := range handlers {
			mux.HandleFunc(h.Pattern, h.Handle)
		}

		logger(ctx).Info("asynq server started", slog.String("redis-address", s.RedisAddress), slog.Int("redis-db", s.RedisDB))

		if err := worker.Start(mux); err != nil {
			return fmt.Errorf("asynqServer.Start: %w", err)
		}

		<-ctx.Done()
		worker.Shutdown()

		logger(ctx).Info("asynq server stopped", slog.String("redis-address", s.RedisAddress), slog.Int("redis-db", s.RedisDB))

		return nil
	})
}

// asynqLogger направляет журнал asynq в slog.
type asynqLogger struct {
	ctx context.Context //nolint:containedctx
}

func (l asynqLogger) Debug(args ...any) { logger(l.ctx).Debug(fmt.Sprint(args...)) }

func (l asynqLogger) Info(args ...any) { logger(l.ctx).Info(fmt.Sprint(args...)) }

func (l asynqLogger) Warn(args ...any) { logger(l.ctx).Warn(fmt.Sprint(args...)) }

func (l asynqLogger) Error(args ...any) { logger(l.ctx).Error(fmt.Sprint(args...)) }

func (l asynqLogger) Fatal(args ...any) { logger(l.ctx).Error(fmt.Sprint(args...)) }
