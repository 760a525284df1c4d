package connectors

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hibiken/asynq"
)

// Asynq клиент постановки задач поверх общего подключения к Redis.
// Соединение закрывается через Redis.Close.
type Asynq struct {
	value *asynq.Client
	Redis *Redis
	init  sync.Once
}

func (a *Asynq) Client(ctx context.Context) *asynq.Client {
	a.init.Do(func() {
		a.value = asynq.NewClientFromRedisClient(a.Redis.Client(ctx))

		logger(ctx).Info("asynq client created", slog.String("redis-address", a.Redis.Address))
	})

	return a.value
}
