package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/MeowExort/pw-hub-relics-backend/internal/config"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/alert"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/reconcile"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/relic"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/notifier"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/persistence"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/persistence/memory"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/protocol"
	"github.com/MeowExort/pw-hub-relics-backend/internal/server"
	"github.com/MeowExort/pw-hub-relics-backend/internal/worker"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/application/connectors"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/application/modules"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/contextx"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/probe"
)

const httpReadHeaderTimeout = 5 * time.Second

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type listingStore interface {
	reconcile.ListingStore
	worker.StaleDeactivator
	worker.HashStore
	worker.ListingCounter
}

type stores struct {
	listings   listingStore
	references reconcile.ReferenceStore
	filters    alert.FilterStore
}

// knownServers заполняют справочник серверов в режиме памяти.
var knownServers = []entity.Server{ //nolint:gochecknoglobals
	{ID: 1, Name: "Centaur", Key: "centaur"},
	{ID: 2, Name: "Alkor", Key: "alkor"},
	{ID: 3, Name: "Mizar", Key: "mizar"},
	{ID: 4, Name: "Capella", Key: "capella"},
}

// Run собирает сервис и работает до отмены ctx или первой ошибки модуля.
func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := worker.NewMetrics(registry)

	checks := make(map[string]probe.Check)

	st, closeStore, err := openStores(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeStore(ctx)

	mapper, err := loadMapper(ctx, cfg.Reference)
	if err != nil {
		return err
	}

	refs := reconcile.NewReferenceCache(st.references).
		WithTTL(cfg.Reconcile.ServerCacheTTL, cfg.Reconcile.DefinitionCacheTTL)

	notifyQueue := worker.NewNotificationQueue(cfg.Notify.QueueCapacity, cfg.Notify.EnqueueTimeout, metrics)

	engine := reconcile.NewService(st.listings, refs, mapper, notifyQueue).
		WithRetry(cfg.Reconcile.MaxAttempts, cfg.Reconcile.BackoffStep)

	ingestQueue := worker.NewIngestQueue(cfg.Ingest.QueueCapacity, metrics)
	consumer := worker.NewBatchConsumer(ingestQueue, engine, protocol.DecodeLots, metrics).
		WithBatching(cfg.Ingest.BatchSize, cfg.Ingest.FlushInterval)

	g, gctx := errgroup.WithContext(ctx)

	redis := &connectors.Redis{
		Username:           cfg.Redis.Username,
		Password:           cfg.Redis.Password,
		Address:            cfg.Redis.Address,
		DatabaseNumber:     cfg.Redis.DatabaseNumber,
		PoolSize:           cfg.Redis.PoolSize,
		MinIdleConnections: cfg.Redis.MinIdleConnections,
		MaxIdleConnections: cfg.Redis.MaxIdleConnections,
	}

	handler, err := notificationHandler(ctx, cfg, st.filters, redis, g, gctx)
	if err != nil {
		return err
	}
	if cfg.Notify.Sink == config.SinkAsynq {
		defer redis.Close(ctx)
		checks["redis"] = redis.Ping
	}

	dispatcher := worker.NewNotificationDispatcher(notifyQueue, handler, cfg.Notify.Concurrency, metrics)

	sweeper := worker.NewSweeper(st.listings, metrics).
		WithSchedule(cfg.Sweeper.Interval, cfg.Sweeper.StaleAfter)

	backfill := worker.NewHashBackfill(st.listings).
		WithBatch(worker.DefaultBackfillBatch, cfg.Reconcile.BackfillDelay)

	stats := worker.NewListingStatsCollector(st.listings, cfg.Reconcile.StatsInterval, metrics)

	api := server.NewServer(server.NewRelicServer(ingestQueue, notifyQueue))

	httpServer := &http.Server{
		//nolint:exhaustruct
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           api.Handler(log, logx.NewSensitiveDataMasker(), cfg.HTTP.LogFieldMaxLen),
		ReadHeaderTimeout: httpReadHeaderTimeout,
	}

	modules.HTTPServer{ShutdownTimeout: cfg.HTTP.ShutdownTimeout}.Run(gctx, g, httpServer)
	modules.MetricServer{ListenAddress: cfg.Metrics.ListenAddress, Gatherer: registry}.Run(gctx, g)
	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Probe.ListenAddress,
		Checks:        checks,
	}.Run(gctx, g)

	modules.Background{Name: "batch consumer", Task: consumer.Run}.Run(gctx, g)
	modules.Background{Name: "notification dispatcher", Task: dispatcher.Run}.Run(gctx, g)
	modules.Background{Name: "sweeper", Task: sweeper.Run}.Run(gctx, g)
	modules.Background{Name: "listing stats", Task: stats.Run}.Run(gctx, g)
	modules.Background{Name: "hash backfill", Task: func(ctx context.Context) error {
		if err := backfill.Run(ctx); err != nil {
			logger(ctx).Error("hash backfill failed", logx.Error(err))
		}
		return nil
	}}.Run(gctx, g)

	logger(ctx).Info("application started",
		slog.String("store", cfg.Store.Driver),
		slog.String("sink", cfg.Notify.Sink),
	)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("errgroup.Wait: %w", err)
	}

	return nil
}

func openStores(ctx context.Context, cfg config.Config, checks map[string]probe.Check) (stores, func(context.Context), error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		m := memory.New()
		for _, s := range knownServers {
			m.PutServer(s)
		}

		logger(ctx).Warn("memory store in use, listings are not persisted")

		return stores{listings: m, references: m, filters: m}, func(context.Context) {}, nil
	case config.StorePostgres:
		pg := &connectors.Postgres{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}
		db := pg.Client(ctx)

		if err := pg.Ping(ctx); err != nil {
			pg.Close(ctx)
			return stores{}, nil, fmt.Errorf("postgres ping: %w", err)
		}
		checks["postgres"] = pg.Ping

		return stores{
			listings:   persistence.NewListingRepository(db),
			references: persistence.NewReferenceRepository(db),
			filters:    persistence.NewFilterRepository(db),
		}, pg.Close, nil
	default:
		return stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func loadMapper(ctx context.Context, cfg config.Reference) (*relic.Mapper, error) {
	if cfg.AddonMappingPath == "" {
		logger(ctx).Warn("addon mapping is not configured, addons stay unmapped")
		return relic.NewMapper(nil, nil), nil
	}

	mapper, err := relic.LoadMapper(cfg.AddonMappingPath, cfg.EquipmentAddonPath)
	if err != nil {
		return nil, fmt.Errorf("relic.LoadMapper: %w", err)
	}

	return mapper, nil
}

// notificationHandler выбирает обработчик очереди уведомлений по
// NOTIFY_SINK. Для asynq события уходят в Redis, а сопоставление с
// фильтрами выполняет обработчик задач.
func notificationHandler(
	ctx context.Context,
	cfg config.Config,
	filters alert.FilterStore,
	redis *connectors.Redis,
	g *errgroup.Group,
	gctx context.Context, //nolint:revive
) (worker.EventHandler, error) {
	switch cfg.Notify.Sink {
	case config.SinkLog:
		return alert.NewService(filters, notifier.LogSink{}), nil
	case config.SinkTelegram:
		bot, err := newTelegramBot(cfg.Bot)
		if err != nil {
			return nil, err
		}
		return alert.NewService(filters, bot), nil
	case config.SinkAsynq:
		var sink alert.Sink = notifier.LogSink{}
		if cfg.Bot.Token != "" {
			bot, err := newTelegramBot(cfg.Bot)
			if err != nil {
				return nil, err
			}
			sink = bot
		}

		tasks := notifier.NewTaskHandler(alert.NewService(filters, sink))

		modules.AsynqServer{
			RedisUsername: cfg.Redis.Username,
			RedisPassword: cfg.Redis.Password,
			RedisAddress:  cfg.Redis.Address,
			RedisDB:       cfg.Redis.DatabaseNumber,
			Concurrency:   cfg.Notify.Concurrency,
		}.Run(gctx, g, modules.AsynqQueues{cfg.Notify.TaskQueue: 1}, modules.AsynqHandler{
			Pattern: notifier.TaskListingCreated,
			Handle:  tasks.ProcessTask,
		})

		client := (&connectors.Asynq{Redis: redis}).Client(ctx)

		return notifier.NewTaskPublisher(client, cfg.Notify.TaskQueue), nil
	default:
		return nil, fmt.Errorf("unknown notification sink %q", cfg.Notify.Sink)
	}
}

func newTelegramBot(cfg config.Bot) (*notifier.TelegramBot, error) {
	opts := []notifier.TelegramOption{notifier.WithRate(cfg.RatePerSecond)}
	if cfg.APIServer != "" {
		opts = append(opts, notifier.WithAPIServer(cfg.APIServer))
	}

	bot, err := notifier.NewTelegramBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("notifier.NewTelegramBot: %w", err)
	}

	return bot, nil
}
