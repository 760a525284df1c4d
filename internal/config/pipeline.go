package config

import "time"

type Ingest struct {
	QueueCapacity int           `env:"INGEST_QUEUE_CAPACITY" envDefault:"2000"`
	BatchSize     int           `env:"INGEST_BATCH_SIZE" envDefault:"100"`
	FlushInterval time.Duration `env:"INGEST_FLUSH_INTERVAL" envDefault:"500ms"`
}

type Notify struct {
	QueueCapacity  int           `env:"NOTIFY_QUEUE_CAPACITY" envDefault:"1000"`
	Concurrency    int           `env:"NOTIFY_CONCURRENCY" envDefault:"5"`
	EnqueueTimeout time.Duration `env:"NOTIFY_ENQUEUE_TIMEOUT" envDefault:"100ms"`
	Sink           string        `env:"NOTIFY_SINK" envDefault:"log"`
	TaskQueue      string        `env:"NOTIFY_TASK_QUEUE" envDefault:"notifications"`
}

type Bot struct {
	Token         string  `env:"BOT_TOKEN" json:"-"`
	APIServer     string  `env:"BOT_API_SERVER"`
	RatePerSecond float64 `env:"BOT_RATE_PER_SECOND" envDefault:"25"`
}

type Sweeper struct {
	Interval   time.Duration `env:"SWEEPER_INTERVAL" envDefault:"5m"`
	StaleAfter time.Duration `env:"SWEEPER_STALE_AFTER" envDefault:"10m"`
}

type Reconcile struct {
	ServerCacheTTL     time.Duration `env:"RECONCILE_SERVER_CACHE_TTL" envDefault:"24h"`
	DefinitionCacheTTL time.Duration `env:"RECONCILE_DEFINITION_CACHE_TTL" envDefault:"120m"`
	MaxAttempts        int           `env:"RECONCILE_MAX_ATTEMPTS" envDefault:"3"`
	BackoffStep        time.Duration `env:"RECONCILE_BACKOFF_STEP" envDefault:"50ms"`
	BackfillDelay      time.Duration `env:"RECONCILE_BACKFILL_DELAY" envDefault:"30s"`
	StatsInterval      time.Duration `env:"RECONCILE_STATS_INTERVAL" envDefault:"1m"`
}

// Reference пути к справочникам аддонов. Без файла сопоставления все
// аддоны считаются неизвестными.
type Reference struct {
	AddonMappingPath   string `env:"REFERENCE_ADDON_MAPPING_PATH"`
	EquipmentAddonPath string `env:"REFERENCE_EQUIPMENT_ADDON_PATH"`
}

type HTTP struct {
	ListenAddress   string        `env:"HTTP_LISTEN_ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogFieldMaxLen  int           `env:"HTTP_LOG_FIELD_MAX_LEN" envDefault:"2048"`
}

type Metrics struct {
	ListenAddress string `env:"METRICS_LISTEN_ADDRESS" envDefault:":9090"`
}

type Probe struct {
	ListenAddress string `env:"PROBE_LISTEN_ADDRESS" envDefault:":8081"`
}
