package appconfig

import (
	"time"

	"ietool.dev/backend-next/internal/app/appcontext"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address would listen on for serving normal service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:9030"`

	// DevOpsAddress is the listen address would listen on for serving devops requests (profiling).
	// Leaving this empty will disable devops server.
	// This address is only intended to be used in intra-cluster devops requests, and is not intended to be exposed to the public.
	DevOpsAddress string `split_words:"true"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// LogFile is the path of the rotated log file. Leaving this empty disables file logging.
	LogFile string `split_words:"true" default:"logs/app.log"`

	LogFileMaxSizeMB  int `split_words:"true" default:"100"`
	LogFileMaxBackups int `split_words:"true" default:"10"`
	LogFileMaxAgeDays int `split_words:"true" default:"30"`

	// TrustedProxies is a list of trusted proxies that are trusted to report a real IP via the X-Forwarded-For header.
	TrustedProxies []string `required:"true" split_words:"true" default:"::1,127.0.0.1,10.0.0.0/8"`

	// DevMode to indicate development mode. When true, the program would spin up utilities for debugging and
	// provide a more contextual message when encountered a panic. See internal/server/httpserver/http.go for the
	// actual implementation details.
	DevMode bool `split_words:"true"`

	// TracingEnabled to indicate whether to enable OpenTelemetry tracing.
	TracingEnabled bool `split_words:"true"`

	// TracingExporters to indicate which exporters to use for tracing.
	// Valid values are: jaeger, otlp, stdout (for debug).
	TracingExporters []string `split_words:"true" default:"jaeger"`

	// TracingSampleRate to indicate the sampling rate for tracing.
	// Valid values are: 0.0 (disabled), 1.0 (all traces), or a value between 0.0 and 1.0 (sampling rate).
	TracingSampleRate float64 `split_words:"true" default:"1.0"`

	// infrastructure components connection instructions

	// PostgresDSN is the data source name for the PostgreSQL database. See
	// https://bun.uptrace.dev/postgres/#pgdriver for more details on how to construct a PostgreSQL DSN.
	PostgresDSN string `required:"true" split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"10"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"2"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`
	PostgresConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// NatsURL is the URL of the NATS server. See https://pkg.go.dev/github.com/nats-io/nats.go#Connect
	// for more information on how to construct a NATS URL.
	NatsURL string `required:"true" split_words:"true" default:"nats://127.0.0.1:4222"`

	// EventsEnabled to indicate whether line balance events are published to NATS JetStream.
	EventsEnabled bool `split_words:"true" default:"true"`

	// RedisURL is the URL of the Redis server. See https://pkg.go.dev/github.com/redis/go-redis/v9#ParseURL
	// for more information on how to construct a Redis URL.
	RedisURL string `required:"true" split_words:"true" default:"redis://127.0.0.1:6379/2"`

	// SentryDSN is the DSN of the Sentry server. See https://pkg.go.dev/github.com/getsentry/sentry-go#ClientOptions
	SentryDSN string `split_words:"true"`

	// DatadogProfilerEnabled to indicate whether to enable Datadog profiler.
	DatadogProfilerEnabled bool `split_words:"true" default:"false"`

	// DatadogProfilerAgentAddress is the address of the Datadog profiler agent.
	DatadogProfilerAgentAddress string `split_words:"true" default:"localhost:8126"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`

	// IdentityHeader is the request header the authenticating gateway uses to forward the acting user id.
	IdentityHeader string `required:"true" split_words:"true" default:"X-Forwarded-User"`

	// StudyViewCacheTTL is how long a reconciled line balance view stays in Redis. Writes invalidate it anyway.
	StudyViewCacheTTL time.Duration `split_words:"true" default:"10m"`

	// StudyCreationLockExpiry bounds how long the per (week, layout) creation lock is held.
	StudyCreationLockExpiry time.Duration `split_words:"true" default:"15s"`

	// TargetCheckRule is an expr expression deciding whether a section bottleneck meets the plan.
	// Available variables: LastCT, BaseCT, TargetCycleTime, TargetUPH, Section.
	TargetCheckRule string `split_words:"true" default:"LastCT <= TargetCycleTime"`

	// ArchiveS3Bucket is the bucket weekly line balance workbooks are archived to.
	ArchiveS3Bucket string `split_words:"true" default:"ietool-linebalance-archive"`

	// ArchiveS3Prefix is prepended to every archived object key.
	ArchiveS3Prefix string `split_words:"true" default:"linebalances"`

	ArchiveS3Region          string `split_words:"true" default:"us-east-1"`
	ArchiveS3AccessKeyID     string `split_words:"true"`
	ArchiveS3SecretAccessKey string `split_words:"true"`

	// ArchiveS3Endpoint overrides the S3 endpoint, e.g. for MinIO. Leaving this empty uses AWS.
	ArchiveS3Endpoint string `split_words:"true"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
