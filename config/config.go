// Package config provides configuration management for Engram.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for Engram.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Storage is the persistence configuration.
	Storage StorageConfig `mapstructure:"storage"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`

	// Prune is the tool result pruning configuration.
	Prune PruneConfig `mapstructure:"prune"`

	// Retrieval is the memory search configuration.
	Retrieval RetrievalConfig `mapstructure:"retrieval"`

	// Session is the session memory configuration.
	Session SessionConfig `mapstructure:"session"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host" validate:"omitempty,host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// HTTP is the HTTP server configuration.
	HTTP HTTPConfig `mapstructure:"http"`

	// CORS is the CORS configuration.
	CORS CORSConfig `mapstructure:"cors"`

	// RateLimit is the per-client request throttling configuration.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// WebSocket is the event stream configuration.
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// HTTPConfig holds HTTP-specific settings.
type HTTPConfig struct {
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `mapstructure:"max_header_bytes"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enabled enables CORS support.
	Enabled bool `mapstructure:"enabled"`

	// AllowedOrigins is the list of allowed origins.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// AllowedMethods is the list of allowed HTTP methods.
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// AllowedHeaders is the list of allowed headers.
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// ExposedHeaders is the list of headers exposed to the client.
	ExposedHeaders []string `mapstructure:"exposed_headers"`

	// AllowCredentials indicates whether credentials are allowed.
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// MaxAge is the maximum age of CORS preflight cache in seconds.
	MaxAge int `mapstructure:"max_age"`
}

// RateLimitConfig holds request throttling settings.
type RateLimitConfig struct {
	// Enabled enables per-client rate limiting.
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the sustained request rate allowed per client.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`

	// Burst is the number of requests a client may send at once.
	Burst int `mapstructure:"burst" validate:"min=0"`
}

// WebSocketConfig holds event stream settings.
type WebSocketConfig struct {
	// Enabled enables the websocket event endpoint.
	Enabled bool `mapstructure:"enabled"`

	// ReadBufferSize is the websocket read buffer size in bytes.
	ReadBufferSize int `mapstructure:"read_buffer_size" validate:"min=0"`

	// WriteBufferSize is the websocket write buffer size in bytes.
	WriteBufferSize int `mapstructure:"write_buffer_size" validate:"min=0"`

	// MaxConnections caps concurrent websocket clients.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// Type is the storage backend (memory, badger, redis).
	Type string `mapstructure:"type" validate:"oneof=memory badger redis"`

	// Badger is the BadgerDB configuration.
	Badger BadgerConfig `mapstructure:"badger"`

	// Redis is the Redis configuration.
	Redis RedisConfig `mapstructure:"redis"`
}

// BadgerConfig holds BadgerDB-specific settings.
type BadgerConfig struct {
	// Path is the database directory path.
	Path string `mapstructure:"path"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `mapstructure:"sync_writes"`

	// ValueLogFileSize is the maximum size of value log files in bytes.
	ValueLogFileSize int64 `mapstructure:"value_log_file_size"`

	// NumVersionsToKeep is the number of versions to keep per key.
	NumVersionsToKeep int `mapstructure:"num_versions_to_keep"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	// Address is the Redis server address.
	Address string `mapstructure:"address" validate:"omitempty,host"`

	// Password is the Redis password.
	Password string `mapstructure:"password"`

	// DB is the Redis database number.
	DB int `mapstructure:"db"`

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// ReadTimeout bounds socket reads.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout bounds socket writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter (otlpgrpc).
	Exporter string `mapstructure:"exporter" validate:"omitempty,oneof=otlpgrpc"`

	// Endpoint is the collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Timeout bounds exporter calls.
	Timeout time.Duration `mapstructure:"timeout"`

	// Headers are extra headers sent to the collector.
	Headers map[string]string `mapstructure:"headers"`

	// Sampler selects the sampling strategy (ratio, always_on, always_off).
	Sampler string `mapstructure:"sampler" validate:"omitempty,oneof=ratio always_on always_off"`

	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// PruneConfig holds tool result pruning thresholds. All lengths count
// characters, not bytes.
type PruneConfig struct {
	// MinPrunableChars is the length below which a tool result is never touched.
	MinPrunableChars int `mapstructure:"min_prunable_chars" validate:"min=1"`

	// SoftTrimThreshold is the length above which a tool result is trimmed
	// to its head and tail.
	SoftTrimThreshold int `mapstructure:"soft_trim_threshold" validate:"gtfield=MinPrunableChars"`

	// HardClearThreshold is the length above which a tool result is replaced
	// with a placeholder.
	HardClearThreshold int `mapstructure:"hard_clear_threshold" validate:"gtfield=SoftTrimThreshold"`

	// KeepLastToolResults is how many trailing tool results stay untouched.
	KeepLastToolResults int `mapstructure:"keep_last_tool_results" validate:"min=1,max=10"`

	// HeadChars is the number of leading characters kept by a soft trim.
	HeadChars int `mapstructure:"head_chars" validate:"min=1"`

	// TailChars is the number of trailing characters kept by a soft trim.
	TailChars int `mapstructure:"tail_chars" validate:"min=1"`
}

// RetrievalConfig holds memory search settings.
type RetrievalConfig struct {
	// K1 is the BM25 term frequency saturation parameter.
	K1 float64 `mapstructure:"k1" validate:"gt=0"`

	// B is the BM25 length normalization parameter.
	B float64 `mapstructure:"b" validate:"gte=0,lte=1"`

	// Lambda weights relevance against diversity in reranking.
	Lambda float64 `mapstructure:"lambda" validate:"gt=0,lt=1"`

	// HalfLifeDays is the age at which a score halves.
	HalfLifeDays float64 `mapstructure:"half_life_days" validate:"gt=0"`

	// DecayFloor is the minimum decay multiplier.
	DecayFloor float64 `mapstructure:"decay_floor" validate:"gt=0,lt=1"`

	// DefaultLimit is the result count when a search names none.
	DefaultLimit int `mapstructure:"default_limit" validate:"min=1"`

	// MaxLimit caps the result count a caller may request.
	MaxLimit int `mapstructure:"max_limit" validate:"min=1"`
}

// SessionConfig holds session memory persistence settings.
type SessionConfig struct {
	// ActivityTTL is how long persisted session activity lives.
	ActivityTTL time.Duration `mapstructure:"activity_ttl"`

	// SharedTTL is how long shared sets and compacted summaries live.
	SharedTTL time.Duration `mapstructure:"shared_ttl"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s, Storage: %s}",
		c.App.Name, c.Server.Port, c.App.Environment, c.Storage.Type)
}
