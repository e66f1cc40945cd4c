package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "engram",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 15 * time.Second,
				MaxHeaderBytes:  1 << 20, // 1MB
			},
			CORS: CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
				ExposedHeaders:   []string{"X-Request-ID"},
				AllowCredentials: false,
				MaxAge:           300,
			},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 50,
				Burst:             100,
			},
			WebSocket: WebSocketConfig{
				Enabled:         true,
				ReadBufferSize:  1024,
				WriteBufferSize: 4096,
				MaxConnections:  256,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Storage: StorageConfig{
			Type: "memory",
			Badger: BadgerConfig{
				Path:              "./data/badger",
				SyncWrites:        false,
				ValueLogFileSize:  268435456, // 256MB
				NumVersionsToKeep: 1,
			},
			Redis: RedisConfig{
				Address:      "localhost:6379",
				Password:     "",
				DB:           0,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "otlpgrpc",
			Endpoint:   "localhost:4317",
			Timeout:    10 * time.Second,
			Sampler:    "ratio",
			SampleRate: 0.1,
		},
		Prune: PruneConfig{
			MinPrunableChars:    2000,
			SoftTrimThreshold:   50000,
			HardClearThreshold:  100000,
			KeepLastToolResults: 4,
			HeadChars:           1000,
			TailChars:           1000,
		},
		Retrieval: RetrievalConfig{
			K1:           1.5,
			B:            0.75,
			Lambda:       0.7,
			HalfLifeDays: 30,
			DecayFloor:   0.05,
			DefaultLimit: 5,
			MaxLimit:     50,
		},
		Session: SessionConfig{
			ActivityTTL: 24 * time.Hour,
			SharedTTL:   720 * time.Hour, // 30 days
		},
	}
}
