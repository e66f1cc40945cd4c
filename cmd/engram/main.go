package main

// @title Engram API
// @version 1.0
// @description Context pruning and hybrid memory retrieval service for long-running agent sessions
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/engram/engram
// @contact.email support@engram.dev

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/engram/engram/config"
	"github.com/engram/engram/pkg/api"
	"github.com/engram/engram/pkg/api/events"
	"github.com/engram/engram/pkg/api/handlers"
	"github.com/engram/engram/pkg/logger"
	"github.com/engram/engram/pkg/memory"
	"github.com/engram/engram/pkg/metrics"
	"github.com/engram/engram/pkg/prune"
	"github.com/engram/engram/pkg/storage"
	badgerstorage "github.com/engram/engram/pkg/storage/badger"
	memorystorage "github.com/engram/engram/pkg/storage/memory"
	redisstorage "github.com/engram/engram/pkg/storage/redis"
	"github.com/engram/engram/pkg/telemetry/tracing"
	"github.com/engram/engram/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	appName    = flag.String("app-name", "", "Override app name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	// Print help
	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	// Print version
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	// Build CLI overrides map
	overrides := buildOverrides()

	// Load configuration
	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	// Initialize logger with configuration
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting Engram",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)

	log.Debug("Configuration loaded", "config", cfg.String())

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize tracing
	tracingShutdown, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Initialize storage backend
	var store storage.Storage
	switch cfg.Storage.Type {
	case "badger":
		store, err = badgerstorage.NewBadgerStorage(cfg.Storage.Badger.ToBadgerConfig())
		if err != nil {
			log.Error("Failed to create Badger storage", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized Badger storage", "path", cfg.Storage.Badger.Path)
	case "redis":
		store, err = redisstorage.NewRedisStorage(cfg.Storage.Redis.ToRedisConfig())
		if err != nil {
			log.Error("Failed to create Redis storage", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized Redis storage", "address", cfg.Storage.Redis.Address)
	case "memory":
		store = memorystorage.NewMemoryStorage()
		log.Info("Initialized memory storage")
	default:
		store = memorystorage.NewMemoryStorage()
		log.Warn("Unknown storage type, using memory storage", "type", cfg.Storage.Type)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()

	// Initialize metrics manager
	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics.Enabled
	metricsCfg.Port = cfg.Metrics.Port
	metricsCfg.Path = cfg.Metrics.Path
	metricsManager := metrics.NewManager(metricsCfg)

	// Start metrics server if enabled
	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	// Initialize and start the memory hub.
	hub := memory.NewHub(&cfg.Retrieval, &cfg.Session, store, log)
	if err := hub.Start(ctx); err != nil {
		log.Error("Failed to start memory hub", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server with handlers
	broadcaster := events.NewBroadcaster()
	sessionHandler := handlers.NewSessionHandler(hub, log, metricsManager, broadcaster)
	pruneHandler := handlers.NewPruneHandler(&cfg.Prune, log, metricsManager)
	healthHandler := handlers.NewHealthHandler(hub, store, version.Version)

	var wsHandler *handlers.WebSocketHandler
	if cfg.Server.WebSocket.Enabled {
		wsHandler = handlers.NewWebSocketHandler(log, handlers.WebSocketConfig{
			AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
			MaxConnections: cfg.Server.WebSocket.MaxConnections,
		}, metricsManager)
		go bridgeEvents(ctx, broadcaster, wsHandler)
	}

	apiHandlers := &api.Handlers{
		Session:   sessionHandler,
		Prune:     pruneHandler,
		Health:    healthHandler,
		WebSocket: wsHandler,
		Metrics:   metricsManager,
	}

	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	// Watch the config file for hot-reloadable changes
	var watcher *config.Watcher
	if *configPath != "" {
		watcher, err = config.NewWatcher(*configPath, config.NewLoader())
		if err != nil {
			log.Warn("Config watcher unavailable", "error", err)
		} else {
			watcher.OnChange(func(next *config.Config) {
				applyHotReload(next, log, pruneHandler, hub)
			})
			go func() {
				if err := watcher.Watch(ctx); err != nil {
					log.Warn("Config watcher stopped", "error", err)
				}
			}()
		}
	}

	// Start HTTP server in a separate goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	log.Info("Engram is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
		"storage", cfg.Storage.Type,
	)
	log.Info("Press Ctrl+C to stop")

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			log.Error("Error stopping config watcher", "error", err)
		}
	}

	// Shutdown HTTP server first so no new requests reach the hub
	log.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	broadcaster.Close()
	if wsHandler != nil {
		wsHandler.Close()
	}

	log.Info("Stopping memory hub")
	if err := hub.Stop(shutdownCtx); err != nil {
		log.Error("Error during memory hub shutdown", "error", err)
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracing", "error", err)
	}

	log.Info("Engram stopped gracefully")
}

// bridgeEvents forwards broadcaster events to websocket subscribers until
// the context ends or the broadcaster closes.
func bridgeEvents(ctx context.Context, b *events.Broadcaster, ws *handlers.WebSocketHandler) {
	ch := b.Subscribe(64)
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			_ = ws.Broadcast(handlers.EventMessage{
				Type:      event.Type,
				Timestamp: event.Timestamp,
				Payload:   event.Payload,
			})
		}
	}
}

// applyHotReload pushes reloaded tunables into the running handlers.
func applyHotReload(next *config.Config, log logger.Logger, ph *handlers.PruneHandler, hub *memory.Hub) {
	ph.SetOptions(prune.Options{
		MinPrunableChars:    next.Prune.MinPrunableChars,
		SoftTrimThreshold:   next.Prune.SoftTrimThreshold,
		HardClearThreshold:  next.Prune.HardClearThreshold,
		KeepLastToolResults: next.Prune.KeepLastToolResults,
		HeadChars:           next.Prune.HeadChars,
		TailChars:           next.Prune.TailChars,
	})
	hub.UpdateRetrieval(&next.Retrieval)
	log.Info("Applied hot-reloaded configuration",
		"soft_trim_threshold", next.Prune.SoftTrimThreshold,
		"hard_clear_threshold", next.Prune.HardClearThreshold,
		"lambda", next.Retrieval.Lambda,
		"half_life_days", next.Retrieval.HalfLifeDays,
	)
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("Engram - Context Pruning and Hybrid Memory Retrieval Service\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("Engram - Context pruning and hybrid memory retrieval service for agent sessions\n\n")
	fmt.Printf("Usage: engram [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  engram                                    # Run with default config\n")
	fmt.Printf("  engram -config config.yaml                # Use specific config file\n")
	fmt.Printf("  engram -port 9090 -log-level debug        # Override specific options\n")
	fmt.Printf("  engram -version                           # Print version info\n")
}
