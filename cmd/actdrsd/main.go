package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/api"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/audit"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/config"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/engine"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/feed"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/metrics"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/mode"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/notify"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/playbook"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/registry"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/response"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/sched"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/store"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/synth"
)

func main() {
	// Initialize logger
	logLevel := slog.LevelInfo
	if strings.ToLower(getEnv("ACTDRS_LOG_LEVEL", "info")) == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting ACTDRS Threat Response Engine")

	// Load environment variables with defaults
	httpAddr := getEnv("ACTDRS_HTTP_ADDR", ":8080")
	dbPath := getEnv("ACTDRS_DB_PATH", "actdrs.db")
	natsURL := getEnv("ACTDRS_NATS_URL", "")
	playbookDir := getEnv("ACTDRS_PLAYBOOK_DIR", "playbooks.d")
	blockDurationSec := getEnvInt("ACTDRS_BLOCK_DURATION_SEC", 120)
	stepPauseMs := getEnvInt("ACTDRS_STEP_PAUSE_MS", 1500)
	seed := int64(getEnvInt("ACTDRS_SEED", int(time.Now().UnixNano())))

	logger.Info("Configuration loaded",
		"http_addr", httpAddr,
		"db_path", dbPath,
		"nats_url", natsURL,
		"playbook_dir", playbookDir,
		"block_duration_sec", blockDurationSec,
		"step_pause_ms", stepPauseMs)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to NATS when configured; notifications degrade to log-only
	// without it.
	var nc *nats.Conn
	if natsURL != "" {
		conn, err := nats.Connect(natsURL)
		if err != nil {
			logger.Warn("Failed to connect to NATS, notifications will be log-only", "error", err)
		} else {
			nc = conn
			defer nc.Close()
			logger.Info("Connected to NATS")
		}
	}

	// Open the state store; a failure degrades to in-memory operation
	var persister *store.SQLiteStore
	db, err := store.Open(dbPath, logger)
	if err != nil {
		logger.Warn("Failed to open state store, continuing in memory", "error", err)
	} else {
		persister = db
		defer persister.Close()
		logger.Info("State store opened", "path", dbPath)
	}

	clock := sched.NewRealClock()
	prometheusMetrics := metrics.NewMetrics()

	// The store satisfies every persister interface; a nil store means
	// in-memory only.
	var auditPersist audit.Persister
	var registryPersist registry.Persister
	var playbookPersist playbook.Persister
	var settingsPersist config.Persister
	if persister != nil {
		auditPersist = persister
		registryPersist = persister
		playbookPersist = persister
		settingsPersist = persister
	}

	auditLog := audit.New(audit.DefaultCapacity, clock, auditPersist, prometheusMetrics, logger)
	auditLog.Restore()

	settingsManager := config.NewManager(settingsPersist, logger)
	settingsManager.Restore()

	notifier := notify.New(nc, settingsManager.Get, logger)

	blockRegistry := registry.New(time.Duration(blockDurationSec)*time.Second, clock, auditLog, registryPersist, prometheusMetrics, logger)
	blockRegistry.Restore()

	catalog := playbook.NewCatalog(playbookPersist, logger)
	catalog.Restore()
	if err := catalog.LoadDir(playbookDir); err != nil {
		logger.Error("Failed to load playbook definitions", "error", err)
		os.Exit(1)
	}

	modeController := mode.NewController(auditLog, notifier, logger)

	responder := response.NewEngine(
		modeController,
		blockRegistry,
		auditLog,
		response.StubActions{Logger: logger},
		clock,
		notifier,
		prometheusMetrics,
		logger,
		time.Duration(stepPauseMs)*time.Millisecond,
	)

	generator := synth.New(seed, clock)
	alertFeed := feed.NewAlertFeed(feed.DefaultAlertCapacity)
	networkWindow := feed.NewNetworkWindow(feed.DefaultWindowSize)
	packetFeed := feed.NewPacketFeed(feed.DefaultPacketCapacity)
	honeypotLogFeed := feed.NewHoneypotLogFeed(feed.DefaultHoneypotLogCapacity)

	stateEngine := engine.New(generator, alertFeed, networkWindow, packetFeed, honeypotLogFeed,
		settingsManager, blockRegistry, auditLog, notifier, prometheusMetrics, clock, logger)
	stateEngine.Seed()

	// Start the periodic generators and the expiry sweep
	scheduler := sched.New(clock, logger)
	stateEngine.RegisterTasks(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	// Create HTTP API
	server := api.NewServer(stateEngine, responder, catalog, blockRegistry, auditLog,
		settingsManager, modeController, prometheusMetrics, logger, nil)

	go func() {
		if err := server.Serve(ctx, httpAddr); err != nil {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("ACTDRS engine started successfully", "mode", modeController.String())

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	logger.Info("Shutting down ACTDRS engine...")
	cancel()

	// Give the HTTP server a moment to drain before the deferred stops run
	time.Sleep(100 * time.Millisecond)

	logger.Info("ACTDRS engine stopped")
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
