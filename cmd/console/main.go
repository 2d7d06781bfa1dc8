package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tillview/livesync/internal/config"
	"github.com/tillview/livesync/internal/connection"
	"github.com/tillview/livesync/internal/database"
	"github.com/tillview/livesync/internal/journal"
	"github.com/tillview/livesync/internal/state"
	"github.com/tillview/livesync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/console.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting console sync",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"sync_url", cfg.Sync.URL,
		"store_id", cfg.Sync.StoreID,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Optional journal: the live sync core runs with or without it.
	var writer *journal.Writer
	if cfg.Journal.Enabled {
		logger.Info("connecting to journal database",
			"host", cfg.Journal.Database.Host,
			"database", cfg.Journal.Database.Name,
		)

		pool, err := database.Connect(ctx, cfg.Journal.Database, logger)
		if err != nil {
			logger.Error("failed to connect to journal database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := journal.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure journal schema", "error", err)
			os.Exit(1)
		}

		writer = journal.NewWriter(journal.WriterConfig{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
			BufferSize:    cfg.Journal.BufferSize,
		}, pool, logger)

		if err := writer.Start(ctx); err != nil {
			logger.Error("failed to start journal writer", "error", err)
			os.Exit(1)
		}
	}

	// Create the state store and sync session
	store := state.NewStore(cfg.Sync.StoreID, logger)

	sessionCfg := connection.SessionConfig{
		URL:               cfg.Sync.URL,
		Token:             cfg.Sync.Token,
		StoreID:           cfg.Sync.StoreID,
		ReconnectBaseWait: cfg.Connection.ReconnectBaseDelay,
		ReconnectMaxWait:  cfg.Connection.ReconnectMaxDelay,
		HandshakeTimeout:  cfg.Connection.HandshakeTimeout,
		PingInterval:      cfg.Connection.PingInterval,
		PingTimeout:       cfg.Connection.PingTimeout,
		WriteTimeout:      cfg.Connection.WriteTimeout,
		BufferSize:        cfg.Connection.BufferSize,
	}

	var sink connection.EventSink
	if writer != nil {
		sink = writer
	}
	session := connection.NewSession(sessionCfg, store, sink, logger)

	// Start health server early so we can monitor connection progress
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(cfg.Health.Path, store, session, writer),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port, "path", cfg.Health.Path)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Start the sync session
	if err := session.Start(ctx); err != nil {
		logger.Error("failed to start sync session", "error", err)
		os.Exit(1)
	}

	logger.Info("console sync running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	session.Stop(shutdownCtx)
	if writer != nil {
		writer.Stop(shutdownCtx)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("console sync stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(path string, store *state.Store, session *connection.Session, writer *journal.Writer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		snap := store.Current()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		sessionStats := session.Stats()
		health.Components["sync"] = map[string]any{
			"phase":            snap.Phase,
			"store_online":     snap.Online,
			"open_orders":      snap.Len(),
			"connect_attempts": sessionStats.ConnectAttempts,
			"reconnects":       sessionStats.Reconnects,
			"messages_decoded": sessionStats.MessagesDecoded,
			"frames_discarded": sessionStats.FramesDiscarded,
		}
		if snap.Phase != state.PhaseConnected {
			health.Status = "degraded"
		}

		if writer != nil {
			writerStats := writer.Stats()
			health.Components["journal"] = map[string]any{
				"inserts":       writerStats.Inserts,
				"insert_errors": writerStats.InsertErrors,
				"flushes":       writerStats.Flushes,
				"dropped":       writerStats.Dropped,
				"buffered":      writerStats.Buffer.Count,
			}
			if writerStats.InsertErrors > 0 {
				health.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/orders", func(w http.ResponseWriter, r *http.Request) {
		orders := store.Current().Recent()

		// Limit to first 100 for debugging
		limit := 100
		showing := orders
		if len(showing) > limit {
			showing = showing[:limit]
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count":   len(orders),
			"showing": len(showing),
			"orders":  showing,
		})
	})

	return mux
}
