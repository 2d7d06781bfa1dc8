// watch connects to the hosted sync endpoint and prints live order state
// changes to the console.
// Usage: go run ./cmd/watch --config configs/console.local.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tillview/livesync/internal/config"
	"github.com/tillview/livesync/internal/connection"
	"github.com/tillview/livesync/internal/state"
)

func main() {
	configPath := flag.String("config", "configs/console.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full order JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Load config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	store := state.NewStore(cfg.Sync.StoreID, logger)

	session := connection.NewSession(connection.SessionConfig{
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
	}, store, nil, logger)

	updates := store.Subscribe()

	if err := session.Start(ctx); err != nil {
		logger.Error("failed to start sync session", "error", err)
		os.Exit(1)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := session.Stats()
				logger.Info("stats",
					"connect_attempts", stats.ConnectAttempts,
					"reconnects", stats.Reconnects,
					"messages_decoded", stats.MessagesDecoded,
					"frames_discarded", stats.FramesDiscarded,
				)
			}
		}
	}()

	logger.Info("watching store order stream - press Ctrl+C to stop",
		"store_id", cfg.Sync.StoreID)

	go printSnapshots(ctx, updates, *verbose)

	// Wait for shutdown
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	session.Stop(shutdownCtx)
	store.Unsubscribe(updates)

	logger.Info("shutdown complete")
}

func printSnapshots(ctx context.Context, updates <-chan state.Snapshot, verbose bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}

			fmt.Printf("[STATE] phase=%s online=%v open_orders=%d\n",
				snap.Phase, snap.Online, snap.Len())

			for _, order := range snap.Recent() {
				if verbose {
					data, _ := json.MarshalIndent(order, "", "  ")
					fmt.Printf("[ORDER] %s\n", data)
				} else {
					fmt.Printf("[ORDER] id=%s edge=%d table=%q status=%s items=%d remaining=%s\n",
						order.OrderID, order.EdgeServerID, order.TableName,
						order.Status, len(order.Items), order.RemainingAmount)
				}
			}
		}
	}
}
