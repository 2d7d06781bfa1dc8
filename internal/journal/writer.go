package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillview/livesync/internal/protocol"
)

const insertEventSQL = `
INSERT INTO order_events (id, received_at, edge_server_id, order_id, event_type, payload)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS order_events (
	id             UUID PRIMARY KEY,
	received_at    TIMESTAMPTZ NOT NULL,
	edge_server_id BIGINT NOT NULL,
	order_id       TEXT NOT NULL DEFAULT '',
	event_type     TEXT NOT NULL,
	payload        JSONB
);
CREATE INDEX IF NOT EXISTS order_events_received_at_idx ON order_events (received_at);
CREATE INDEX IF NOT EXISTS order_events_order_id_idx ON order_events (order_id) WHERE order_id <> ''`

// EnsureSchema creates the order_events table if it does not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, createSchemaSQL)
	return err
}

// Writer persists the inbound sync event feed to Postgres in batches. It
// implements the session's EventSink; Record hands entries to an internal
// growable buffer and returns immediately.
type Writer struct {
	cfg    WriterConfig
	logger *slog.Logger

	input *Buffer[Entry]
	db    *pgxpool.Pool

	// Batching
	batch       []Entry
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	statsMu sync.Mutex
	stats   WriterStats
}

// NewWriter creates a journal writer.
func NewWriter(cfg WriterConfig, db *pgxpool.Pool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		cfg:    cfg,
		logger: logger,
		db:     db,
		input:  NewBuffer[Entry](cfg.BufferSize),
		batch:  make([]Entry, 0, cfg.BatchSize),
	}
}

// Record transforms one decoded message into journal entries and queues
// them. Never blocks; implements connection.EventSink.
func (w *Writer) Record(msg protocol.Message, receivedAt time.Time) {
	for _, entry := range entriesFrom(msg, receivedAt) {
		if !w.input.Send(entry) {
			w.statsMu.Lock()
			w.stats.Dropped++
			w.statsMu.Unlock()
		}
	}
}

// Start begins consuming queued entries and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer, flushing what remains.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping journal writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}
	w.input.Close()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("journal writer stop timed out")
	}

	// Final flush of the batch plus anything still queued.
	for _, entry := range w.input.DrainTo(0) {
		w.append(entry)
	}
	w.flush()

	w.logger.Info("journal writer stopped")
	return nil
}

// Stats returns current writer counters.
func (w *Writer) Stats() WriterStats {
	w.statsMu.Lock()
	stats := w.stats
	w.statsMu.Unlock()
	stats.Buffer = w.input.Stats()
	return stats
}

// consumeLoop moves entries from the buffer into the batch.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			entry, ok := w.input.TryReceive()
			if !ok {
				// Buffer empty, wait briefly before polling again.
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}
			w.append(entry)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

func (w *Writer) append(entry Entry) {
	w.batchMu.Lock()
	w.batch = append(w.batch, entry)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// flush writes the current batch to the database.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]Entry, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	// Flush outlives cancellation so Stop can drain the tail.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()

	pgBatch := &pgx.Batch{}
	for _, row := range batch {
		pgBatch.Queue(insertEventSQL,
			row.ID,
			row.ReceivedAt,
			row.EdgeServerID,
			row.OrderID,
			row.EventType,
			row.Payload,
		)
	}

	results := w.db.SendBatch(ctx, pgBatch)
	var inserted, failed int64
	for range batch {
		if _, err := results.Exec(); err != nil {
			failed++
		} else {
			inserted++
		}
	}
	if err := results.Close(); err != nil {
		w.logger.Warn("journal batch close failed", "error", err)
	}

	w.statsMu.Lock()
	w.stats.Inserts += inserted
	w.stats.InsertErrors += failed
	w.stats.Flushes++
	w.statsMu.Unlock()

	if failed > 0 {
		w.logger.Warn("journal flush had failures",
			"inserted", inserted,
			"failed", failed,
			"duration", time.Since(start),
		)
	} else {
		w.logger.Debug("journal flush",
			"rows", inserted,
			"duration", time.Since(start),
		)
	}
}

// entriesFrom transforms one decoded message into journal rows.
func entriesFrom(msg protocol.Message, receivedAt time.Time) []Entry {
	switch m := msg.(type) {
	case protocol.Ready:
		payload, _ := json.Marshal(struct {
			OrderCount    int     `json:"order_count"`
			OnlineEdgeIDs []int64 `json:"online_edge_ids"`
		}{
			OrderCount:    len(m.Snapshots),
			OnlineEdgeIDs: m.OnlineEdgeIDs,
		})
		return []Entry{{
			ID:         uuid.New(),
			ReceivedAt: receivedAt,
			EventType:  EventReady,
			Payload:    payload,
		}}

	case protocol.OrderUpdated:
		payload, _ := json.Marshal(m.Snapshot)
		return []Entry{{
			ID:           uuid.New(),
			ReceivedAt:   receivedAt,
			EdgeServerID: m.Snapshot.EdgeServerID,
			OrderID:      m.Snapshot.OrderID,
			EventType:    EventOrderUpdated,
			Payload:      payload,
		}}

	case protocol.OrderRemoved:
		payload, _ := json.Marshal(m)
		return []Entry{{
			ID:           uuid.New(),
			ReceivedAt:   receivedAt,
			EdgeServerID: m.EdgeServerID,
			OrderID:      m.OrderID,
			EventType:    EventOrderRemoved,
			Payload:      payload,
		}}

	case protocol.EdgeStatus:
		payload, _ := json.Marshal(m)
		return []Entry{{
			ID:           uuid.New(),
			ReceivedAt:   receivedAt,
			EdgeServerID: m.EdgeServerID,
			EventType:    EventEdgeStatus,
			Payload:      payload,
		}}
	}

	return nil
}
