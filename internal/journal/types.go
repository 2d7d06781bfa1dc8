package journal

import (
	"time"

	"github.com/google/uuid"
)

// Event type labels stored in the order_events table.
const (
	EventReady        = "ready"
	EventOrderUpdated = "order_updated"
	EventOrderRemoved = "order_removed"
	EventEdgeStatus   = "edge_status"
)

// Entry is one row of the sync event feed.
type Entry struct {
	ID           uuid.UUID // Row id, client-assigned
	ReceivedAt   time.Time // When the frame arrived over the transport
	EdgeServerID int64     // Edge server the event concerns (0 for Ready)
	OrderID      string    // Empty for Ready and EdgeStatus
	EventType    string    // One of the Event* labels
	Payload      []byte    // JSONB event body
}

// WriterConfig configures the journal writer.
type WriterConfig struct {
	BatchSize     int           // Rows per insert batch
	FlushInterval time.Duration // Max time a row waits before flushing
	BufferSize    int           // Initial capacity of the handoff buffer
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: 1 * time.Second,
		BufferSize:    10000,
	}
}

// WriterStats provides counters for monitoring the writer.
type WriterStats struct {
	Inserts      int64 // Rows written
	InsertErrors int64 // Rows that failed to write
	Flushes      int64 // Flush cycles executed
	Dropped      int64 // Entries rejected because the writer was stopped
	Buffer       BufferStats
}
