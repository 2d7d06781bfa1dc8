package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrAlreadyStarted  = errors.New("session already started")
)

// TimestampedMessage wraps raw frame data with its receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from the WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a single WebSocket client.
type ClientConfig struct {
	URL              string        // Endpoint (e.g., wss://sync.example.com/console/stream)
	Token            string        // Bearer credential, sent URL-encoded as ?token= because the handshake cannot carry custom headers
	HandshakeTimeout time.Duration // Dial timeout
	PingInterval     time.Duration // Keepalive ping cadence
	PingTimeout      time.Duration // Max time without ping/pong before the connection is considered stale
	WriteTimeout     time.Duration // Write deadline for sends
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     15 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       1000,
	}
}

// SessionConfig configures a synchronization session.
type SessionConfig struct {
	URL     string // WebSocket endpoint
	Token   string // Bearer credential
	StoreID int64  // The single store whose order stream this session follows

	ReconnectBaseWait time.Duration // Backoff floor
	ReconnectMaxWait  time.Duration // Backoff ceiling
	HandshakeTimeout  time.Duration
	PingInterval      time.Duration
	PingTimeout       time.Duration
	WriteTimeout      time.Duration
	BufferSize        int
}

// DefaultSessionConfig returns sensible defaults. Backoff runs 1s, 2s, 4s,
// 8s, 16s, 30s, 30s, ... and resets to the floor on a successful connect.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  30 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		PingInterval:      15 * time.Second,
		PingTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        1000,
	}
}

// SessionStats provides counters for monitoring a session.
type SessionStats struct {
	ConnectAttempts int64 // Dial attempts, successful or not
	Reconnects      int64 // Transport losses that triggered the backoff cycle
	MessagesDecoded int64 // Frames decoded into a typed message
	FramesDiscarded int64 // Malformed or unrecognized frames dropped
}
