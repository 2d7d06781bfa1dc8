package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tillview/livesync/internal/protocol"
	"github.com/tillview/livesync/internal/state"
)

// EventSink receives every decoded message for out-of-band consumers such as
// the journal writer. Record must not block: the sink sits on the dispatch
// path.
type EventSink interface {
	Record(msg protocol.Message, receivedAt time.Time)
}

// Session owns the synchronization lifecycle for one store: it keeps a
// best-effort always-on connection, re-declares the subscription on every
// connect, and feeds decoded messages to the state store in delivery order.
//
// All decoding and reconciliation happens on the session's single dispatch
// goroutine, so no concurrent writers can race on the order table.
type Session struct {
	cfg    SessionConfig
	store  *state.Store
	sink   EventSink
	logger *slog.Logger

	// newClient is a seam for tests; defaults to NewClient.
	newClient func(ClientConfig, *slog.Logger) Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stats   SessionStats
}

// NewSession creates a session for one store. sink may be nil.
func NewSession(cfg SessionConfig, store *state.Store, sink EventSink, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		cfg:       cfg,
		store:     store,
		sink:      sink,
		logger:    logger.With("store_id", cfg.StoreID),
		newClient: NewClient,
	}
}

// Start launches the connection loop and returns immediately.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("sync session started", "url", s.cfg.URL)
	return nil
}

// Stop tears the session down: any pending reconnect wait is cancelled, the
// transport is closed without triggering reconnect logic, and observable
// state is reset to its empty, disconnected baseline. Stop is a safe no-op
// when called twice or before Start.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync session stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("sync session stop timed out")
		return ctx.Err()
	}
}

// Stats returns current session counters.
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// run is the connection state machine: connecting → connected →
// (reconnecting ⇄ connecting) until teardown, which is the only path to
// disconnected.
func (s *Session) run() {
	defer s.wg.Done()
	defer s.store.Teardown()

	bo := newBackoff(s.cfg.ReconnectBaseWait, s.cfg.ReconnectMaxWait)

	clientCfg := ClientConfig{
		URL:              s.cfg.URL,
		Token:            s.cfg.Token,
		HandshakeTimeout: s.cfg.HandshakeTimeout,
		PingInterval:     s.cfg.PingInterval,
		PingTimeout:      s.cfg.PingTimeout,
		WriteTimeout:     s.cfg.WriteTimeout,
		BufferSize:       s.cfg.BufferSize,
	}

	for {
		if s.ctx.Err() != nil {
			return
		}

		s.store.SetPhase(state.PhaseConnecting)
		s.bump(func(st *SessionStats) { st.ConnectAttempts++ })

		client := s.newClient(clientCfg, s.logger)
		if err := client.Connect(s.ctx); err != nil {
			client.Close()
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn("connect failed", "error", err)
			if !s.waitRetry(bo) {
				return
			}
			continue
		}

		s.store.SetPhase(state.PhaseConnected)
		bo.Reset()

		// Re-declare interest on every connect: server-side subscription
		// state does not survive a connection drop.
		if err := s.subscribe(client); err != nil {
			s.logger.Warn("subscribe failed", "error", err)
			client.Close()
			if s.ctx.Err() != nil {
				return
			}
			s.store.Reset()
			if !s.waitRetry(bo) {
				return
			}
			continue
		}

		s.logger.Info("subscribed to store order stream")

		s.dispatchLoop(client)
		client.Close()

		if s.ctx.Err() != nil {
			return
		}

		// State is not assumed durable across a connection loss; the next
		// Ready repopulates it in full.
		s.bump(func(st *SessionStats) { st.Reconnects++ })
		s.store.Reset()
		if !s.waitRetry(bo) {
			return
		}
	}
}

// subscribe sends the single subscribe declaration for the target store.
func (s *Session) subscribe(client Client) error {
	data, err := protocol.EncodeSubscribe(s.cfg.StoreID)
	if err != nil {
		return err
	}
	return client.Send(data)
}

// dispatchLoop processes frames strictly in delivery order until the
// transport fails or teardown begins.
func (s *Session) dispatchLoop(client Client) {
	for {
		select {
		case <-s.ctx.Done():
			return

		case err := <-client.Errors():
			s.logger.Warn("connection lost", "error", err)
			return

		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			// Teardown may have begun while this frame was queued; it must
			// not mutate state.
			if s.ctx.Err() != nil {
				return
			}

			decoded, ok := protocol.Decode(msg.Data)
			if !ok {
				// A malformed frame must not interrupt a healthy stream.
				s.bump(func(st *SessionStats) { st.FramesDiscarded++ })
				continue
			}

			s.bump(func(st *SessionStats) { st.MessagesDecoded++ })
			s.store.Dispatch(decoded)

			if s.sink != nil {
				s.sink.Record(decoded, msg.ReceivedAt)
			}
		}
	}
}

// waitRetry enters the reconnecting phase and sleeps the current backoff
// delay. Returns false when teardown cancels the wait.
func (s *Session) waitRetry(bo *backoff) bool {
	s.store.SetPhase(state.PhaseReconnecting)

	wait := bo.Next()
	s.logger.Info("reconnecting", "wait", wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Session) bump(fn func(*SessionStats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}
