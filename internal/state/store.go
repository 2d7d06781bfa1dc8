package state

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/tillview/livesync/internal/model"
	"github.com/tillview/livesync/internal/protocol"
	"github.com/tillview/livesync/internal/reconcile"
)

// Phase is the connection lifecycle phase exposed to consumers.
type Phase string

const (
	PhaseConnecting   Phase = "connecting"
	PhaseConnected    Phase = "connected"
	PhaseReconnecting Phase = "reconnecting"
	PhaseDisconnected Phase = "disconnected"
)

// Snapshot is one immutable view of the synchronized state. Accessors return
// copies, so a consumer can never observe a torn or later-mutated read.
type Snapshot struct {
	Phase  Phase
	Online bool

	orders reconcile.OrderTable
	recent []model.OrderSnapshot
}

// Len returns the number of open orders.
func (s Snapshot) Len() int {
	return len(s.orders)
}

// Order returns a copy of one order by id.
func (s Snapshot) Order(id string) (model.OrderSnapshot, bool) {
	snap, ok := s.orders[id]
	if !ok {
		return model.OrderSnapshot{}, false
	}
	return snap.Clone(), true
}

// Orders returns a copy of the full order table keyed by order id.
func (s Snapshot) Orders() map[string]model.OrderSnapshot {
	out := make(map[string]model.OrderSnapshot, len(s.orders))
	for id, snap := range s.orders {
		out[id] = snap.Clone()
	}
	return out
}

// Recent returns the open orders sorted by last-update timestamp descending,
// most recently touched first.
func (s Snapshot) Recent() []model.OrderSnapshot {
	out := make([]model.OrderSnapshot, len(s.recent))
	for i, snap := range s.recent {
		out[i] = snap.Clone()
	}
	return out
}

// Store holds the live state for one subscribed store and notifies
// subscribers of every change. It has a single writer (the session's
// dispatch loop); readers only ever see completed snapshots.
type Store struct {
	storeID int64
	logger  *slog.Logger

	mu     sync.RWMutex
	phase  Phase
	online bool
	table  reconcile.OrderTable
	recent []model.OrderSnapshot

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

// NewStore creates an empty store in the connecting phase.
func NewStore(storeID int64, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storeID: storeID,
		logger:  logger,
		phase:   PhaseConnecting,
		table:   reconcile.OrderTable{},
		subs:    make(map[chan Snapshot]struct{}),
	}
}

// StoreID returns the subscribed store id.
func (s *Store) StoreID() int64 {
	return s.storeID
}

// Current returns the latest snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers a change listener. The channel carries the latest
// snapshot and coalesces: a slow consumer sees the newest state, not every
// intermediate one.
func (s *Store) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	// Seed with the current state so subscribers need no separate initial read.
	ch <- s.Current()
	return ch
}

// Unsubscribe removes a listener registered via Subscribe.
func (s *Store) Unsubscribe(ch <-chan Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for sub := range s.subs {
		if sub == ch {
			delete(s.subs, sub)
			close(sub)
			return
		}
	}
}

// Dispatch applies one decoded message and publishes the resulting snapshot
// if anything changed. Must only be called from the session's single
// dispatch goroutine.
func (s *Store) Dispatch(msg protocol.Message) {
	s.mu.Lock()
	res := reconcile.Apply(s.table, s.online, msg, s.storeID)
	if !res.Changed && !res.OnlineChanged {
		s.mu.Unlock()
		return
	}

	s.table = res.Table
	s.online = res.Online
	s.recent = sortByFreshness(res.Table)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if res.OnlineChanged {
		s.logger.Info("store online flag changed", "store_id", s.storeID, "online", res.Online)
	}

	s.publish(snap)
}

// SetPhase updates the connection phase and notifies subscribers.
func (s *Store) SetPhase(phase Phase) {
	s.mu.Lock()
	if s.phase == phase {
		s.mu.Unlock()
		return
	}
	s.phase = phase
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// Reset clears the order table and online flag. Called on transport loss:
// a momentary empty view beats presenting stale order data as if live.
func (s *Store) Reset() {
	s.mu.Lock()
	s.table = reconcile.OrderTable{}
	s.recent = nil
	s.online = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// Teardown resets all state to the empty, disconnected baseline.
func (s *Store) Teardown() {
	s.mu.Lock()
	s.table = reconcile.OrderTable{}
	s.recent = nil
	s.online = false
	s.phase = PhaseDisconnected
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:  s.phase,
		Online: s.online,
		orders: s.table,
		recent: s.recent,
	}
}

// publish delivers the snapshot to every subscriber, replacing any undrained
// previous snapshot so sends never block the dispatch loop.
func (s *Store) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func sortByFreshness(table reconcile.OrderTable) []model.OrderSnapshot {
	out := make([]model.OrderSnapshot, 0, len(table))
	for _, snap := range table {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedTS != out[j].UpdatedTS {
			return out[i].UpdatedTS > out[j].UpdatedTS
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out
}
