package reconcile

import (
	"github.com/tillview/livesync/internal/model"
	"github.com/tillview/livesync/internal/protocol"
)

// OrderTable maps order id to the most recently delivered snapshot for every
// order believed open at one store. Keys are unique, iteration order is not
// meaningful. Tables are treated as immutable once published: Apply never
// mutates its input, it returns a fresh table.
type OrderTable map[string]model.OrderSnapshot

// Result is the outcome of applying one message.
type Result struct {
	Table         OrderTable
	Online        bool
	OnlineChanged bool
	Changed       bool // True when the table or online flag differs from the input
}

// Apply merges one decoded message into the current state for the subscribed
// store and returns the next state. Last-write-wins per order id, where
// "last" means most recently delivered over the current connection; the
// transport's in-order delivery guarantee is relied upon entirely, no
// sequence fencing is performed.
//
// Messages referring to any other store leave the state untouched: the table
// must never contain a snapshot whose edge server id differs from storeID.
func Apply(table OrderTable, online bool, msg protocol.Message, storeID int64) Result {
	switch m := msg.(type) {
	case protocol.Ready:
		return applyReady(online, m, storeID)
	case protocol.OrderUpdated:
		return applyOrderUpdated(table, online, m, storeID)
	case protocol.OrderRemoved:
		return applyOrderRemoved(table, online, m, storeID)
	case protocol.EdgeStatus:
		return applyEdgeStatus(table, online, m, storeID)
	}

	// Unknown variants cannot occur: protocol.Message is sealed.
	return Result{Table: table, Online: online}
}

// applyReady replaces the table wholesale with the snapshots belonging to the
// subscribed store, whatever was present before. The online flag is derived
// from membership in the online edge list; absence means offline.
func applyReady(online bool, msg protocol.Ready, storeID int64) Result {
	next := make(OrderTable, len(msg.Snapshots))
	for _, snap := range msg.Snapshots {
		if snap.EdgeServerID != storeID {
			continue
		}
		next[snap.OrderID] = snap
	}

	nextOnline := false
	for _, id := range msg.OnlineEdgeIDs {
		if id == storeID {
			nextOnline = true
			break
		}
	}

	return Result{
		Table:         next,
		Online:        nextOnline,
		OnlineChanged: nextOnline != online,
		Changed:       true,
	}
}

func applyOrderUpdated(table OrderTable, online bool, msg protocol.OrderUpdated, storeID int64) Result {
	if msg.Snapshot.EdgeServerID != storeID {
		return Result{Table: table, Online: online}
	}

	next := clone(table)
	next[msg.Snapshot.OrderID] = msg.Snapshot

	return Result{Table: next, Online: online, Changed: true}
}

func applyOrderRemoved(table OrderTable, online bool, msg protocol.OrderRemoved, storeID int64) Result {
	if msg.EdgeServerID != storeID {
		return Result{Table: table, Online: online}
	}
	if _, ok := table[msg.OrderID]; !ok {
		// Removing an absent order is a no-op, not an error.
		return Result{Table: table, Online: online}
	}

	next := clone(table)
	delete(next, msg.OrderID)

	return Result{Table: next, Online: online, Changed: true}
}

// applyEdgeStatus flips the online flag and, on an offline transition,
// purges the orders the server declared stale. An offline transition without
// a purge list leaves the table as-is; those orders stay visible until the
// next Ready repopulates the state (a known staleness window; the online
// flag makes it visible to consumers).
func applyEdgeStatus(table OrderTable, online bool, msg protocol.EdgeStatus, storeID int64) Result {
	if msg.EdgeServerID != storeID {
		return Result{Table: table, Online: online}
	}

	next := table
	changed := msg.Online != online

	if !msg.Online && len(msg.ClearedOrderIDs) > 0 {
		next = clone(table)
		for _, id := range msg.ClearedOrderIDs {
			if _, ok := next[id]; ok {
				delete(next, id)
				changed = true
			}
		}
	}

	return Result{
		Table:         next,
		Online:        msg.Online,
		OnlineChanged: msg.Online != online,
		Changed:       changed,
	}
}

func clone(table OrderTable) OrderTable {
	next := make(OrderTable, len(table))
	for id, snap := range table {
		next[id] = snap
	}
	return next
}
