package protocol

import (
	"github.com/tillview/livesync/internal/model"
)

// Message type discriminators as they appear on the wire.
const (
	TypeReady        = "Ready"
	TypeOrderUpdated = "OrderUpdated"
	TypeOrderRemoved = "OrderRemoved"
	TypeEdgeStatus   = "EdgeStatus"
	TypeSubscribe    = "Subscribe"
)

// Message is the closed set of inbound protocol messages. The marker method
// keeps the set sealed so the reconciler's dispatch stays exhaustive.
type Message interface {
	isMessage()
}

// Ready is the baseline/full-resync message, sent once per successful
// subscription. It carries every order snapshot across all stores the
// connection is authorized to see, plus the edge servers currently reachable.
type Ready struct {
	Snapshots     []model.OrderSnapshot `json:"snapshots"`
	OnlineEdgeIDs []int64               `json:"online_edge_ids"`
}

// OrderUpdated carries one full order snapshot. It replaces any existing
// entry with the same order id, or inserts it if new.
type OrderUpdated struct {
	Snapshot model.OrderSnapshot `json:"snapshot"`
}

// OrderRemoved deletes one order. Removing an absent order is a no-op.
type OrderRemoved struct {
	OrderID      string `json:"order_id"`
	EdgeServerID int64  `json:"edge_server_id"`
}

// EdgeStatus signals a store coming online or going offline. On an offline
// transition the server may name orders that are now known-stale and must be
// dropped immediately.
type EdgeStatus struct {
	EdgeServerID    int64    `json:"edge_server_id"`
	Online          bool     `json:"online"`
	ClearedOrderIDs []string `json:"cleared_order_ids,omitempty"`
}

func (Ready) isMessage()        {}
func (OrderUpdated) isMessage() {}
func (OrderRemoved) isMessage() {}
func (EdgeStatus) isMessage()   {}

// SubscribeCommand is the single outbound message: it declares interest in
// the order streams of the named stores. Sent once per successful connection.
type SubscribeCommand struct {
	Type     string  `json:"type"`
	StoreIDs []int64 `json:"store_ids"`
}
