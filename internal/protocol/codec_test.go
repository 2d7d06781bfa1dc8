package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecodeReady(t *testing.T) {
	data := []byte(`{
		"type": "Ready",
		"snapshots": [
			{"order_id": "A", "edge_server_id": 7, "status": "open", "subtotal": 12.5},
			{"order_id": "B", "edge_server_id": 9, "status": "open", "subtotal": 3}
		],
		"online_edge_ids": [7, 9]
	}`)

	msg, ok := Decode(data)
	if !ok {
		t.Fatal("Decode returned ok=false")
	}

	ready, ok := msg.(Ready)
	if !ok {
		t.Fatalf("Decode returned %T, want Ready", msg)
	}
	if len(ready.Snapshots) != 2 {
		t.Errorf("len(Snapshots) = %d, want 2", len(ready.Snapshots))
	}
	if ready.Snapshots[0].OrderID != "A" {
		t.Errorf("Snapshots[0].OrderID = %q, want %q", ready.Snapshots[0].OrderID, "A")
	}
	if len(ready.OnlineEdgeIDs) != 2 || ready.OnlineEdgeIDs[0] != 7 {
		t.Errorf("OnlineEdgeIDs = %v, want [7 9]", ready.OnlineEdgeIDs)
	}
}

func TestDecodeOrderUpdated(t *testing.T) {
	data := []byte(`{
		"type": "OrderUpdated",
		"snapshot": {
			"order_id": "X",
			"edge_server_id": 7,
			"status": "open",
			"guest_count": 4,
			"items": [{"product_id": "p1", "product_name": "Latte", "ordered_qty": 1}],
			"updated_ts": 1700000000000
		}
	}`)

	msg, ok := Decode(data)
	if !ok {
		t.Fatal("Decode returned ok=false")
	}

	upd, ok := msg.(OrderUpdated)
	if !ok {
		t.Fatalf("Decode returned %T, want OrderUpdated", msg)
	}
	if upd.Snapshot.OrderID != "X" {
		t.Errorf("OrderID = %q, want %q", upd.Snapshot.OrderID, "X")
	}
	if upd.Snapshot.GuestCount != 4 {
		t.Errorf("GuestCount = %d, want 4", upd.Snapshot.GuestCount)
	}
	if len(upd.Snapshot.Items) != 1 || upd.Snapshot.Items[0].ProductName != "Latte" {
		t.Errorf("Items = %+v, want one Latte line", upd.Snapshot.Items)
	}
}

func TestDecodeOrderRemoved(t *testing.T) {
	data := []byte(`{"type": "OrderRemoved", "order_id": "X", "edge_server_id": 7}`)

	msg, ok := Decode(data)
	if !ok {
		t.Fatal("Decode returned ok=false")
	}

	rem, ok := msg.(OrderRemoved)
	if !ok {
		t.Fatalf("Decode returned %T, want OrderRemoved", msg)
	}
	if rem.OrderID != "X" || rem.EdgeServerID != 7 {
		t.Errorf("got %+v, want order X at edge 7", rem)
	}
}

func TestDecodeEdgeStatus(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantOnline  bool
		wantCleared int
	}{
		{
			name:       "online",
			data:       `{"type": "EdgeStatus", "edge_server_id": 7, "online": true}`,
			wantOnline: true,
		},
		{
			name:        "offline with purge list",
			data:        `{"type": "EdgeStatus", "edge_server_id": 7, "online": false, "cleared_order_ids": ["A", "B"]}`,
			wantOnline:  false,
			wantCleared: 2,
		},
		{
			name:       "offline without purge list",
			data:       `{"type": "EdgeStatus", "edge_server_id": 7, "online": false}`,
			wantOnline: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Decode([]byte(tt.data))
			if !ok {
				t.Fatal("Decode returned ok=false")
			}
			st, ok := msg.(EdgeStatus)
			if !ok {
				t.Fatalf("Decode returned %T, want EdgeStatus", msg)
			}
			if st.Online != tt.wantOnline {
				t.Errorf("Online = %v, want %v", st.Online, tt.wantOnline)
			}
			if len(st.ClearedOrderIDs) != tt.wantCleared {
				t.Errorf("len(ClearedOrderIDs) = %d, want %d", len(st.ClearedOrderIDs), tt.wantCleared)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"empty", ``},
		{"unknown type", `{"type": "Pong"}`},
		{"missing type", `{"order_id": "X"}`},
		{"updated without snapshot id", `{"type": "OrderUpdated", "snapshot": {"edge_server_id": 7}}`},
		{"removed without order id", `{"type": "OrderRemoved", "edge_server_id": 7}`},
		{"wrong field type", `{"type": "OrderRemoved", "order_id": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg, ok := Decode([]byte(tt.data)); ok {
				t.Errorf("Decode = (%T, true), want ok=false", msg)
			}
		})
	}
}

func TestEncodeSubscribe(t *testing.T) {
	data, err := EncodeSubscribe(7)
	if err != nil {
		t.Fatalf("EncodeSubscribe failed: %v", err)
	}

	var cmd SubscribeCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cmd.Type != TypeSubscribe {
		t.Errorf("Type = %q, want %q", cmd.Type, TypeSubscribe)
	}
	if len(cmd.StoreIDs) != 1 || cmd.StoreIDs[0] != 7 {
		t.Errorf("StoreIDs = %v, want [7]", cmd.StoreIDs)
	}
}
