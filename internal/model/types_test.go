package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestOrderSnapshotClone(t *testing.T) {
	orig := OrderSnapshot{
		OrderID:      "ord-1",
		EdgeServerID: 7,
		Status:       "open",
		Items: []LineItem{
			{
				ProductID:   "p1",
				ProductName: "Flat White",
				OrderedQty:  2,
				Modifiers: []ModifierOption{
					{Name: "oat milk", PriceDelta: decimal.NewFromFloat(0.5)},
				},
			},
		},
		Payments: []PaymentRecord{
			{PaymentID: uuid.New(), Method: "cash", Amount: decimal.NewFromInt(10)},
		},
		Subtotal: decimal.NewFromFloat(9.5),
	}

	clone := orig.Clone()

	// Mutating the clone must not touch the original.
	clone.Items[0].ProductName = "changed"
	clone.Items[0].Modifiers[0].Name = "changed"
	clone.Payments[0].Method = "changed"

	if orig.Items[0].ProductName != "Flat White" {
		t.Errorf("clone mutation leaked into original item: %q", orig.Items[0].ProductName)
	}
	if orig.Items[0].Modifiers[0].Name != "oat milk" {
		t.Errorf("clone mutation leaked into original modifier: %q", orig.Items[0].Modifiers[0].Name)
	}
	if orig.Payments[0].Method != "cash" {
		t.Errorf("clone mutation leaked into original payment: %q", orig.Payments[0].Method)
	}
}

func TestOrderSnapshotCloneNilSlices(t *testing.T) {
	orig := OrderSnapshot{OrderID: "ord-2", EdgeServerID: 3}
	clone := orig.Clone()

	if clone.Items != nil {
		t.Error("expected nil Items to stay nil")
	}
	if clone.Payments != nil {
		t.Error("expected nil Payments to stay nil")
	}
}

func TestOrderSnapshotMoneyDecoding(t *testing.T) {
	// Monetary fields arrive as plain JSON numbers and must parse without
	// binary-float drift.
	data := []byte(`{
		"order_id": "ord-3",
		"edge_server_id": 7,
		"subtotal": 10.10,
		"tax_total": 0.73,
		"items": [{"product_id": "p1", "base_unit_price": 5.05}]
	}`)

	var snap OrderSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got := snap.Subtotal.String(); got != "10.1" {
		t.Errorf("Subtotal = %s, want 10.1", got)
	}
	if got := snap.TaxTotal.String(); got != "0.73" {
		t.Errorf("TaxTotal = %s, want 0.73", got)
	}
	if got := snap.Items[0].BaseUnitPrice.String(); got != "5.05" {
		t.Errorf("BaseUnitPrice = %s, want 5.05", got)
	}
}
