package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSnapshot is the complete authoritative representation of one order as
// known to one edge server. A snapshot always supersedes any prior snapshot
// carrying the same OrderID; the client never merges field-by-field.
//
// Snapshots are value types. Once ingested by the reconciler they are treated
// as immutable; consumers that need to hold one across state changes should
// take a Clone.
type OrderSnapshot struct {
	OrderID      string `json:"order_id"`       // Primary key (edge-assigned)
	EdgeServerID int64  `json:"edge_server_id"` // Owning store's edge server
	TableName    string `json:"table_name,omitempty"`
	ZoneName     string `json:"zone_name,omitempty"`
	GuestCount   int    `json:"guest_count"`
	ServiceType  string `json:"service_type"` // e.g. "dine_in", "takeaway"
	Status       string `json:"status"`       // Free-form enum defined by the edge server

	Items    []LineItem      `json:"items"`
	Payments []PaymentRecord `json:"payments"`

	// Monetary totals. Plain JSON numbers on the wire, parsed as decimals
	// so repeated ingestion never accumulates binary-float drift.
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountTotal   decimal.Decimal `json:"discount_total"`
	SurchargeTotal  decimal.Decimal `json:"surcharge_total"`
	TaxTotal        decimal.Decimal `json:"tax_total"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`

	// Timing (ms since epoch)
	CreatedTS int64 `json:"created_ts"` // Order creation time
	StartedTS int64 `json:"started_ts"` // Service start time
	UpdatedTS int64 `json:"updated_ts"` // Last mutation on the edge server
}

// LineItem is one cart line. It has no lifecycle of its own: it is created
// and replaced atomically with the OrderSnapshot that owns it.
type LineItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`

	OrderedQty int `json:"ordered_qty"`
	UnpaidQty  int `json:"unpaid_qty"`

	BaseUnitPrice      decimal.Decimal `json:"base_unit_price"`
	EffectiveUnitPrice decimal.Decimal `json:"effective_unit_price"`
	LineTotal          decimal.Decimal `json:"line_total"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	TaxRate            decimal.Decimal `json:"tax_rate"`

	// Adjustments split by origin
	ManualDiscount  decimal.Decimal `json:"manual_discount"`
	RuleDiscount    decimal.Decimal `json:"rule_discount"`
	LoyaltyDiscount decimal.Decimal `json:"loyalty_discount"`
	ManualSurcharge decimal.Decimal `json:"manual_surcharge"`
	RuleSurcharge   decimal.Decimal `json:"rule_surcharge"`

	Variant   string           `json:"variant,omitempty"` // Selected specification
	Modifiers []ModifierOption `json:"modifiers,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// ModifierOption is one selected modifier on a line item.
type ModifierOption struct {
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

// PaymentRecord is one payment attempt against an order. Append-only from the
// client's perspective: the edge server is the sole source of truth, and a
// record only ever changes by the whole owning snapshot being replaced.
type PaymentRecord struct {
	PaymentID  uuid.UUID       `json:"payment_id"` // Edge-assigned
	Method     string          `json:"method"`     // e.g. "cash", "card"
	Amount     decimal.Decimal `json:"amount"`
	Tendered   decimal.Decimal `json:"tendered"` // Cash only
	Change     decimal.Decimal `json:"change"`   // Cash only
	Cancelled  bool            `json:"cancelled"`
	CancelNote string          `json:"cancel_note,omitempty"`

	// Split metadata
	SplitCount int `json:"split_count,omitempty"` // Number of equal shares, 0 = not split
	SplitIndex int `json:"split_index,omitempty"` // This record's share (1-based)
}

// Clone returns a deep copy of the snapshot. Slice fields get fresh backing
// arrays so the caller can hold the copy across reconciler state changes.
func (o OrderSnapshot) Clone() OrderSnapshot {
	out := o

	if o.Items != nil {
		out.Items = make([]LineItem, len(o.Items))
		for i, it := range o.Items {
			out.Items[i] = it.Clone()
		}
	}
	if o.Payments != nil {
		out.Payments = make([]PaymentRecord, len(o.Payments))
		copy(out.Payments, o.Payments)
	}

	return out
}

// Clone returns a deep copy of the line item.
func (l LineItem) Clone() LineItem {
	out := l
	if l.Modifiers != nil {
		out.Modifiers = make([]ModifierOption, len(l.Modifiers))
		copy(out.Modifiers, l.Modifiers)
	}
	return out
}
