package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemCategory distinguishes raw materials from finished goods. UnitPrice means
// cost price for a raw material and selling price for a finished good.
type ItemCategory string

const (
	RawMaterial  ItemCategory = "RAW_MATERIAL"
	FinishedGood ItemCategory = "FINISHED_GOOD"
)

// EntryDirection is the sign of a ledger entry: IN increases stock, OUT decreases it.
type EntryDirection string

const (
	DirectionIn  EntryDirection = "IN"
	DirectionOut EntryDirection = "OUT"
)

// EntryKind classifies a ledger entry structurally. Revenue reporting filters on
// KindRevenue; the free-text reason is for humans only and is never parsed.
type EntryKind string

const (
	KindManual      EntryKind = "MANUAL"       // manual stock correction
	KindMaterialUse EntryKind = "MATERIAL_USE" // ingredients consumed by a build
	KindProduction  EntryKind = "PRODUCTION"   // finished goods credited
	KindTransit     EntryKind = "TRANSIT"      // finished goods handed to an assignee at issuance
	KindRevenue     EntryKind = "REVENUE"      // recognized sale
	KindReversal    EntryKind = "REVERSAL"     // compensating entry for a cancelled order
)

// OrderKind selects the work-order protocol: ASSEMBLY hands out ingredients and
// credits the finished item at settlement; SALES hands out finished goods at
// issuance and recognizes revenue at settlement.
type OrderKind string

const (
	Assembly OrderKind = "ASSEMBLY"
	Sales    OrderKind = "SALES"
)

// OrderStatus is the work-order state machine:
//
//	PENDING → COMPLETED (settle, exactly once)
//	PENDING → CANCELLED (cancel, reversing the issuance deductions)
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Item is a stocked raw material or finished good. Quantity is an integer and is
// never allowed to go negative; every change to it is paired with exactly one
// ledger entry.
type Item struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Code      string          `json:"code"` // optional external/customs code
	Category  ItemCategory    `json:"category"`
	Quantity  int64           `json:"quantity"`
	MinLevel  int64           `json:"min_level"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UpdatedAt time.Time       `json:"updated_at"`
	Recipe    []RecipeEntry   `json:"recipe,omitempty"`
}

// RecipeEntry is one bill-of-materials line: QtyRequired units of the ingredient
// per one unit built. IngredientName is a snapshot taken when the recipe was
// saved, so historical recipes stay readable after renames.
type RecipeEntry struct {
	IngredientID   int    `json:"ingredient_id"`
	IngredientName string `json:"ingredient_name"`
	QtyRequired    int64  `json:"qty_required"`
}

// LedgerEntry is one immutable signed stock-quantity fact. Quantity is always
// positive; Direction carries the sign. OrderID links entries written during
// work-order issuance and settlement back to their order.
type LedgerEntry struct {
	ID        int            `json:"id"`
	ItemID    int            `json:"item_id"`
	ItemName  string         `json:"item_name"` // snapshot at record time
	ItemCode  string         `json:"item_code"`
	Direction EntryDirection `json:"direction"`
	Quantity  int64          `json:"quantity"`
	Kind      EntryKind      `json:"kind"`
	Reason    string         `json:"reason"`
	OrderID   *int           `json:"order_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Signed returns the entry's quantity with its direction applied.
func (e LedgerEntry) Signed() int64 {
	if e.Direction == DirectionOut {
		return -e.Quantity
	}
	return e.Quantity
}

// DeliveryProof is the opaque proof-of-settlement payload captured by the
// excluded mobile layer. The core stores and returns it verbatim.
type DeliveryProof struct {
	Photo string   `json:"photo,omitempty"` // base64 image blob, never interpreted
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
}

// WorkOrder is a delegated unit of work. Material is committed at issuance
// (handed over physically, not soft-reserved) and the order settles exactly once.
type WorkOrder struct {
	ID           int            `json:"id"`
	Reference    string         `json:"reference"` // stable external reference (UUID)
	AssigneeID   int            `json:"assignee_id"`
	AssigneeName string         `json:"assignee_name"` // snapshot
	AssigneeCode string         `json:"assignee_code"` // e.g. "EMP-101", snapshot
	ItemID       int            `json:"item_id"`
	ItemName     string         `json:"item_name"` // snapshot
	ItemCode     string         `json:"item_code"`
	Quantity     int64          `json:"quantity"`
	Kind         OrderKind      `json:"kind"`
	ClientName   string         `json:"client_name,omitempty"`
	Status       OrderStatus    `json:"status"`
	IssuedAt     time.Time      `json:"issued_at"`
	SettledAt    *time.Time     `json:"settled_at,omitempty"`
	Proof        *DeliveryProof `json:"proof,omitempty"`
}
