package app

import "github.com/shopspring/decimal"

// CreateItemRequest is the input for creating a new catalog item.
type CreateItemRequest struct {
	Name      string          `json:"name" validate:"required"`
	Code      string          `json:"code"`
	Category  string          `json:"category" validate:"omitempty,oneof=RAW_MATERIAL FINISHED_GOOD"`
	Quantity  int64           `json:"quantity" validate:"gte=0"`
	MinLevel  *int64          `json:"min_level" validate:"omitempty,gte=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// RecipeLineInput is a single bill-of-materials line within a SetRecipeRequest.
type RecipeLineInput struct {
	IngredientID int   `json:"ingredient_id" validate:"required"`
	QtyRequired  int64 `json:"qty_required" validate:"gt=0"`
}

// SetRecipeRequest replaces an item's recipe with the given lines. An empty
// list clears the recipe.
type SetRecipeRequest struct {
	Entries []RecipeLineInput `json:"entries" validate:"dive"`
}

// AdjustStockRequest is a signed manual stock correction.
type AdjustStockRequest struct {
	Adjustment int64  `json:"adjustment" validate:"required"`
	Reason     string `json:"reason"`
}

// ManufactureRequest builds Quantity units of the finished item from its recipe.
type ManufactureRequest struct {
	ItemID   int   `json:"item_id" validate:"required"`
	Quantity int64 `json:"quantity" validate:"gt=0"`
}

// TransactionQuery narrows a ledger listing. Zero values mean "no constraint";
// a zero Limit falls back to the default of 50.
type TransactionQuery struct {
	ItemID  int    `json:"item_id"`
	Kind    string `json:"kind"`
	OrderID int    `json:"order_id"`
	Limit   int    `json:"limit" validate:"gte=0"`
}

// IssueOrderRequest opens a work order against an assignee.
type IssueOrderRequest struct {
	AssigneeID int    `json:"assignee_id" validate:"required"`
	ItemID     int    `json:"item_id" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"gt=0"`
	Kind       string `json:"kind" validate:"required,oneof=ASSEMBLY SALES"`
	ClientName string `json:"client_name"`
}

// SettleOrderRequest carries the optional delivery evidence attached when an
// order is completed or delivered. ClientName is required for delivery only.
type SettleOrderRequest struct {
	ClientName string   `json:"client_name"`
	ProofPhoto string   `json:"proof_photo"`
	ProofLat   *float64 `json:"proof_lat"`
	ProofLng   *float64 `json:"proof_lng"`
}

// RegisterRequest creates a user account.
type RegisterRequest struct {
	Name         string `json:"name" validate:"required"`
	EmployeeCode string `json:"employee_code"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Role         string `json:"role" validate:"omitempty,oneof=admin factory delivery"`
}

// LoginRequest is the credential pair for authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
