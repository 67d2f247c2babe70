package app

import (
	"context"

	"harmono-erp/internal/core"
)

// Actor identifies the authenticated user a request acts as. Adapters resolve
// it from their session mechanism (JWT, CLI flag); the app layer only trusts
// the pair and enforces what the role may do.
type Actor struct {
	ID   int
	Role core.Role
}

// ApplicationService is the single interface all UI adapters call. It
// decouples presentation from business logic and owns authorization.
// Implementations must contain no display logic of any kind.
type ApplicationService interface {
	// CreateItem adds a new catalog item. Admin only.
	CreateItem(ctx context.Context, actor Actor, req CreateItemRequest) (*ItemResult, error)

	// SetRecipe replaces an item's bill of materials wholesale. Admin only.
	SetRecipe(ctx context.Context, actor Actor, itemID int, req SetRecipeRequest) (*ItemResult, error)

	// ListItems returns the full catalog, recipes included, ordered by name.
	ListItems(ctx context.Context, actor Actor) (*ItemListResult, error)

	// GetItem returns a single item with its recipe.
	GetItem(ctx context.Context, actor Actor, itemID int) (*ItemResult, error)

	// AdjustStock applies a signed manual stock correction. Admin only.
	AdjustStock(ctx context.Context, actor Actor, itemID int, req AdjustStockRequest) (*ItemResult, error)

	// Manufacture builds finished goods from raw materials in-house. Admin only.
	Manufacture(ctx context.Context, actor Actor, req ManufactureRequest) (*ItemResult, error)

	// ListTransactions returns ledger entries, newest first. Limit defaults to 50.
	ListTransactions(ctx context.Context, actor Actor, q TransactionQuery) (*TransactionListResult, error)

	// DeleteTransaction removes a ledger entry without touching stock. Admin only.
	DeleteTransaction(ctx context.Context, actor Actor, entryID int) error

	// IssueOrder validates, deducts stock and opens a PENDING work order. Admin only.
	IssueOrder(ctx context.Context, actor Actor, req IssueOrderRequest) (*OrderResult, error)

	// ListOrders returns work orders pending-first. Non-admins see only their own.
	ListOrders(ctx context.Context, actor Actor, status string) (*OrderListResult, error)

	// GetOrder returns one work order. Non-admins may only read their own.
	GetOrder(ctx context.Context, actor Actor, orderID int) (*OrderResult, error)

	// CompleteOrder settles an order as done. Admins and the assignee may settle.
	CompleteOrder(ctx context.Context, actor Actor, orderID int, req SettleOrderRequest) (*OrderResult, error)

	// DeliverOrder settles an order as sold, recognizing revenue. Admins and the
	// assignee may settle.
	DeliverOrder(ctx context.Context, actor Actor, orderID int, req SettleOrderRequest) (*OrderResult, error)

	// CancelOrder reverses a pending order's deductions and closes it. Admin only.
	CancelOrder(ctx context.Context, actor Actor, orderID int) (*OrderResult, error)

	// Register creates a user account. Admin only.
	Register(ctx context.Context, actor Actor, req RegisterRequest) (*UserResult, error)

	// Login verifies credentials. No actor: this is the unauthenticated entry point.
	Login(ctx context.Context, req LoginRequest) (*UserResult, error)

	// GetUser returns a user's profile. Non-admins may only read themselves.
	GetUser(ctx context.Context, actor Actor, userID int) (*UserResult, error)

	// ListWorkers returns active non-admin users for assignee pick lists.
	ListWorkers(ctx context.Context, actor Actor) (*WorkerListResult, error)

	// DeleteUser deactivates a user. Admin only, and never themselves.
	DeleteUser(ctx context.Context, actor Actor, userID int) error

	// GetDashboard returns the summary counters. Admin only.
	GetDashboard(ctx context.Context, actor Actor) (*core.Dashboard, error)

	// GetStockReport returns the valued stock listing. Admin only.
	GetStockReport(ctx context.Context, actor Actor) ([]core.StockReportRow, error)

	// GetTransactionReport returns ledger activity joined with order context for
	// the inclusive date range (empty bounds mean unbounded). Admin only.
	GetTransactionReport(ctx context.Context, actor Actor, from, to string) ([]core.TransactionReportRow, error)
}
