package app

import "harmono-erp/internal/core"

// ItemResult is returned by catalog and stock operations.
type ItemResult struct {
	Item *core.Item
}

// ItemListResult is returned by ListItems.
type ItemListResult struct {
	Items []core.Item
}

// TransactionListResult is returned by ListTransactions.
type TransactionListResult struct {
	Entries []core.LedgerEntry
}

// OrderResult is returned by work-order lifecycle operations.
type OrderResult struct {
	Order *core.WorkOrder
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.WorkOrder
}

// UserResult is returned by user operations.
type UserResult struct {
	User *core.User
}

// WorkerListResult is returned by ListWorkers.
type WorkerListResult struct {
	Workers []core.User
}
