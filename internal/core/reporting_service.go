package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Dashboard is the at-a-glance summary shown on the landing screen.
type Dashboard struct {
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
	LowStockCount   int             `json:"low_stock_count"`
	PendingOrders   int             `json:"pending_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
}

// StockReportRow is one catalog item valued at its current unit price.
type StockReportRow struct {
	ItemID    int             `json:"item_id"`
	ItemName  string          `json:"item_name"`
	ItemCode  string          `json:"item_code"`
	Category  ItemCategory    `json:"category"`
	Quantity  int64           `json:"quantity"`
	MinLevel  int64           `json:"min_level"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
	LowStock  bool            `json:"low_stock"`
}

// TransactionReportRow is one ledger entry joined with its item and, when the
// entry belongs to a work order, the order's assignee and client.
type TransactionReportRow struct {
	Date      time.Time       `json:"date"`
	ItemName  string          `json:"item_name"`
	ItemCode  string          `json:"item_code"`
	Direction EntryDirection  `json:"direction"`
	Kind      EntryKind       `json:"kind"`
	Quantity  int64           `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
	Reason    string          `json:"reason"`
	Assignee  string          `json:"assignee,omitempty"`
	Client    string          `json:"client,omitempty"`
	HasProof  bool            `json:"has_proof"`
}

// ReportingService produces read-only folds over items, the ledger and work
// orders. It never mutates anything.
type ReportingService interface {
	GetDashboard(ctx context.Context) (*Dashboard, error)
	GetStockReport(ctx context.Context) ([]StockReportRow, error)
	// GetTransactionReport returns ledger activity between from and to
	// (inclusive, "2006-01-02" dates). Empty bounds mean unbounded.
	GetTransactionReport(ctx context.Context, from, to string) ([]TransactionReportRow, error)
}

type reportingService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

func NewReportingService(pool *pgxpool.Pool, ledger *Ledger) ReportingService {
	return &reportingService{pool: pool, ledger: ledger}
}

func (s *reportingService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}

	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity * unit_price), 0),
		       COUNT(*) FILTER (WHERE quantity < min_level)
		FROM items
	`).Scan(&d.TotalStockValue, &d.LowStockCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fold stock totals: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM work_orders WHERE status = $1", StatusPending).Scan(&d.PendingOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending orders: %w", err)
	}

	revenue, err := s.ledger.RevenueTotal(ctx)
	if err != nil {
		return nil, err
	}
	d.TotalRevenue = revenue
	return d, nil
}

func (s *reportingService) GetStockReport(ctx context.Context) ([]StockReportRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, code, category, quantity, min_level, unit_price, quantity * unit_price
		FROM items
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock report: %w", err)
	}
	defer rows.Close()

	var report []StockReportRow
	for rows.Next() {
		var r StockReportRow
		if err := rows.Scan(&r.ItemID, &r.ItemName, &r.ItemCode, &r.Category,
			&r.Quantity, &r.MinLevel, &r.UnitPrice, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan stock report row: %w", err)
		}
		r.LowStock = r.Quantity < r.MinLevel
		report = append(report, r)
	}
	return report, rows.Err()
}

func (s *reportingService) GetTransactionReport(ctx context.Context, from, to string) ([]TransactionReportRow, error) {
	query := `
		SELECT e.created_at, i.name, i.code, e.direction, e.kind, e.quantity,
		       e.quantity * i.unit_price, e.reason,
		       COALESCE(w.assignee_name, ''), COALESCE(w.client_name, ''),
		       COALESCE(w.proof_photo <> '', false)
		FROM ledger_entries e
		JOIN items i ON i.id = e.item_id
		LEFT JOIN work_orders w ON w.id = e.order_id
	`
	var args []any
	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" WHERE e.created_at >= $%d::date", len(args))
	}
	if to != "" {
		args = append(args, to)
		clause := " WHERE"
		if from != "" {
			clause = " AND"
		}
		query += fmt.Sprintf("%s e.created_at < $%d::date + INTERVAL '1 day'", clause, len(args))
	}
	query += " ORDER BY e.created_at DESC, e.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction report: %w", err)
	}
	defer rows.Close()

	var report []TransactionReportRow
	for rows.Next() {
		var r TransactionReportRow
		if err := rows.Scan(&r.Date, &r.ItemName, &r.ItemCode, &r.Direction, &r.Kind,
			&r.Quantity, &r.Value, &r.Reason, &r.Assignee, &r.Client, &r.HasProof); err != nil {
			return nil, fmt.Errorf("failed to scan transaction report row: %w", err)
		}
		report = append(report, r)
	}
	return report, rows.Err()
}
