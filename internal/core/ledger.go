package core

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// EntryInput describes one ledger entry to append. Quantity must be positive;
// Direction carries the sign. Item name and code are snapshotted from the items
// table at record time, not supplied by the caller.
type EntryInput struct {
	ItemID    int
	Direction EntryDirection
	Quantity  int64
	Kind      EntryKind
	Reason    string
	OrderID   *int
}

// EntryFilter narrows a ledger query. Zero values mean "no constraint".
// Results are always ordered by timestamp descending; no other ordering
// is supported.
type EntryFilter struct {
	ItemID  int
	Kind    EntryKind
	OrderID int
	Limit   int
}

// Ledger is the append-only log of stock-quantity deltas. Entries are never
// mutated after creation. Delete exists solely for administrative audit cleanup
// and deliberately does not touch stock (see Delete).
type Ledger struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

func NewLedger(pool *pgxpool.Pool, log *logrus.Logger) *Ledger {
	return &Ledger{pool: pool, log: log}
}

// Record appends one entry outside any caller transaction.
func (l *Ledger) Record(ctx context.Context, in EntryInput) (*LedgerEntry, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entry, err := l.RecordTx(ctx, tx, in)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit ledger entry: %w", err)
	}
	return entry, nil
}

// RecordTx appends one entry within the caller's transaction. This is the path
// the stock mutator and the work order engine use so that a quantity change and
// its ledger entry land atomically.
func (l *Ledger) RecordTx(ctx context.Context, tx pgx.Tx, in EntryInput) (*LedgerEntry, error) {
	if in.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Msg: fmt.Sprintf("must be a positive integer, got %d", in.Quantity)}
	}
	if in.Direction != DirectionIn && in.Direction != DirectionOut {
		return nil, &ValidationError{Field: "direction", Msg: fmt.Sprintf("unknown direction %q", in.Direction)}
	}
	if in.Kind == "" {
		in.Kind = KindManual
	}

	// Snapshot the item's current name and code into the entry.
	var itemName, itemCode string
	err := tx.QueryRow(ctx, "SELECT name, code FROM items WHERE id = $1", in.ItemID).Scan(&itemName, &itemCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "item", Ref: strconv.Itoa(in.ItemID)}
		}
		return nil, fmt.Errorf("failed to snapshot item %d: %w", in.ItemID, err)
	}

	e := &LedgerEntry{
		ItemID:    in.ItemID,
		ItemName:  itemName,
		ItemCode:  itemCode,
		Direction: in.Direction,
		Quantity:  in.Quantity,
		Kind:      in.Kind,
		Reason:    in.Reason,
		OrderID:   in.OrderID,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (item_id, item_name, item_code, direction, quantity, kind, reason, order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`, e.ItemID, e.ItemName, e.ItemCode, e.Direction, e.Quantity, e.Kind, e.Reason, e.OrderID).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return e, nil
}

const entryColumns = `id, item_id, item_name, item_code, direction, quantity, kind, reason, order_id, created_at`

func scanEntry(row pgx.Row) (LedgerEntry, error) {
	var e LedgerEntry
	err := row.Scan(&e.ID, &e.ItemID, &e.ItemName, &e.ItemCode, &e.Direction,
		&e.Quantity, &e.Kind, &e.Reason, &e.OrderID, &e.CreatedAt)
	return e, err
}

func (f EntryFilter) whereClause() (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if f.ItemID != 0 {
		args = append(args, f.ItemID)
		where += fmt.Sprintf(" AND item_id = $%d", len(args))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if f.OrderID != 0 {
		args = append(args, f.OrderID)
		where += fmt.Sprintf(" AND order_id = $%d", len(args))
	}
	return where, args
}

// Query returns a lazy, restartable sequence of entries matching the filter,
// most recent first. Each range over the sequence issues a fresh query, so a
// second pass observes entries appended in between.
func (l *Ledger) Query(ctx context.Context, f EntryFilter) iter.Seq2[LedgerEntry, error] {
	return func(yield func(LedgerEntry, error) bool) {
		where, args := f.whereClause()
		q := "SELECT " + entryColumns + " FROM ledger_entries" + where + " ORDER BY created_at DESC, id DESC"
		if f.Limit > 0 {
			args = append(args, f.Limit)
			q += fmt.Sprintf(" LIMIT $%d", len(args))
		}

		rows, err := l.pool.Query(ctx, q, args...)
		if err != nil {
			yield(LedgerEntry{}, fmt.Errorf("failed to query ledger: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				yield(LedgerEntry{}, fmt.Errorf("failed to scan ledger entry: %w", err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(LedgerEntry{}, fmt.Errorf("error iterating ledger entries: %w", err))
		}
	}
}

// List materializes Query into a slice, for callers that want the whole page.
func (l *Ledger) List(ctx context.Context, f EntryFilter) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	for e, err := range l.Query(ctx, f) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Delete removes an entry as an administrative audit-cleanup action. It does
// NOT reverse the corresponding stock change: the stock/ledger mismatch this
// creates is permanent and deliberate, so it is logged loudly rather than
// hidden.
func (l *Ledger) Delete(ctx context.Context, entryID int) error {
	entry, err := scanEntry(l.pool.QueryRow(ctx,
		"SELECT "+entryColumns+" FROM ledger_entries WHERE id = $1", entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Resource: "transaction", Ref: strconv.Itoa(entryID)}
		}
		return fmt.Errorf("failed to fetch ledger entry %d: %w", entryID, err)
	}

	if _, err := l.pool.Exec(ctx, "DELETE FROM ledger_entries WHERE id = $1", entryID); err != nil {
		return fmt.Errorf("failed to delete ledger entry %d: %w", entryID, err)
	}

	l.log.WithFields(logrus.Fields{
		"entry_id":  entry.ID,
		"item_id":   entry.ItemID,
		"item_name": entry.ItemName,
		"direction": entry.Direction,
		"quantity":  entry.Quantity,
		"kind":      entry.Kind,
	}).Warn("ledger entry deleted by admin; stock was NOT adjusted, item history is now inconsistent")
	return nil
}

// RevenueTotal folds the ledger into total recognized revenue: the sum of
// quantity times the item's current unit price over all REVENUE entries.
// Pure read-side aggregate; no stored state.
func (l *Ledger) RevenueTotal(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := l.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(e.quantity * i.unit_price), 0)
		FROM ledger_entries e
		JOIN items i ON i.id = e.item_id
		WHERE e.kind = 'REVENUE' AND e.direction = 'OUT'
	`).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute revenue total: %w", err)
	}
	return total, nil
}
