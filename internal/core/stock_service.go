package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockService is the only path allowed to change an item's quantity. Every
// accepted mutation writes exactly one ledger entry in the same transaction,
// so stock and ledger can never diverge (outside administrative entry deletion).
type StockService struct {
	pool     *pgxpool.Pool
	ledger   *Ledger
	resolver *RecipeResolver
}

func NewStockService(pool *pgxpool.Pool, ledger *Ledger, resolver *RecipeResolver) *StockService {
	return &StockService{pool: pool, ledger: ledger, resolver: resolver}
}

// Adjust applies a signed quantity delta to an item and records the paired
// ledger entry, all in one transaction.
func (s *StockService) Adjust(ctx context.Context, itemID int, delta int64, kind EntryKind, reason string, orderID *int) (*Item, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := s.AdjustTx(ctx, tx, itemID, delta, kind, reason, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return item, nil
}

// AdjustTx applies the delta within the caller's transaction. The UPDATE is a
// single atomic conditional increment, never read-then-write, so concurrent
// adjustments on the same item serialize on the row and the quantity can never
// go negative under race.
func (s *StockService) AdjustTx(ctx context.Context, tx pgx.Tx, itemID int, delta int64, kind EntryKind, reason string, orderID *int) (*Item, error) {
	if delta == 0 {
		return nil, &ValidationError{Field: "adjustment", Msg: "must be a non-zero integer"}
	}

	var item Item
	err := tx.QueryRow(ctx, `
		UPDATE items
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2 AND quantity + $1 >= 0
		RETURNING id, name, code, category, quantity, min_level, unit_price, updated_at
	`, delta, itemID).Scan(&item.ID, &item.Name, &item.Code, &item.Category,
		&item.Quantity, &item.MinLevel, &item.UnitPrice, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.rejectAdjust(ctx, tx, itemID, delta)
		}
		return nil, fmt.Errorf("failed to adjust stock for item %d: %w", itemID, err)
	}

	direction := DirectionIn
	magnitude := delta
	if delta < 0 {
		direction = DirectionOut
		magnitude = -delta
	}

	if _, err := s.ledger.RecordTx(ctx, tx, EntryInput{
		ItemID:    itemID,
		Direction: direction,
		Quantity:  magnitude,
		Kind:      kind,
		Reason:    reason,
		OrderID:   orderID,
	}); err != nil {
		return nil, fmt.Errorf("failed to log stock adjustment for item %d: %w", itemID, err)
	}

	return &item, nil
}

// rejectAdjust distinguishes "item does not exist" from "guard refused the
// deduction" after the conditional UPDATE matched no row.
func (s *StockService) rejectAdjust(ctx context.Context, tx pgx.Tx, itemID int, delta int64) error {
	var name string
	var available int64
	err := tx.QueryRow(ctx, "SELECT name, quantity FROM items WHERE id = $1", itemID).Scan(&name, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Resource: "item", Ref: strconv.Itoa(itemID)}
		}
		return fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}
	return &InsufficientStockError{Item: name, Required: -delta, Available: available}
}

// Manufacture converts raw materials into buildQty units of a finished good
// in-house, without a work order: ingredients are deducted and the finished
// item credited in one transaction, each movement with its ledger entry.
func (s *StockService) Manufacture(ctx context.Context, itemID int, buildQty int64) (*Item, error) {
	if buildQty <= 0 {
		return nil, &ValidationError{Field: "quantity", Msg: fmt.Sprintf("must be a positive integer, got %d", buildQty)}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := fetchItemTx(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	// Feasibility is fully confirmed before the first deduction; a validation
	// failure leaves no partial stock adjustment.
	if err := s.resolver.ValidateSufficiencyTx(ctx, tx, item, buildQty); err != nil {
		return nil, err
	}

	for _, req := range s.resolver.Expand(item, buildQty) {
		reason := fmt.Sprintf("Used for %d x %s", buildQty, item.Name)
		if _, err := s.AdjustTx(ctx, tx, req.IngredientID, -req.Required, KindMaterialUse, reason, nil); err != nil {
			return nil, err
		}
	}

	built, err := s.AdjustTx(ctx, tx, itemID, buildQty, KindProduction, "Manufacturing production", nil)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit manufacture: %w", err)
	}
	return built, nil
}
