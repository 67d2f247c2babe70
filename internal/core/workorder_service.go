package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IssueInput describes a work order to issue. ClientName is only meaningful for
// SALES orders and may also be set later at delivery.
type IssueInput struct {
	AssigneeID int
	ItemID     int
	Quantity   int64
	Kind       OrderKind
	ClientName string
}

// OrderFilter narrows a work order listing. Zero values mean "no constraint".
type OrderFilter struct {
	Status     OrderStatus
	AssigneeID int
}

// WorkOrderService is the work-order state machine. Issuance validates
// feasibility, commits the required stock up front, and persists the PENDING
// order together with its ledger entries in one transaction; settlement
// transitions the order to COMPLETED exactly once.
type WorkOrderService interface {
	Issue(ctx context.Context, in IssueInput) (*WorkOrder, error)
	// Complete settles an order as done: an ASSEMBLY order credits the built
	// items back to stock; a SALES order closes with the goods returned unsold.
	Complete(ctx context.Context, orderID int, proof *DeliveryProof) (*WorkOrder, error)
	// Deliver settles an order as sold to clientName, recognizing revenue.
	Deliver(ctx context.Context, orderID int, clientName string, proof *DeliveryProof) (*WorkOrder, error)
	// Cancel reverses a PENDING order's issuance deductions via compensating
	// ledger entries and transitions it to CANCELLED.
	Cancel(ctx context.Context, orderID int) (*WorkOrder, error)
	GetOrder(ctx context.Context, orderID int) (*WorkOrder, error)
	// ListOrders returns orders pending-first, most recently issued first.
	ListOrders(ctx context.Context, f OrderFilter) ([]WorkOrder, error)
}

type workOrderService struct {
	pool     *pgxpool.Pool
	stock    *StockService
	resolver *RecipeResolver
}

func NewWorkOrderService(pool *pgxpool.Pool, stock *StockService, resolver *RecipeResolver) WorkOrderService {
	return &workOrderService{pool: pool, stock: stock, resolver: resolver}
}

// ── Issuance ─────────────────────────────────────────────────────────────────

func (s *workOrderService) Issue(ctx context.Context, in IssueInput) (*WorkOrder, error) {
	if in.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Msg: fmt.Sprintf("must be a positive integer, got %d", in.Quantity)}
	}
	if in.Kind != Assembly && in.Kind != Sales {
		return nil, &ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown order kind %q", in.Kind)}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Snapshot the assignee's identity into the order.
	var assigneeName, assigneeCode string
	err = tx.QueryRow(ctx, "SELECT name, employee_code FROM users WHERE id = $1 AND is_active = true", in.AssigneeID).
		Scan(&assigneeName, &assigneeCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "user", Ref: strconv.Itoa(in.AssigneeID)}
		}
		return nil, fmt.Errorf("failed to fetch assignee %d: %w", in.AssigneeID, err)
	}

	item, err := fetchItemTx(ctx, tx, in.ItemID)
	if err != nil {
		return nil, err
	}

	// Feasibility first: no stock is touched until the whole order is known to
	// be issuable, so a validation failure leaves zero side effects.
	switch in.Kind {
	case Sales:
		if item.Quantity < in.Quantity {
			return nil, &InsufficientStockError{Item: item.Name, Required: in.Quantity, Available: item.Quantity}
		}
	case Assembly:
		if err := s.resolver.ValidateSufficiencyTx(ctx, tx, item, in.Quantity); err != nil {
			return nil, err
		}
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO work_orders (reference, assignee_id, assignee_name, assignee_code,
			item_id, item_name, item_code, quantity, kind, client_name, status, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'PENDING', NOW())
		RETURNING id
	`, uuid.NewString(), in.AssigneeID, assigneeName, assigneeCode,
		item.ID, item.Name, item.Code, in.Quantity, in.Kind, in.ClientName).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert work order: %w", err)
	}

	// Commit the material. Every ledger entry written here carries the order id
	// so revenue reports and cancellation can trace entries back to the order.
	switch in.Kind {
	case Sales:
		reason := fmt.Sprintf("In transit: given to %s", assigneeName)
		if _, err := s.stock.AdjustTx(ctx, tx, item.ID, -in.Quantity, KindTransit, reason, &orderID); err != nil {
			return nil, err
		}
	case Assembly:
		for _, req := range s.resolver.Expand(item, in.Quantity) {
			reason := fmt.Sprintf("Given to %s to build %s", assigneeName, item.Name)
			if _, err := s.stock.AdjustTx(ctx, tx, req.IngredientID, -req.Required, KindMaterialUse, reason, &orderID); err != nil {
				return nil, err
			}
		}
	}

	// Stock deduction, ledger entries, and the order row land in one commit:
	// there is no window in which stock is deducted but the order is missing.
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit work order issuance: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

// ── Settlement ───────────────────────────────────────────────────────────────

func (s *workOrderService) Complete(ctx context.Context, orderID int, proof *DeliveryProof) (*WorkOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Kind {
	case Assembly:
		// The assignee built the items; credit them back into stock.
		reason := fmt.Sprintf("Finished by %s", order.AssigneeName)
		if _, err := s.stock.AdjustTx(ctx, tx, order.ItemID, order.Quantity, KindProduction, reason, &order.ID); err != nil {
			return nil, err
		}
	case Sales:
		// Goods came back unsold; no revenue to recognize. The issuance TRANSIT
		// deduction stands until an admin books the returned stock manually.
	}

	if err := s.settleTx(ctx, tx, order.ID, "", proof); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *workOrderService) Deliver(ctx context.Context, orderID int, clientName string, proof *DeliveryProof) (*WorkOrder, error) {
	if clientName == "" {
		return nil, &ValidationError{Field: "client_name", Msg: "is required for delivery"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Kind {
	case Sales:
		// Stock already left at issuance (TRANSIT); this entry recognizes the
		// revenue and is deliberately not a further stock change.
		_, err = s.ledgerRecordTx(ctx, tx, EntryInput{
			ItemID:    order.ItemID,
			Direction: DirectionOut,
			Quantity:  order.Quantity,
			Kind:      KindRevenue,
			Reason:    fmt.Sprintf("SOLD: %s (via %s)", clientName, order.AssigneeName),
			OrderID:   &order.ID,
		})
		if err != nil {
			return nil, err
		}
	case Assembly:
		// Direct delivery: the assignee built the items and dropped them at the
		// client without passing through the warehouse. The goods move through
		// stock for one instant so both legs stay paired with real mutations.
		produce := fmt.Sprintf("Finished by %s (direct delivery)", order.AssigneeName)
		if _, err := s.stock.AdjustTx(ctx, tx, order.ItemID, order.Quantity, KindProduction, produce, &order.ID); err != nil {
			return nil, err
		}
		sold := fmt.Sprintf("SOLD: %s (direct from job work)", clientName)
		if _, err := s.stock.AdjustTx(ctx, tx, order.ItemID, -order.Quantity, KindRevenue, sold, &order.ID); err != nil {
			return nil, err
		}
	}

	if err := s.settleTx(ctx, tx, order.ID, clientName, proof); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit delivery: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *workOrderService) Cancel(ctx context.Context, orderID int) (*WorkOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	// Reverse every issuance deduction with a compensating entry instead of
	// letting a manual stock edit paper over the abandoned order.
	rows, err := tx.Query(ctx, `
		SELECT item_id, quantity
		FROM ledger_entries
		WHERE order_id = $1 AND direction = 'OUT' AND kind IN ('TRANSIT', 'MATERIAL_USE')
	`, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issuance entries for order %d: %w", order.ID, err)
	}

	type deduction struct {
		itemID   int
		quantity int64
	}
	var deductions []deduction
	for rows.Next() {
		var d deduction
		if err := rows.Scan(&d.itemID, &d.quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan issuance entry: %w", err)
		}
		deductions = append(deductions, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issuance entries: %w", err)
	}

	reason := fmt.Sprintf("Reversal: order for %s cancelled", order.AssigneeName)
	for _, d := range deductions {
		if _, err := s.stock.AdjustTx(ctx, tx, d.itemID, d.quantity, KindReversal, reason, &order.ID); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE work_orders SET status = 'CANCELLED', settled_at = NOW() WHERE id = $1",
		order.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to cancel order %d: %w", order.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

// lockOrder fetches an order FOR UPDATE and rejects terminal statuses, so a
// racing second settlement blocks on the row and then fails the status check.
func (s *workOrderService) lockOrder(ctx context.Context, tx pgx.Tx, orderID int) (*WorkOrder, error) {
	order, err := scanOrder(tx.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM work_orders WHERE id = $1 FOR UPDATE", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "order", Ref: strconv.Itoa(orderID)}
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if order.Status.Terminal() {
		return nil, &AlreadySettledError{OrderID: order.ID, Status: order.Status}
	}
	return order, nil
}

// settleTx marks the order COMPLETED and attaches the proof payload verbatim.
func (s *workOrderService) settleTx(ctx context.Context, tx pgx.Tx, orderID int, clientName string, proof *DeliveryProof) error {
	var photo string
	var lat, lng *float64
	if proof != nil {
		photo = proof.Photo
		lat = proof.Lat
		lng = proof.Lng
	}
	_, err := tx.Exec(ctx, `
		UPDATE work_orders
		SET status = 'COMPLETED', settled_at = NOW(),
		    client_name = CASE WHEN $2 <> '' THEN $2 ELSE client_name END,
		    proof_photo = $3, proof_lat = $4, proof_lng = $5
		WHERE id = $1
	`, orderID, clientName, photo, lat, lng)
	if err != nil {
		return fmt.Errorf("failed to settle order %d: %w", orderID, err)
	}
	return nil
}

func (s *workOrderService) ledgerRecordTx(ctx context.Context, tx pgx.Tx, in EntryInput) (*LedgerEntry, error) {
	return s.stock.ledger.RecordTx(ctx, tx, in)
}

// ── Queries ──────────────────────────────────────────────────────────────────

const orderColumns = `id, reference, assignee_id, assignee_name, assignee_code,
	item_id, item_name, item_code, quantity, kind, client_name, status,
	issued_at, settled_at, proof_photo, proof_lat, proof_lng`

func scanOrder(row pgx.Row) (*WorkOrder, error) {
	var o WorkOrder
	var photo string
	var lat, lng *float64
	err := row.Scan(&o.ID, &o.Reference, &o.AssigneeID, &o.AssigneeName, &o.AssigneeCode,
		&o.ItemID, &o.ItemName, &o.ItemCode, &o.Quantity, &o.Kind, &o.ClientName, &o.Status,
		&o.IssuedAt, &o.SettledAt, &photo, &lat, &lng)
	if err != nil {
		return nil, err
	}
	if photo != "" || lat != nil || lng != nil {
		o.Proof = &DeliveryProof{Photo: photo, Lat: lat, Lng: lng}
	}
	return &o, nil
}

func (s *workOrderService) GetOrder(ctx context.Context, orderID int) (*WorkOrder, error) {
	order, err := scanOrder(s.pool.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM work_orders WHERE id = $1", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "order", Ref: strconv.Itoa(orderID)}
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	return order, nil
}

func (s *workOrderService) ListOrders(ctx context.Context, f OrderFilter) ([]WorkOrder, error) {
	query := "SELECT " + orderColumns + " FROM work_orders WHERE 1=1"
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.AssigneeID != 0 {
		args = append(args, f.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}
	query += " ORDER BY CASE WHEN status = 'PENDING' THEN 0 ELSE 1 END, issued_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []WorkOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
