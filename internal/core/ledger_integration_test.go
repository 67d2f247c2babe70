package core_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"harmono-erp/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB: three users, three raw materials, two finished
	// goods, and a recipe for the Work Table (1 frame, 4 planks, 2 screw packs).
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE ledger_entries, work_orders, recipe_entries, items, users RESTART IDENTITY CASCADE;

		INSERT INTO users (id, name, employee_code, email, password_hash, role) VALUES
		(1, 'Admin',        'EMP-001', 'admin@test.local', 'x', 'admin'),
		(2, 'Ravi Kumar',   'EMP-101', 'ravi@test.local',  'x', 'factory'),
		(3, 'Sunil Sharma', 'EMP-201', 'sunil@test.local', 'x', 'delivery');
		SELECT setval('users_id_seq', 100);

		INSERT INTO items (id, name, code, category, quantity, min_level, unit_price) VALUES
		(1, 'Steel Frame',  'RM-001', 'RAW_MATERIAL',  40,  10,  350.00),
		(2, 'Wooden Plank', 'RM-002', 'RAW_MATERIAL', 120,  30,   80.00),
		(3, 'Screw Pack',   'RM-003', 'RAW_MATERIAL', 500, 100,    5.50),
		(4, 'Work Table',   'FG-001', 'FINISHED_GOOD',  8,   5, 2400.00),
		(5, 'Stool',        'FG-002', 'FINISHED_GOOD', 15,   5,  650.00);
		SELECT setval('items_id_seq', 100);

		INSERT INTO recipe_entries (item_id, position, ingredient_id, ingredient_name, qty_required) VALUES
		(4, 1, 1, 'Steel Frame', 1),
		(4, 2, 2, 'Wooden Plank', 4),
		(4, 3, 3, 'Screw Pack', 2);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func newTestLedger(pool *pgxpool.Pool) *core.Ledger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return core.NewLedger(pool, log)
}

func itemQuantity(t *testing.T, pool *pgxpool.Pool, itemID int) int64 {
	t.Helper()
	var qty int64
	err := pool.QueryRow(context.Background(), "SELECT quantity FROM items WHERE id = $1", itemID).Scan(&qty)
	if err != nil {
		t.Fatalf("Failed to fetch quantity of item %d: %v", itemID, err)
	}
	return qty
}

func countEntries(t *testing.T, pool *pgxpool.Pool, where string, args ...any) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(), "SELECT count(*) FROM ledger_entries WHERE "+where, args...).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count ledger entries: %v", err)
	}
	return n
}

func TestLedger_RecordValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := newTestLedger(pool)
	ctx := context.Background()

	// Zero and negative quantities must be rejected.
	_, err := ledger.Record(ctx, core.EntryInput{ItemID: 1, Direction: core.DirectionIn, Quantity: 0})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for zero quantity, got %v", err)
	}

	_, err = ledger.Record(ctx, core.EntryInput{ItemID: 1, Direction: "SIDEWAYS", Quantity: 5})
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for bad direction, got %v", err)
	}

	// Unknown item.
	_, err = ledger.Record(ctx, core.EntryInput{ItemID: 999, Direction: core.DirectionIn, Quantity: 5})
	var nferr *core.NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("Expected NotFoundError for unknown item, got %v", err)
	}

	// Validation failures must not leave partial entries behind.
	if n := countEntries(t, pool, "1=1"); n != 0 {
		t.Errorf("Expected 0 ledger entries after rejected records, got %d", n)
	}
}

func TestLedger_RecordSnapshotsAndDefaults(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := newTestLedger(pool)
	ctx := context.Background()

	entry, err := ledger.Record(ctx, core.EntryInput{
		ItemID:    2,
		Direction: core.DirectionIn,
		Quantity:  10,
		Reason:    "stocktake correction",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if entry.Kind != core.KindManual {
		t.Errorf("Expected kind to default to MANUAL, got %s", entry.Kind)
	}
	if entry.ItemName != "Wooden Plank" || entry.ItemCode != "RM-002" {
		t.Errorf("Expected item snapshot Wooden Plank/RM-002, got %s/%s", entry.ItemName, entry.ItemCode)
	}
	if entry.Signed() != 10 {
		t.Errorf("Expected signed quantity 10, got %d", entry.Signed())
	}
	if entry.ID == 0 || entry.CreatedAt.IsZero() {
		t.Errorf("Expected assigned id and timestamp, got id=%d created_at=%v", entry.ID, entry.CreatedAt)
	}
}

func TestLedger_ListOrderAndFilters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := newTestLedger(pool)
	ctx := context.Background()

	inputs := []core.EntryInput{
		{ItemID: 1, Direction: core.DirectionIn, Quantity: 1},
		{ItemID: 2, Direction: core.DirectionOut, Quantity: 2},
		{ItemID: 1, Direction: core.DirectionOut, Quantity: 3},
	}
	for _, in := range inputs {
		if _, err := ledger.Record(ctx, in); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := ledger.List(ctx, core.EntryFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	// Most recent first.
	if entries[0].Quantity != 3 || entries[2].Quantity != 1 {
		t.Errorf("Expected newest-first ordering, got quantities %d..%d", entries[0].Quantity, entries[2].Quantity)
	}

	// Item filter.
	entries, err = ledger.List(ctx, core.EntryFilter{ItemID: 1})
	if err != nil {
		t.Fatalf("List with item filter failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries for item 1, got %d", len(entries))
	}

	// Limit.
	entries, err = ledger.List(ctx, core.EntryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Quantity != 3 {
		t.Errorf("Expected the single newest entry, got %+v", entries)
	}
}

func TestLedger_QueryIsRestartable(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := newTestLedger(pool)
	ctx := context.Background()

	if _, err := ledger.Record(ctx, core.EntryInput{ItemID: 1, Direction: core.DirectionIn, Quantity: 1}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	seq := ledger.Query(ctx, core.EntryFilter{})

	first := 0
	for _, err := range seq {
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		first++
	}

	// An entry appended between passes must be visible on the second pass.
	if _, err := ledger.Record(ctx, core.EntryInput{ItemID: 1, Direction: core.DirectionIn, Quantity: 2}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	second := 0
	for _, err := range seq {
		if err != nil {
			t.Fatalf("Second query pass failed: %v", err)
		}
		second++
	}

	if first != 1 || second != 2 {
		t.Errorf("Expected passes to see 1 then 2 entries, got %d then %d", first, second)
	}
}

func TestLedger_DeleteDoesNotAdjustStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := newTestLedger(pool)
	ctx := context.Background()

	entry, err := ledger.Record(ctx, core.EntryInput{ItemID: 3, Direction: core.DirectionOut, Quantity: 7})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	before := itemQuantity(t, pool, 3)
	if err := ledger.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if n := countEntries(t, pool, "id = $1", entry.ID); n != 0 {
		t.Errorf("Expected entry %d to be gone", entry.ID)
	}
	if after := itemQuantity(t, pool, 3); after != before {
		t.Errorf("Delete must not touch stock: quantity went %d -> %d", before, after)
	}

	var nferr *core.NotFoundError
	if err := ledger.Delete(ctx, entry.ID); !errors.As(err, &nferr) {
		t.Errorf("Expected NotFoundError on double delete, got %v", err)
	}
}

func TestLedger_RevenueTotal(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := newTestLedger(pool)
	ctx := context.Background()

	total, err := ledger.RevenueTotal(ctx)
	if err != nil {
		t.Fatalf("RevenueTotal failed: %v", err)
	}
	if total.StringFixed(2) != "0.00" {
		t.Errorf("Expected zero revenue on fresh ledger, got %s", total.StringFixed(2))
	}

	// 3 Stools at 650.00 and a non-revenue movement that must not count.
	if _, err := ledger.Record(ctx, core.EntryInput{
		ItemID: 5, Direction: core.DirectionOut, Quantity: 3, Kind: core.KindRevenue, Reason: "SOLD: Acme (via Ravi Kumar)",
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := ledger.Record(ctx, core.EntryInput{
		ItemID: 5, Direction: core.DirectionOut, Quantity: 2, Kind: core.KindTransit, Reason: "In transit: given to Ravi Kumar",
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	total, err = ledger.RevenueTotal(ctx)
	if err != nil {
		t.Fatalf("RevenueTotal failed: %v", err)
	}
	if total.StringFixed(2) != "1950.00" {
		t.Errorf("Expected revenue 1950.00, got %s", total.StringFixed(2))
	}
}
