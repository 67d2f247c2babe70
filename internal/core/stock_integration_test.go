package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"harmono-erp/internal/core"
)

func TestStock_AdjustPairsEntryWithMutation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := newTestLedger(pool)
	stock := core.NewStockService(pool, ledger, core.NewRecipeResolver(pool))
	ctx := context.Background()

	item, err := stock.Adjust(ctx, 1, -15, core.KindManual, "damaged in storage", nil)
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if item.Quantity != 25 {
		t.Errorf("Expected quantity 25 after -15 from 40, got %d", item.Quantity)
	}

	entries, err := ledger.List(ctx, core.EntryFilter{ItemID: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected exactly 1 paired entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Direction != core.DirectionOut || e.Quantity != 15 || e.Kind != core.KindManual {
		t.Errorf("Unexpected paired entry: %+v", e)
	}
	if e.Reason != "damaged in storage" {
		t.Errorf("Expected reason to be stored verbatim, got %q", e.Reason)
	}
}

func TestStock_AdjustRejectsOverdraw(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool, newTestLedger(pool), core.NewRecipeResolver(pool))
	ctx := context.Background()

	_, err := stock.Adjust(ctx, 4, -9, core.KindManual, "", nil)
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if stockErr.Item != "Work Table" || stockErr.Required != 9 || stockErr.Available != 8 {
		t.Errorf("Unexpected error details: %+v", stockErr)
	}

	// Rejected mutation leaves no trace.
	if qty := itemQuantity(t, pool, 4); qty != 8 {
		t.Errorf("Expected quantity unchanged at 8, got %d", qty)
	}
	if n := countEntries(t, pool, "item_id = 4"); n != 0 {
		t.Errorf("Expected no ledger entries for rejected adjustment, got %d", n)
	}

	// Zero delta and unknown item are rejected too.
	var verr *core.ValidationError
	if _, err := stock.Adjust(ctx, 4, 0, core.KindManual, "", nil); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for zero delta, got %v", err)
	}
	var nferr *core.NotFoundError
	if _, err := stock.Adjust(ctx, 999, -1, core.KindManual, "", nil); !errors.As(err, &nferr) {
		t.Errorf("Expected NotFoundError for unknown item, got %v", err)
	}
}

// Two concurrent deductions of 5 against a stock of 8 must serialize on the
// row: exactly one succeeds and the final quantity is 3, never -2.
func TestStock_ConcurrentDeductionsNeverOverdraw(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool, newTestLedger(pool), core.NewRecipeResolver(pool))
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = stock.Adjust(ctx, 4, -5, core.KindManual, "concurrent draw", nil)
		}(i)
	}
	wg.Wait()

	var ok, failed int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		failed++
		var stockErr *core.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Errorf("Expected InsufficientStockError from losing goroutine, got %v", err)
		}
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("Expected exactly one winner and one loser, got %d/%d", ok, failed)
	}
	if qty := itemQuantity(t, pool, 4); qty != 3 {
		t.Errorf("Expected final quantity 3, got %d", qty)
	}
	if n := countEntries(t, pool, "item_id = 4"); n != 1 {
		t.Errorf("Expected exactly 1 ledger entry, got %d", n)
	}
}

func TestStock_LedgerFoldMatchesQuantity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := newTestLedger(pool)
	stock := core.NewStockService(pool, ledger, core.NewRecipeResolver(pool))
	ctx := context.Background()

	deltas := []int64{-10, 25, -3, -7, 1}
	for _, d := range deltas {
		if _, err := stock.Adjust(ctx, 2, d, core.KindManual, "", nil); err != nil {
			t.Fatalf("Adjust %d failed: %v", d, err)
		}
	}

	entries, err := ledger.List(ctx, core.EntryFilter{ItemID: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var folded int64
	for _, e := range entries {
		folded += e.Signed()
	}

	// Seed quantity plus the fold of all entries must equal live quantity.
	if got := itemQuantity(t, pool, 2); 120+folded != got {
		t.Errorf("Ledger fold diverged from stock: 120%+d != %d", folded, got)
	}
}

func TestStock_Manufacture(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := newTestLedger(pool)
	stock := core.NewStockService(pool, ledger, core.NewRecipeResolver(pool))
	ctx := context.Background()

	// Build 2 Work Tables: 2 frames, 8 planks, 4 screw packs.
	item, err := stock.Manufacture(ctx, 4, 2)
	if err != nil {
		t.Fatalf("Manufacture failed: %v", err)
	}
	if item.Quantity != 10 {
		t.Errorf("Expected 10 Work Tables after building 2, got %d", item.Quantity)
	}

	wantQty := map[int]int64{1: 38, 2: 112, 3: 496}
	for itemID, want := range wantQty {
		if got := itemQuantity(t, pool, itemID); got != want {
			t.Errorf("Ingredient %d: expected %d, got %d", itemID, want, got)
		}
	}

	if n := countEntries(t, pool, "kind = 'MATERIAL_USE'"); n != 3 {
		t.Errorf("Expected 3 MATERIAL_USE entries, got %d", n)
	}
	if n := countEntries(t, pool, "kind = 'PRODUCTION' AND item_id = 4"); n != 1 {
		t.Errorf("Expected 1 PRODUCTION entry, got %d", n)
	}

	entries, err := ledger.List(ctx, core.EntryFilter{ItemID: 1, Kind: core.KindMaterialUse})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Reason != "Used for 2 x Work Table" {
		t.Errorf("Unexpected material-use entry: %+v", entries)
	}
}

func TestStock_ManufactureWithoutRecipe(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool, newTestLedger(pool), core.NewRecipeResolver(pool))
	ctx := context.Background()

	// The Stool has no recipe.
	_, err := stock.Manufacture(ctx, 5, 1)
	var recipeErr *core.NoRecipeError
	if !errors.As(err, &recipeErr) {
		t.Fatalf("Expected NoRecipeError, got %v", err)
	}
	if recipeErr.Item != "Stool" {
		t.Errorf("Expected error to name the Stool, got %q", recipeErr.Item)
	}
}

func TestStock_ManufactureInsufficientLeavesNoPartialState(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool, newTestLedger(pool), core.NewRecipeResolver(pool))
	ctx := context.Background()

	// 50 tables need 50 frames; only 40 exist. Fails on the first recipe line.
	_, err := stock.Manufacture(ctx, 4, 50)
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if stockErr.Item != "Steel Frame" {
		t.Errorf("Expected fail-fast on Steel Frame, got %q", stockErr.Item)
	}

	for itemID, want := range map[int]int64{1: 40, 2: 120, 3: 500, 4: 8} {
		if got := itemQuantity(t, pool, itemID); got != want {
			t.Errorf("Item %d: expected untouched quantity %d, got %d", itemID, want, got)
		}
	}
	if n := countEntries(t, pool, "1=1"); n != 0 {
		t.Errorf("Expected no ledger entries after failed manufacture, got %d", n)
	}
}
