package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// pgxReader is satisfied by both *pgxpool.Pool and pgx.Tx (QueryRow + Query).
type pgxReader interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ItemInput describes a new catalog item. Quantity defaults to 0 and MinLevel
// to 10 when unspecified.
type ItemInput struct {
	Name      string
	Code      string
	Category  ItemCategory
	Quantity  int64
	MinLevel  *int64
	UnitPrice decimal.Decimal
}

// RecipeInput is one bill-of-materials line to save. The ingredient's display
// name is snapshotted server-side at write time.
type RecipeInput struct {
	IngredientID int
	QtyRequired  int64
}

// CatalogService manages item master data and recipes. It never writes ledger
// entries; quantity changes go through StockService only.
type CatalogService interface {
	CreateItem(ctx context.Context, in ItemInput) (*Item, error)
	// SetRecipe replaces the item's recipe wholesale (not merged).
	SetRecipe(ctx context.Context, itemID int, entries []RecipeInput) (*Item, error)
	// ListItems returns all items ordered by name ascending, recipes included.
	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, itemID int) (*Item, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateItem(ctx context.Context, in ItemInput) (*Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Msg: "is required"}
	}
	if in.Quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Msg: "must not be negative"}
	}
	if in.Category == "" {
		in.Category = RawMaterial
	}
	if in.Category != RawMaterial && in.Category != FinishedGood {
		return nil, &ValidationError{Field: "category", Msg: fmt.Sprintf("unknown category %q", in.Category)}
	}
	minLevel := int64(10)
	if in.MinLevel != nil {
		minLevel = *in.MinLevel
	}

	var item Item
	err := s.pool.QueryRow(ctx, `
		INSERT INTO items (name, code, category, quantity, min_level, unit_price, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, name, code, category, quantity, min_level, unit_price, updated_at
	`, in.Name, in.Code, in.Category, in.Quantity, minLevel, in.UnitPrice).Scan(
		&item.ID, &item.Name, &item.Code, &item.Category,
		&item.Quantity, &item.MinLevel, &item.UnitPrice, &item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return &item, nil
}

func (s *catalogService) SetRecipe(ctx context.Context, itemID int, entries []RecipeInput) (*Item, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var itemName string
	err = tx.QueryRow(ctx, "SELECT name FROM items WHERE id = $1", itemID).Scan(&itemName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "item", Ref: strconv.Itoa(itemID)}
		}
		return nil, fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}

	// Wholesale replace: drop the old recipe before inserting the new one.
	if _, err := tx.Exec(ctx, "DELETE FROM recipe_entries WHERE item_id = $1", itemID); err != nil {
		return nil, fmt.Errorf("failed to clear recipe for item %d: %w", itemID, err)
	}

	for i, entry := range entries {
		if entry.QtyRequired <= 0 {
			return nil, &ValidationError{Field: "qty_required", Msg: fmt.Sprintf("line %d: must be a positive integer", i+1)}
		}
		if entry.IngredientID == itemID {
			return nil, &ValidationError{Field: "ingredient_id", Msg: fmt.Sprintf("line %d: item cannot be its own ingredient", i+1)}
		}

		// Snapshot the ingredient's name at edit time so historical recipes
		// stay readable after renames.
		var ingredientName string
		err = tx.QueryRow(ctx, "SELECT name FROM items WHERE id = $1", entry.IngredientID).Scan(&ingredientName)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Resource: "ingredient", Ref: strconv.Itoa(entry.IngredientID)}
			}
			return nil, fmt.Errorf("failed to fetch ingredient %d: %w", entry.IngredientID, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO recipe_entries (item_id, position, ingredient_id, ingredient_name, qty_required)
			VALUES ($1, $2, $3, $4, $5)
		`, itemID, i+1, entry.IngredientID, ingredientName, entry.QtyRequired)
		if err != nil {
			return nil, fmt.Errorf("failed to insert recipe line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit recipe: %w", err)
	}

	return s.GetItem(ctx, itemID)
}

func (s *catalogService) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, code, category, quantity, min_level, unit_price, updated_at
		FROM items
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	index := make(map[int]int) // item id -> slice position
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Code, &it.Category,
			&it.Quantity, &it.MinLevel, &it.UnitPrice, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	recipeRows, err := s.pool.Query(ctx, `
		SELECT item_id, ingredient_id, ingredient_name, qty_required
		FROM recipe_entries
		ORDER BY item_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer recipeRows.Close()

	for recipeRows.Next() {
		var itemID int
		var entry RecipeEntry
		if err := recipeRows.Scan(&itemID, &entry.IngredientID, &entry.IngredientName, &entry.QtyRequired); err != nil {
			return nil, fmt.Errorf("failed to scan recipe entry: %w", err)
		}
		if pos, ok := index[itemID]; ok {
			items[pos].Recipe = append(items[pos].Recipe, entry)
		}
	}
	return items, recipeRows.Err()
}

func (s *catalogService) GetItem(ctx context.Context, itemID int) (*Item, error) {
	return fetchItemQ(ctx, s.pool, itemID)
}

// fetchItemTx loads an item with its recipe inside the caller's transaction.
func fetchItemTx(ctx context.Context, tx pgx.Tx, itemID int) (*Item, error) {
	return fetchItemQ(ctx, tx, itemID)
}

func fetchItemQ(ctx context.Context, q pgxReader, itemID int) (*Item, error) {
	var item Item
	err := q.QueryRow(ctx, `
		SELECT id, name, code, category, quantity, min_level, unit_price, updated_at
		FROM items
		WHERE id = $1
	`, itemID).Scan(&item.ID, &item.Name, &item.Code, &item.Category,
		&item.Quantity, &item.MinLevel, &item.UnitPrice, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "item", Ref: strconv.Itoa(itemID)}
		}
		return nil, fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}

	rows, err := q.Query(ctx, `
		SELECT ingredient_id, ingredient_name, qty_required
		FROM recipe_entries
		WHERE item_id = $1
		ORDER BY position
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe for item %d: %w", itemID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry RecipeEntry
		if err := rows.Scan(&entry.IngredientID, &entry.IngredientName, &entry.QtyRequired); err != nil {
			return nil, fmt.Errorf("failed to scan recipe entry: %w", err)
		}
		item.Recipe = append(item.Recipe, entry)
	}
	return &item, rows.Err()
}
