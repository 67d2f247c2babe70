package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling helpers
// that run standalone or inside a caller's transaction.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Requirement is one expanded recipe line: how much of an ingredient a build of
// the requested quantity consumes.
type Requirement struct {
	IngredientID   int
	IngredientName string
	Required       int64
}

// RecipeResolver expands an item's bill of materials into ingredient
// requirements and validates that live stock can cover them.
type RecipeResolver struct {
	pool *pgxpool.Pool
}

func NewRecipeResolver(pool *pgxpool.Pool) *RecipeResolver {
	return &RecipeResolver{pool: pool}
}

// Expand computes the ingredient requirements for building buildQty units of
// item, preserving recipe order. It does not touch the database; the caller
// must have loaded the item's recipe.
func (r *RecipeResolver) Expand(item *Item, buildQty int64) []Requirement {
	reqs := make([]Requirement, 0, len(item.Recipe))
	for _, entry := range item.Recipe {
		reqs = append(reqs, Requirement{
			IngredientID:   entry.IngredientID,
			IngredientName: entry.IngredientName,
			Required:       entry.QtyRequired * buildQty,
		})
	}
	return reqs
}

// ValidateSufficiency checks that every ingredient of item's recipe has enough
// live stock for buildQty units. It fails fast on the first insufficient
// ingredient in recipe order rather than aggregating a batch report, and
// returns NoRecipeError when the item has no recipe at all.
func (r *RecipeResolver) ValidateSufficiency(ctx context.Context, item *Item, buildQty int64) error {
	return r.ValidateSufficiencyTx(ctx, r.pool, item, buildQty)
}

// ValidateSufficiencyTx is ValidateSufficiency against a caller-provided
// transaction, used by the work order engine inside its issuance unit of work.
func (r *RecipeResolver) ValidateSufficiencyTx(ctx context.Context, q pgxQuerier, item *Item, buildQty int64) error {
	if len(item.Recipe) == 0 {
		return &NoRecipeError{Item: item.Name}
	}

	for _, req := range r.Expand(item, buildQty) {
		var available int64
		err := q.QueryRow(ctx, "SELECT quantity FROM items WHERE id = $1", req.IngredientID).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &NotFoundError{Resource: "ingredient", Ref: strconv.Itoa(req.IngredientID)}
			}
			return fmt.Errorf("failed to fetch ingredient %d: %w", req.IngredientID, err)
		}
		if available < req.Required {
			return &InsufficientStockError{Item: req.IngredientName, Required: req.Required, Available: available}
		}
	}
	return nil
}
