package core_test

import (
	"errors"
	"fmt"
	"testing"

	"harmono-erp/internal/core"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t,
		&core.ValidationError{Field: "quantity", Msg: "must be a positive integer, got 0"},
		"validation failed: quantity: must be a positive integer, got 0")
	assert.EqualError(t,
		&core.NotFoundError{Resource: "item", Ref: "42"},
		"item 42 not found")
	assert.EqualError(t,
		&core.InsufficientStockError{Item: "Steel Frame", Required: 9, Available: 8},
		"not enough Steel Frame: need 9, have 8")
	assert.EqualError(t,
		&core.NoRecipeError{Item: "Stool"},
		"no recipe defined for Stool")
	assert.EqualError(t,
		&core.AlreadySettledError{OrderID: 7, Status: core.StatusCancelled},
		"order 7 already settled: status is CANCELLED")
	assert.EqualError(t,
		&core.AuthorizationError{Role: core.RoleFactory, Action: "issue work order"},
		"role factory may not issue work order")
}

// Errors must survive fmt.Errorf wrapping so adapters can map them by type.
func TestErrorsUnwrapThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to adjust stock for item 4: %w",
		&core.InsufficientStockError{Item: "Work Table", Required: 9, Available: 8})

	var stockErr *core.InsufficientStockError
	assert.True(t, errors.As(wrapped, &stockErr))
	assert.Equal(t, int64(8), stockErr.Available)
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, core.StatusPending.Terminal())
	assert.True(t, core.StatusCompleted.Terminal())
	assert.True(t, core.StatusCancelled.Terminal())
}

func TestLedgerEntrySigned(t *testing.T) {
	in := core.LedgerEntry{Direction: core.DirectionIn, Quantity: 5}
	out := core.LedgerEntry{Direction: core.DirectionOut, Quantity: 5}
	assert.Equal(t, int64(5), in.Signed())
	assert.Equal(t, int64(-5), out.Signed())
}
