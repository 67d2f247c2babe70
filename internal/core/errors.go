package core

import "fmt"

// ValidationError reports missing or malformed input. Field names the offending
// input where one can be singled out.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Msg)
	}
	return "validation failed: " + e.Msg
}

// NotFoundError reports an unknown item, ingredient, order, or user.
type NotFoundError struct {
	Resource string // "item", "ingredient", "order", "user", "transaction"
	Ref      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Ref)
}

// InsufficientStockError blocks an issuance, manufacture, or manual deduction
// that would take an item's quantity below zero.
type InsufficientStockError struct {
	Item      string
	Required  int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough %s: need %d, have %d", e.Item, e.Required, e.Available)
}

// NoRecipeError reports an assembly issuance or manufacture attempt on an item
// with no recipe defined.
type NoRecipeError struct {
	Item string
}

func (e *NoRecipeError) Error() string {
	return fmt.Sprintf("no recipe defined for %s", e.Item)
}

// AlreadySettledError rejects a second settlement (or a cancel) of a work order
// that has already reached a terminal status.
type AlreadySettledError struct {
	OrderID int
	Status  OrderStatus
}

func (e *AlreadySettledError) Error() string {
	return fmt.Sprintf("order %d already settled: status is %s", e.OrderID, e.Status)
}

// AuthorizationError reports a role-forbidden action. The core does not
// authenticate; it only checks the supplied actor's role against the action.
type AuthorizationError struct {
	Role   Role
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %s may not %s", e.Role, e.Action)
}
