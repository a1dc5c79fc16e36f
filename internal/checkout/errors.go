package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder        = errors.New("order has no line items")
	ErrInvalidQuantity   = errors.New("line item quantity must be at least 1")
	ErrDuplicateLineItem = errors.New("duplicate product in line items")
	ErrNegativeAmount    = errors.New("total and shipping fee must be non-negative")

	// ErrCheckoutConflict is returned after the bounded retry loop gives
	// up on transaction conflicts. Nothing was persisted; the user may
	// simply try again.
	ErrCheckoutConflict = errors.New("checkout conflict, please try again")
)

// ProductNotFoundError reports a line item referencing a product that no
// longer exists. Reflects real catalog state, never retried.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError reports that stock fell below the requested
// quantity between cart population and checkout.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("not enough stock for %s: requested %d, available %d", name, e.Requested, e.Available)
}

// StoreUnavailableError wraps a failed store call (network, outage,
// open circuit). Nothing was persisted.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// isInputError reports whether err is a request validation failure, as
// opposed to a store round-trip outcome.
func isInputError(err error) bool {
	return errors.Is(err, ErrEmptyOrder) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrDuplicateLineItem) ||
		errors.Is(err, ErrNegativeAmount)
}
