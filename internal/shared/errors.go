package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a missing customer, item, sale or ledger entry.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates a request that fails domain validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTxConflict indicates the store aborted the transaction due to a
	// concurrent writer. Callers may retry the whole operation.
	ErrTxConflict = errors.New("transaction conflict")
	// ErrConfiguration indicates the backing store is unavailable or unconfigured.
	ErrConfiguration = errors.New("store not configured")
)

// InsufficientStockError reports an oversell attempt on a single item.
type InsufficientStockError struct {
	ItemID    int64
	Title     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d (%s): requested %d, available %d",
		e.ItemID, e.Title, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err wraps an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
