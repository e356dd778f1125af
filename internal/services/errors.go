package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is returned for bad input. Nothing has been written.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a status change violates the
	// order state machine.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrStaleState is returned when a guarded write lost a race with a
	// concurrent modification. Safe to re-read and retry.
	ErrStaleState = errors.New("record was modified concurrently")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidCredentials is returned for a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreUnavailable is returned for backing-store failures. No effect
	// was committed; the operation is safe to retry.
	ErrStoreUnavailable = errors.New("backing store unavailable")
)

// ConsumptionFailure describes one stock adjustment that could not be planned
// or applied while completing an order.
type ConsumptionFailure struct {
	InventoryItemID   int64   `json:"inventory_item_id,omitempty"`
	InventoryItemName string  `json:"inventory_item_name,omitempty"`
	MenuItemName      string  `json:"menu_item_name,omitempty"`
	Quantity          float64 `json:"quantity,omitempty"`
	Reason            string  `json:"reason"`
}

// PartialConsumptionError reports stock adjustments that failed while the
// rest succeeded. The order stays completed; the failures are surfaced for
// manual reconciliation via correction adjustments.
type PartialConsumptionError struct {
	OrderNumber string
	Failures    []ConsumptionFailure
}

func (e *PartialConsumptionError) Error() string {
	reasons := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		reasons = append(reasons, f.Reason)
	}
	return fmt.Sprintf("order %s: %d stock adjustment(s) failed: %s",
		e.OrderNumber, len(e.Failures), strings.Join(reasons, "; "))
}

// Actor identifies the authenticated staff member performing an operation.
// Passed explicitly; services never read an ambient session.
type Actor struct {
	ID   int64
	Name string
	Role string
}
