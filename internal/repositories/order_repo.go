package repositories

import (
	"gearloom/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// append-only: headers gain status updates, but line items never change
// after creation.
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	GetByUser(userID string) ([]models.Order, error)

	// CreateWithItems persists the order header, its item snapshots, and
	// the matching guarded stock decrements as one atomic unit. A partial
	// write (header without items, or a decrement without an order) is
	// never observable; a failed guard returns ErrInsufficientStock and
	// leaves everything untouched.
	CreateWithItems(order *models.Order) error

	// CancelAndRestock flips a pending order to cancelled and restores
	// inventory by the quantities on its line items, atomically. Items
	// whose product no longer exists are skipped. Returns
	// ErrOrderNotCancellable when the order is not pending.
	CancelAndRestock(orderID uint) error

	// UpdateStatus sets an order's status without touching inventory.
	// This is the admin path; only CancelAndRestock restocks.
	UpdateStatus(id uint, status string) error
}
