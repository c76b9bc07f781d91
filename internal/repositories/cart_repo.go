package repositories

import (
	"gearloom/internal/models"
)

// CartRepository defines the interface for persisted cart data access.
// Owner keys are either a user id or "guest:<id>"; the two are
// interchangeable representations of the same concept.
type CartRepository interface {
	// GetCart returns the cart lines for the owner in insertion order.
	// Lines with quantity <= 0 are excluded by construction.
	GetCart(ownerID string) ([]models.CartItem, error)

	// ReplaceCart replaces the owner's cart wholesale: all prior rows are
	// deleted and only lines with quantity > 0 are written back.
	ReplaceCart(ownerID string, items []models.CartItem) error

	// ClearCart deletes every cart row for the owner.
	ClearCart(ownerID string) error

	// SaveDraft upserts the user's checkout form draft.
	SaveDraft(draft *models.CheckoutDraft) error

	// GetDraft returns the user's draft, or nil when none is saved.
	GetDraft(userID string) (*models.CheckoutDraft, error)

	// ClearDraft deletes the user's draft if present.
	ClearDraft(userID string) error
}
