package repositories

import (
	"sync"
	"time"

	"gearloom/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts  map[string][]models.CartItem
	drafts map[string]models.CheckoutDraft
	mu     sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts:  make(map[string][]models.CartItem),
		drafts: make(map[string]models.CheckoutDraft),
	}
}

// GetCart returns the owner's cart lines in insertion order.
func (r *MockCartRepository) GetCart(ownerID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.carts[ownerID]
	items := make([]models.CartItem, 0, len(stored))
	for _, item := range stored {
		if item.Quantity > 0 {
			items = append(items, item)
		}
	}
	return items, nil
}

// ReplaceCart replaces the owner's cart wholesale.
func (r *MockCartRepository) ReplaceCart(ownerID string, items []models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		item.OwnerID = ownerID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now()
		}
		kept = append(kept, item)
	}
	if len(kept) == 0 {
		delete(r.carts, ownerID)
		return nil
	}
	r.carts[ownerID] = kept
	return nil
}

// ClearCart deletes every cart row for the owner.
func (r *MockCartRepository) ClearCart(ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, ownerID)
	return nil
}

// SaveDraft upserts the user's checkout draft.
func (r *MockCartRepository) SaveDraft(draft *models.CheckoutDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drafts[draft.UserID] = *draft
	return nil
}

// GetDraft returns the user's checkout draft, or nil when none is saved.
func (r *MockCartRepository) GetDraft(userID string) (*models.CheckoutDraft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	draft, ok := r.drafts[userID]
	if !ok {
		return nil, nil
	}
	return &draft, nil
}

// ClearDraft deletes the user's checkout draft if present.
func (r *MockCartRepository) ClearDraft(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.drafts, userID)
	return nil
}
