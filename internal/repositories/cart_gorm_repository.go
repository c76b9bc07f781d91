package repositories

import (
	"errors"
	"fmt"

	"gearloom/internal/models"

	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetCart retrieves the owner's cart lines ordered by insertion time.
func (r *GORMCartRepository) GetCart(ownerID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.
		Where("owner_id = ? AND quantity > 0", ownerID).
		Order("created_at, product_id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get cart for %s: %w", ownerID, err)
	}
	return items, nil
}

// ReplaceCart deletes all prior rows for the owner and writes the provided
// lines back, skipping anything with a non-positive quantity. The whole
// replacement happens in one transaction.
func (r *GORMCartRepository) ReplaceCart(ownerID string, items []models.CartItem) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", ownerID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			if items[i].Quantity <= 0 {
				continue
			}
			row := items[i]
			row.OwnerID = ownerID
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace cart for %s: %w", ownerID, err)
	}
	return nil
}

// ClearCart deletes every cart row for the owner.
func (r *GORMCartRepository) ClearCart(ownerID string) error {
	if err := r.db.Where("owner_id = ?", ownerID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart for %s: %w", ownerID, err)
	}
	return nil
}

// SaveDraft upserts the user's checkout draft.
func (r *GORMCartRepository) SaveDraft(draft *models.CheckoutDraft) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", draft.UserID).Delete(&models.CheckoutDraft{}).Error; err != nil {
			return err
		}
		return tx.Create(draft).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save checkout draft for %s: %w", draft.UserID, err)
	}
	return nil
}

// GetDraft returns the user's checkout draft, or nil when none is saved.
func (r *GORMCartRepository) GetDraft(userID string) (*models.CheckoutDraft, error) {
	var draft models.CheckoutDraft
	if err := r.db.First(&draft, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get checkout draft for %s: %w", userID, err)
	}
	return &draft, nil
}

// ClearDraft deletes the user's checkout draft if present.
func (r *GORMCartRepository) ClearDraft(userID string) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&models.CheckoutDraft{}).Error; err != nil {
		return fmt.Errorf("failed to clear checkout draft for %s: %w", userID, err)
	}
	return nil
}
