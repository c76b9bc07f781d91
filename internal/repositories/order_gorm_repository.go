package repositories

import (
	"errors"
	"fmt"

	"gearloom/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &order, nil
}

// GetByUser retrieves a user's orders, newest first.
func (r *GORMOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// CreateWithItems writes the header, items, and stock decrements in one
// transaction. Any guard failure rolls the whole order back, so inventory
// is never decremented without a matching order.
func (r *GORMOrderRepository) CreateWithItems(order *models.Order) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for _, item := range order.Items {
			if err := reserveStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// CancelAndRestock performs the pending -> cancelled transition and the
// restock in one transaction. The status flip is guarded on the current
// status, so a concurrent second cancel loses the race and cannot
// double-restock.
func (r *GORMOrderRepository) CancelAndRestock(orderID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
			Update("status", models.OrderStatusCancelled)
		if res.Error != nil {
			return fmt.Errorf("failed to cancel order %d: %w", orderID, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to cancel order %d: %w", orderID, err)
			}
			if count == 0 {
				return ErrOrderNotFound
			}
			return ErrOrderNotCancellable
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load items for order %d: %w", orderID, err)
		}
		for _, item := range items {
			err := restockProduct(tx, item.ProductID, item.Quantity)
			if errors.Is(err, ErrProductNotFound) {
				// The product was deleted after the order was placed;
				// there is nothing to restock.
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateStatus sets the status of an order without touching inventory.
func (r *GORMOrderRepository) UpdateStatus(id uint, status string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
