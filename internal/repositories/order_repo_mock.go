package repositories

import (
	"errors"
	"sort"
	"sync"
	"time"

	"gearloom/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// It needs a ProductRepository to apply the stock effects that the GORM
// implementation performs inside its transactions.
type MockOrderRepository struct {
	orders   map[uint]models.Order
	nextID   uint
	products ProductRepository
	mu       sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository(products ProductRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders:   make(map[uint]models.Order),
		nextID:   1,
		products: products,
	}
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	return &copied, nil
}

// GetByUser returns a user's orders, newest first.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			copied := order
			copied.Items = append([]models.OrderItem(nil), order.Items...)
			orders = append(orders, copied)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

// CreateWithItems reserves stock for every line, rolling back earlier
// reservations when a later one fails, then stores the order.
func (r *MockOrderRepository) CreateWithItems(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reserved := make([]models.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		if err := r.products.ReserveStock(item.ProductID, item.Quantity); err != nil {
			for _, prev := range reserved {
				// Undo what this attempt already took; ignore a product
				// that vanished in the meantime.
				if restockErr := r.products.RestockProduct(prev.ProductID, prev.Quantity); restockErr != nil && !errors.Is(restockErr, ErrProductNotFound) {
					return restockErr
				}
			}
			return err
		}
		reserved = append(reserved, item)
	}

	order.ID = r.nextID
	r.nextID++
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	r.orders[order.ID] = stored
	return nil
}

// CancelAndRestock flips a pending order to cancelled and restores stock.
func (r *MockOrderRepository) CancelAndRestock(orderID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return ErrOrderNotCancellable
	}

	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	r.orders[orderID] = order

	for _, item := range order.Items {
		err := r.products.RestockProduct(item.ProductID, item.Quantity)
		if errors.Is(err, ErrProductNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus sets the status of an order without touching inventory.
func (r *MockOrderRepository) UpdateStatus(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
