package services

import (
	"fmt"

	"gearloom/internal/models"
	"gearloom/internal/repositories"
	"gearloom/pkg/fieldcrypt"
)

// OrderService handles order listing, hydration, status updates, and the
// cancellation workflow.
type OrderService struct {
	orderRepo repositories.OrderRepository
	codec     *fieldcrypt.Codec
	publisher EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, codec *fieldcrypt.Codec, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		codec:     codec,
		publisher: publisher,
	}
}

// ListOrders returns the user's orders with contact fields decrypted for
// display.
func (s *OrderService) ListOrders(userID string) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := s.hydrate(&orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// GetOrder returns one of the user's orders. A missing order and an order
// owned by someone else are indistinguishable to the caller.
func (s *OrderService) GetOrder(orderID uint, userID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repositories.ErrOrderNotFound
	}
	if err := s.hydrate(order); err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder cancels one of the user's pending orders and restores the
// reserved inventory by exactly the quantities on its line items. Any
// status other than pending rejects the action, which also makes a second
// cancellation impossible.
func (s *OrderService) CancelOrder(orderID uint, userID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repositories.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return nil, repositories.ErrOrderNotCancellable
	}

	if err := s.orderRepo.CancelAndRestock(orderID); err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	publishOrderEvent(s.publisher, "order.cancelled", order)

	if err := s.hydrate(order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus is the admin path: it validates the status against the
// known set and never touches inventory. Setting fulfilled does not
// re-reserve and setting cancelled here does not restock; only the
// cancellation workflow moves stock.
func (s *OrderService) UpdateOrderStatus(id uint, status string) error {
	if !models.KnownOrderStatus(status) {
		return fmt.Errorf("invalid order status: %s", status)
	}
	return s.orderRepo.UpdateStatus(id, status)
}

// hydrate decrypts the order's contact fields in place. Legacy plaintext
// values pass through unchanged.
func (s *OrderService) hydrate(order *models.Order) error {
	fields := []*string{
		&order.RecipientName,
		&order.Email,
		&order.AddressLine1,
		&order.AddressLine2,
		&order.City,
		&order.PostalCode,
		&order.Country,
		&order.Region,
	}
	for _, field := range fields {
		plain, err := s.codec.Decrypt(*field)
		if err != nil {
			return fmt.Errorf("failed to decrypt order %d: %w", order.ID, err)
		}
		*field = plain
	}
	return nil
}
