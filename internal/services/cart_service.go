package services

import (
	"errors"
	"fmt"
	"math"

	"gearloom/internal/models"
	"gearloom/internal/repositories"
)

// ErrNotInCart is returned when a quantity update targets a product the
// cart does not contain.
var ErrNotInCart = errors.New("product is not in the cart")

// GuestOwner maps a client-supplied guest cart id onto the cart owner key
// space, keeping guest carts and user carts in the same store.
func GuestOwner(guestID string) string {
	return "guest:" + guestID
}

// CartLine is one resolved line of a cart snapshot.
type CartLine struct {
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	LineTotal float64        `json:"line_total"`
}

// CartSnapshot is a cart resolved against the live catalogue, ready for
// display. Ids that no longer resolve to a product are skipped.
type CartSnapshot struct {
	Items []CartLine `json:"items"`
	Total float64    `json:"total"`
}

// CartService handles business logic for guest and user carts.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Lines returns the owner's cart lines in insertion order.
func (s *CartService) Lines(ownerID string) ([]models.CartItem, error) {
	return s.cartRepo.GetCart(ownerID)
}

// AddItem adds qty of a product to the owner's cart, accumulating onto an
// existing line. Quantities below one are coerced to one, matching the
// storefront's add-to-cart behaviour.
func (s *CartService) AddItem(ownerID, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return err
	}

	items, err := s.cartRepo.GetCart(ownerID)
	if err != nil {
		return err
	}
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += qty
			found = true
			break
		}
	}
	if !found {
		items = append(items, models.CartItem{ProductID: productID, Quantity: qty})
	}
	return s.cartRepo.ReplaceCart(ownerID, items)
}

// SetQuantity sets the quantity for a product already in the cart. A
// quantity of zero or less removes the line.
func (s *CartService) SetQuantity(ownerID, productID string, qty int) error {
	items, err := s.cartRepo.GetCart(ownerID)
	if err != nil {
		return err
	}
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = qty // ReplaceCart prunes non-positive lines
			found = true
			break
		}
	}
	if !found {
		return ErrNotInCart
	}
	return s.cartRepo.ReplaceCart(ownerID, items)
}

// RemoveItem removes a product from the cart. Removing a product that is
// not there is not an error.
func (s *CartService) RemoveItem(ownerID, productID string) error {
	items, err := s.cartRepo.GetCart(ownerID)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	return s.cartRepo.ReplaceCart(ownerID, kept)
}

// Clear empties the owner's cart.
func (s *CartService) Clear(ownerID string) error {
	return s.cartRepo.ClearCart(ownerID)
}

// Snapshot resolves the owner's cart against the catalogue, preserving
// cart ordering and silently skipping ids that no longer resolve. The
// total is rounded to two decimal places.
func (s *CartService) Snapshot(ownerID string) (*CartSnapshot, error) {
	items, err := s.cartRepo.GetCart(ownerID)
	if err != nil {
		return nil, err
	}
	return s.snapshotLines(items)
}

func (s *CartService) snapshotLines(items []models.CartItem) (*CartSnapshot, error) {
	snapshot := &CartSnapshot{Items: []CartLine{}}
	var total float64
	for _, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if errors.Is(err, repositories.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cart line %s: %w", item.ProductID, err)
		}
		lineTotal := product.Price * float64(item.Quantity)
		total += lineTotal
		snapshot.Items = append(snapshot.Items, CartLine{
			Product:   *product,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
		})
	}
	snapshot.Total = round2(total)
	return snapshot, nil
}

// MergeGuestCart folds a guest cart into the user's persisted cart at
// login, summing quantities per product. The guest cart is cleared
// afterwards. No stock check happens here; over-subscription is caught at
// checkout.
func (s *CartService) MergeGuestCart(guestID, userID string) error {
	guestOwner := GuestOwner(guestID)
	guestItems, err := s.cartRepo.GetCart(guestOwner)
	if err != nil {
		return err
	}
	if len(guestItems) == 0 {
		return nil
	}

	userItems, err := s.cartRepo.GetCart(userID)
	if err != nil {
		return err
	}

	merged := append([]models.CartItem(nil), userItems...)
	for _, guestItem := range guestItems {
		found := false
		for i := range merged {
			if merged[i].ProductID == guestItem.ProductID {
				merged[i].Quantity += guestItem.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, models.CartItem{ProductID: guestItem.ProductID, Quantity: guestItem.Quantity})
		}
	}

	if err := s.cartRepo.ReplaceCart(userID, merged); err != nil {
		return err
	}
	return s.cartRepo.ClearCart(guestOwner)
}

// round2 rounds a monetary amount to two decimal places.
func round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
