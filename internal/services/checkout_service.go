package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gearloom/internal/models"
	"gearloom/internal/repositories"
	"gearloom/pkg/fieldcrypt"

	"github.com/go-playground/validator/v10"
)

// CheckoutRequest is the typed checkout form. Validation is field-by-field
// and the outcome reports every failing field at once.
type CheckoutRequest struct {
	RecipientName string `json:"recipient_name" validate:"required"`
	Email         string `json:"email" validate:"required"`
	AddressLine1  string `json:"address_line1" validate:"required"`
	AddressLine2  string `json:"address_line2"`
	City          string `json:"city" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	Country       string `json:"country" validate:"required"`
	Region        string `json:"region" validate:"required"`
}

// CheckoutOutcome is the tagged result of a checkout attempt: exactly one
// of Order, FieldErrors, or StockConflicts is populated.
type CheckoutOutcome struct {
	Order          *models.Order     `json:"order,omitempty"`
	FieldErrors    map[string]string `json:"field_errors,omitempty"`
	StockConflicts []string          `json:"stock_conflicts,omitempty"`
	AdjustedCart   *CartSnapshot     `json:"adjusted_cart,omitempty"`
}

// Succeeded reports whether an order was created.
func (o *CheckoutOutcome) Succeeded() bool {
	return o.Order != nil
}

// CheckoutService orchestrates validation, the authoritative stock
// re-check, order creation, and cart cleanup.
type CheckoutService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	cartRepo    repositories.CartRepository
	carts       *CartService
	codec       *fieldcrypt.Codec
	publisher   EventPublisher
	validate    *validator.Validate
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	cartRepo repositories.CartRepository,
	carts *CartService,
	codec *fieldcrypt.Codec,
	publisher EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		carts:       carts,
		codec:       codec,
		publisher:   publisher,
		validate:    validator.New(),
	}
}

// Checkout runs the two-phase checkout. Validation failures and stock
// conflicts come back inside the outcome; the error return is reserved
// for store failures the caller cannot act on.
func (s *CheckoutService) Checkout(userID string, req CheckoutRequest) (*CheckoutOutcome, error) {
	lines, err := s.carts.Lines(userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &CheckoutOutcome{
			FieldErrors: map[string]string{"cart": "Your cart is empty."},
		}, nil
	}

	if fieldErrors := s.validateRequest(req); len(fieldErrors) > 0 {
		if err := s.saveDraft(userID, req); err != nil {
			log.Printf("Warning: failed to save checkout draft for user %s: %v", userID, err)
		}
		return &CheckoutOutcome{FieldErrors: fieldErrors}, nil
	}

	// Authoritative stock re-check against live inventory, not whatever
	// the cart page showed. Any adjustment aborts this submission so the
	// user never silently receives a different order than they reviewed.
	adjusted, conflicts, changed, err := s.recheckStock(lines)
	if err != nil {
		return nil, err
	}
	if changed {
		return s.stockConflictOutcome(userID, req, adjusted, conflicts)
	}

	order, err := s.buildOrder(userID, req, lines)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.CreateWithItems(order); err != nil {
		if errors.Is(err, repositories.ErrInsufficientStock) || errors.Is(err, repositories.ErrProductNotFound) {
			// A concurrent checkout won the guarded decrement after our
			// re-check passed. Same contract as the re-check step.
			current, currentErr := s.carts.Lines(userID)
			if currentErr != nil {
				return nil, currentErr
			}
			adjusted, conflicts, _, recheckErr := s.recheckStock(current)
			if recheckErr != nil {
				return nil, recheckErr
			}
			if len(conflicts) == 0 {
				conflicts = []string{"Stock changed while placing your order. Please review your cart and try again."}
			}
			return s.stockConflictOutcome(userID, req, adjusted, conflicts)
		}
		return nil, err
	}

	if err := s.cartRepo.ClearCart(userID); err != nil {
		log.Printf("Warning: failed to clear cart for user %s after checkout: %v", userID, err)
	}
	if err := s.cartRepo.ClearDraft(userID); err != nil {
		log.Printf("Warning: failed to clear checkout draft for user %s: %v", userID, err)
	}

	publishOrderEvent(s.publisher, "order.created", order)

	return &CheckoutOutcome{Order: order}, nil
}

// validateRequest checks the required fields, the email shape, and the
// country/region pairing, collecting one message per failing field.
func (s *CheckoutService) validateRequest(req CheckoutRequest) map[string]string {
	fieldErrors := make(map[string]string)

	if err := s.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				fieldErrors[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
		}
	}

	if req.Email != "" && !plausibleEmail(req.Email) {
		fieldErrors["Email"] = "Please enter a valid email address."
	}

	if req.Country != "" && req.Region != "" && !validRegion(req.Country, req.Region) {
		fieldErrors["Region"] = fmt.Sprintf("'%s' is not a region of %s.", req.Region, req.Country)
	}

	return fieldErrors
}

// plausibleEmail applies the storefront's lenient email shape check: an
// '@' followed later by a '.', with no embedded whitespace.
func plausibleEmail(email string) bool {
	if strings.ContainsAny(email, " \t\n") {
		return false
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return false
	}
	rest := email[at+1:]
	dot := strings.Index(rest, ".")
	return dot > 0 && dot < len(rest)-1
}

// recheckStock re-reads live inventory for every cart line. Lines with no
// stock (or no product) are dropped, over-subscribed lines are clamped,
// and each adjustment yields a user-facing message.
func (s *CheckoutService) recheckStock(lines []models.CartItem) ([]models.CartItem, []string, bool, error) {
	adjusted := make([]models.CartItem, 0, len(lines))
	var messages []string
	changed := false

	for _, line := range lines {
		product, err := s.productRepo.GetByID(line.ProductID)
		if errors.Is(err, repositories.ErrProductNotFound) {
			messages = append(messages, "An item in your cart is no longer available and was removed.")
			changed = true
			continue
		}
		if err != nil {
			return nil, nil, false, err
		}

		switch {
		case product.InventoryCount <= 0:
			messages = append(messages, fmt.Sprintf("%s is out of stock and was removed from your cart.", product.Name))
			changed = true
		case product.InventoryCount < line.Quantity:
			messages = append(messages, fmt.Sprintf("Only %d of %s are available; your cart was updated.", product.InventoryCount, product.Name))
			line.Quantity = product.InventoryCount
			adjusted = append(adjusted, line)
			changed = true
		default:
			adjusted = append(adjusted, line)
		}
	}

	return adjusted, messages, changed, nil
}

// stockConflictOutcome persists the adjusted cart, keeps the form draft,
// and surfaces the cart for the user to review and resubmit.
func (s *CheckoutService) stockConflictOutcome(userID string, req CheckoutRequest, adjusted []models.CartItem, conflicts []string) (*CheckoutOutcome, error) {
	if err := s.cartRepo.ReplaceCart(userID, adjusted); err != nil {
		return nil, err
	}
	if err := s.saveDraft(userID, req); err != nil {
		log.Printf("Warning: failed to save checkout draft for user %s: %v", userID, err)
	}
	snapshot, err := s.carts.Snapshot(userID)
	if err != nil {
		return nil, err
	}
	return &CheckoutOutcome{
		StockConflicts: conflicts,
		AdjustedCart:   snapshot,
	}, nil
}

// buildOrder assembles the pending order header and its immutable line
// snapshots from the cart resolved against the catalogue.
func (s *CheckoutService) buildOrder(userID string, req CheckoutRequest, lines []models.CartItem) (*models.Order, error) {
	items := make([]models.OrderItem, 0, len(lines))
	sellers := make(map[string]struct{})
	var total float64

	for _, line := range lines {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve product %s: %w", line.ProductID, err)
		}
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			SKU:         product.SKU,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
		})
		sellers[product.SellerID] = struct{}{}
		total += product.Price * float64(line.Quantity)
	}

	order := &models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: round2(total),
		Items:       items,
	}

	// Attribute the order to a seller only when every line shares exactly
	// one; multi-seller carts are allowed but stay unattributed.
	if len(sellers) == 1 {
		for sellerID := range sellers {
			order.SellerID = sellerID
		}
	}

	var err error
	if order.RecipientName, err = s.codec.Encrypt(req.RecipientName); err != nil {
		return nil, err
	}
	if order.Email, err = s.codec.Encrypt(req.Email); err != nil {
		return nil, err
	}
	if order.AddressLine1, err = s.codec.Encrypt(req.AddressLine1); err != nil {
		return nil, err
	}
	if order.AddressLine2, err = s.codec.Encrypt(req.AddressLine2); err != nil {
		return nil, err
	}
	if order.City, err = s.codec.Encrypt(req.City); err != nil {
		return nil, err
	}
	if order.PostalCode, err = s.codec.Encrypt(req.PostalCode); err != nil {
		return nil, err
	}
	if order.Country, err = s.codec.Encrypt(req.Country); err != nil {
		return nil, err
	}
	if order.Region, err = s.codec.Encrypt(req.Region); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *CheckoutService) saveDraft(userID string, req CheckoutRequest) error {
	draft := &models.CheckoutDraft{UserID: userID}
	var err error
	if draft.RecipientName, err = s.codec.Encrypt(req.RecipientName); err != nil {
		return err
	}
	if draft.Email, err = s.codec.Encrypt(req.Email); err != nil {
		return err
	}
	if draft.AddressLine1, err = s.codec.Encrypt(req.AddressLine1); err != nil {
		return err
	}
	if draft.AddressLine2, err = s.codec.Encrypt(req.AddressLine2); err != nil {
		return err
	}
	if draft.City, err = s.codec.Encrypt(req.City); err != nil {
		return err
	}
	if draft.PostalCode, err = s.codec.Encrypt(req.PostalCode); err != nil {
		return err
	}
	if draft.Country, err = s.codec.Encrypt(req.Country); err != nil {
		return err
	}
	if draft.Region, err = s.codec.Encrypt(req.Region); err != nil {
		return err
	}
	return s.cartRepo.SaveDraft(draft)
}
