package handlers

import (
	"log"

	"gearloom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles the checkout submission.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// RegisterRoutes registers the checkout route with the Fiber app. The
// route group must already require authentication.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)
}

// HandleCheckout runs the checkout workflow. The three outcomes map to
// 201 (order created), 400 (field validation), and 409 (stock conflict,
// cart adjusted, resubmit after review).
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Sign in to check out.",
		})
	}

	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	outcome, err := h.service.Checkout(userID, req)
	if err != nil {
		log.Printf("Error during checkout for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not complete checkout",
			"error":   err.Error(),
		})
	}

	switch {
	case outcome.Succeeded():
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":   "Order placed",
			"reference": outcome.Order.Reference(),
			"order_id":  outcome.Order.ID,
			"total":     outcome.Order.TotalAmount,
			"status":    outcome.Order.Status,
		})
	case len(outcome.FieldErrors) > 0:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  outcome.FieldErrors,
		})
	default:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":  "Your cart changed because of stock availability. Please review and resubmit.",
			"warnings": outcome.StockConflicts,
			"cart":     outcome.AdjustedCart,
		})
	}
}
