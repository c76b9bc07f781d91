package handlers

import (
	"errors"
	"log"

	"gearloom/internal/repositories"
	"gearloom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for carts. Signed-in users operate on
// their persisted cart; anonymous callers supply an X-Guest-Cart-ID
// header and get a guest cart under the same API.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:productID", h.HandleSetQuantity)
	cartRoutes.Delete("/items/:productID", h.HandleRemoveItem)
	cartRoutes.Post("/clear", h.HandleClearCart)
}

// cartOwner resolves the cart owner key from the request: the
// authenticated user id when present, otherwise the guest cart header.
func cartOwner(c *fiber.Ctx) (string, bool) {
	if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
		return userID, true
	}
	if guestID := c.Get("X-Guest-Cart-ID"); guestID != "" {
		return services.GuestOwner(guestID), true
	}
	return "", false
}

func missingOwner(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Sign in or supply an X-Guest-Cart-ID header to use the cart.",
	})
}

// HandleGetCart returns the cart resolved against the live catalogue.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	owner, ok := cartOwner(c)
	if !ok {
		return missingOwner(c)
	}

	snapshot, err := h.service.Snapshot(owner)
	if err != nil {
		log.Printf("Error building cart snapshot for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(snapshot)
}

// AddItemRequest represents the body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// HandleAddItem adds a product to the cart, accumulating quantities.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	owner, ok := cartOwner(c)
	if !ok {
		return missingOwner(c)
	}

	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "product_id is required",
		})
	}

	if err := h.service.AddItem(owner, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		log.Printf("Error adding item to cart for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update cart",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Added to cart",
	})
}

// SetQuantityRequest represents the body for updating a cart line.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleSetQuantity sets the quantity for a product already in the cart;
// zero or less removes it.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	owner, ok := cartOwner(c)
	if !ok {
		return missingOwner(c)
	}

	var req SetQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.SetQuantity(owner, c.Params("productID"), req.Quantity); err != nil {
		if errors.Is(err, services.ErrNotInCart) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "That product was not in your cart.",
			})
		}
		log.Printf("Error updating cart for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update cart",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Updated your cart.",
	})
}

// HandleRemoveItem removes a product from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	owner, ok := cartOwner(c)
	if !ok {
		return missingOwner(c)
	}

	if err := h.service.RemoveItem(owner, c.Params("productID")); err != nil {
		log.Printf("Error removing cart item for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update cart",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Removed the product from your cart.",
	})
}

// HandleClearCart empties the cart entirely.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	owner, ok := cartOwner(c)
	if !ok {
		return missingOwner(c)
	}

	if err := h.service.Clear(owner); err != nil {
		log.Printf("Error clearing cart for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not clear cart",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Cleared your cart.",
	})
}
