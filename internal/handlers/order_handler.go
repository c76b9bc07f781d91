package handlers

import (
	"errors"
	"log"
	"strconv"

	"gearloom/internal/repositories"
	"gearloom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app. The route
// group must already require authentication.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

func orderUser(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	return userID, ok && userID != ""
}

func orderID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// HandleGetOrders retrieves the signed-in user's orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	userID, ok := orderUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Sign in to view your orders.",
		})
	}

	orders, err := h.service.ListOrders(userID)
	if err != nil {
		log.Printf("Error getting orders for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}

	type orderView struct {
		Reference string      `json:"reference"`
		Order     interface{} `json:"order"`
	}
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, orderView{Reference: orders[i].Reference(), Order: orders[i]})
	}
	return c.JSON(views)
}

// HandleGetOrderByID retrieves a single order owned by the caller.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	userID, ok := orderUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Sign in to view your orders.",
		})
	}

	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	}

	order, err := h.service.GetOrder(id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error getting order %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"reference": order.Reference(),
		"order":     order,
	})
}

// HandleCancelOrder cancels a pending order and restores its reserved
// inventory. Orders belonging to other users look exactly like missing
// orders.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	userID, ok := orderUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Sign in to manage your orders.",
		})
	}

	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	}

	order, err := h.service.CancelOrder(id, userID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		case errors.Is(err, repositories.ErrOrderNotCancellable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Only pending orders can be cancelled.",
			})
		default:
			log.Printf("Error cancelling order %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not cancel order",
				"error":   err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"message":   "Order cancelled and stock restored.",
		"reference": order.Reference(),
		"status":    order.Status,
	})
}

// HandleUpdateOrderStatus updates the status of an order. This is the
// admin path and never moves inventory.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	}

	var updateData struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	if err := h.service.UpdateOrderStatus(id, updateData.Status); err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		log.Printf("Error updating order status for order %d: %v", id, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not update order status",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Order status updated",
	})
}
