package services

import (
	"encoding/json"
	"log"

	"gearloom/internal/models"
)

// EventPublisher is the slice of the RabbitMQ client the services need.
// A nil publisher disables events; publishing is always best-effort and
// never fails a request.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// publishOrderEvent emits an order lifecycle event (order.created,
// order.cancelled). Failures are logged and swallowed.
func publishOrderEvent(publisher EventPublisher, routingKey string, order *models.Order) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"orderID":   order.ID,
		"reference": order.Reference(),
		"userID":    order.UserID,
		"status":    order.Status,
		"total":     order.TotalAmount,
	})
	if err != nil {
		log.Printf("Failed to marshal order event: %v", err)
		return
	}
	if err := publisher.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event for order %d: %v", routingKey, order.ID, err)
	}
}
