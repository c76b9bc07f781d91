package models

import (
	"fmt"
	"time"
)

// Order statuses. The set is open from the admin's point of view, but only
// the pending -> cancelled transition touches inventory.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusFulfilled  = "fulfilled"
	OrderStatusCancelled  = "cancelled"
)

// KnownOrderStatus reports whether the status belongs to the set the admin
// API accepts.
func KnownOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusFulfilled, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is an order header. Once created its items are immutable; the
// total is a snapshot and is never recomputed from the items. Contact and
// shipping fields are encrypted at rest and decrypted only for display.
type Order struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	UserID        string      `json:"user_id" gorm:"type:varchar(36);index"`
	SellerID      string      `json:"seller_id,omitempty" gorm:"type:varchar(36)"`
	Status        string      `json:"status" gorm:"type:varchar(20);index"`
	TotalAmount   float64     `json:"total_amount"`
	RecipientName string      `json:"recipient_name"`
	Email         string      `json:"email"`
	AddressLine1  string      `json:"address_line1"`
	AddressLine2  string      `json:"address_line2,omitempty"`
	City          string      `json:"city"`
	PostalCode    string      `json:"postal_code"`
	Country       string      `json:"country"`
	Region        string      `json:"region"`
	Items         []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Reference returns the human-readable order reference shown to customers.
// It is derived from the numeric id and is display-only, never a lookup key.
func (o *Order) Reference() string {
	return fmt.Sprintf("GL-%06d", o.ID)
}

// OrderItem is an immutable line snapshot. Name, SKU, and unit price are
// copied from the product at order time so history stays readable even if
// the live product is later edited or deleted.
type OrderItem struct {
	ID          uint    `json:"-" gorm:"primaryKey"`
	OrderID     uint    `json:"-" gorm:"index"`
	ProductID   string  `json:"product_id" gorm:"type:varchar(36)"`
	ProductName string  `json:"product_name"`
	SKU         string  `json:"sku" gorm:"column:sku;type:varchar(64)"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}
