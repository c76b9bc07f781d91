package models

import "time"

// CartItem is one line of a persisted cart. Guest carts and user carts
// share this table; the owner key distinguishes them ("guest:<id>" vs the
// user id). Rows with quantity <= 0 are never stored.
type CartItem struct {
	OwnerID   string    `json:"-" gorm:"primaryKey;type:varchar(64)"`
	ProductID string    `json:"product_id" gorm:"primaryKey;type:varchar(36)"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"-"`
}

// CheckoutDraft keeps the last submitted checkout form for a user so a
// failed attempt does not lose the shipping details. Contact fields are
// stored encrypted, like the order header they would become.
type CheckoutDraft struct {
	UserID        string    `json:"-" gorm:"primaryKey;type:varchar(36)"`
	RecipientName string    `json:"recipient_name"`
	Email         string    `json:"email"`
	AddressLine1  string    `json:"address_line1"`
	AddressLine2  string    `json:"address_line2,omitempty"`
	City          string    `json:"city"`
	PostalCode    string    `json:"postal_code"`
	Country       string    `json:"country"`
	Region        string    `json:"region"`
	UpdatedAt     time.Time `json:"-"`
}
