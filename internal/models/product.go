package models

import "gorm.io/gorm"

// Product represents a catalogue entry. InventoryCount is the single
// source of truth for stock; it never goes negative because checkout and
// cancellation mutate it only through the guarded repository updates.
type Product struct {
	ID             string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SellerID       string  `json:"seller_id,omitempty" gorm:"type:varchar(36);index"`
	Name           string  `json:"name" validate:"required,min=3,max=100"`
	Description    string  `json:"description" validate:"omitempty,max=500"`
	Price          float64 `json:"price" validate:"required,gt=0"`
	SKU            string  `json:"sku" gorm:"column:sku;type:varchar(64)" validate:"omitempty,max=64"`
	InventoryCount int     `json:"inventory_count" validate:"gte=0"`
	ImagePath      string  `json:"image_path,omitempty"`
	gorm.Model             // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
