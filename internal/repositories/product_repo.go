package repositories

import (
	"gearloom/internal/models"
)

// ProductRepository defines the interface for product data access.
//
// Update is the admin overwrite path: last-write-wins, deliberately not
// race-guarded against concurrent checkouts. ReserveStock and
// RestockProduct are the only mutation paths the order workflows use.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error

	// ReserveStock atomically decrements inventory by qty, failing with
	// ErrInsufficientStock when the remaining stock cannot cover it.
	ReserveStock(id string, qty int) error

	// RestockProduct increments inventory by qty. Returns
	// ErrProductNotFound when the product no longer exists so callers can
	// skip the restock silently.
	RestockProduct(id string, qty int) error
}
