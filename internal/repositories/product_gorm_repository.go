package repositories

import (
	"errors"
	"fmt"

	"gearloom/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database. This is the admin
// overwrite path and intentionally writes whatever inventory count it was
// handed (last-write-wins).
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete deletes a product by its ID from the database. Historic order
// item snapshots carry their own copies of name/sku/price, so deletion is
// allowed even when the product appears on past orders.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ReserveStock decrements inventory with a conditional update so the count
// can never be observed negative, even under concurrent checkouts.
func (r *GORMProductRepository) ReserveStock(id string, qty int) error {
	return reserveStock(r.db, id, qty)
}

// RestockProduct adds qty back to a product's inventory.
func (r *GORMProductRepository) RestockProduct(id string, qty int) error {
	return restockProduct(r.db, id, qty)
}

// reserveStock runs the guarded decrement on the given handle, which may
// be a transaction. An affected-row count of zero means either the guard
// rejected the decrement or the product is gone; the follow-up read tells
// the two apart.
func reserveStock(db *gorm.DB, id string, qty int) error {
	res := db.Model(&models.Product{}).
		Where("id = ? AND inventory_count >= ?", id, qty).
		UpdateColumn("inventory_count", gorm.Expr("inventory_count - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to reserve stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to reserve stock for product %s: %w", id, err)
		}
		if count == 0 {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func restockProduct(db *gorm.DB, id string, qty int) error {
	res := db.Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("inventory_count", gorm.Expr("inventory_count + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to restock product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
