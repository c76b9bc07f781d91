package repositories_test

import (
	"sync"
	"testing"

	"gearloom/internal/models"
	"gearloom/internal/repositories"

	"github.com/stretchr/testify/assert"
)

func TestReserveStock_GuardedDecrement(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	assert.NoError(t, repo.Create(&models.Product{ID: "p1", Name: "Cable", InventoryCount: 5}))

	assert.NoError(t, repo.ReserveStock("p1", 3))
	assert.ErrorIs(t, repo.ReserveStock("p1", 3), repositories.ErrInsufficientStock)
	assert.NoError(t, repo.ReserveStock("p1", 2))
	assert.ErrorIs(t, repo.ReserveStock("p1", 1), repositories.ErrInsufficientStock)

	product, err := repo.GetByID("p1")
	assert.NoError(t, err)
	assert.Equal(t, 0, product.InventoryCount)

	assert.ErrorIs(t, repo.ReserveStock("missing", 1), repositories.ErrProductNotFound)
}

func TestReserveStock_ConcurrentReservationsNeverOversell(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	assert.NoError(t, repo.Create(&models.Product{ID: "p1", Name: "Cable", InventoryCount: 100}))

	const (
		workers = 50
		qty     = 3
	)

	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.ReserveStock("p1", qty); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	won := len(successes)
	assert.Equal(t, 33, won)

	product, err := repo.GetByID("p1")
	assert.NoError(t, err)
	assert.Equal(t, 100-won*qty, product.InventoryCount)
	assert.GreaterOrEqual(t, product.InventoryCount, 0)
}

func TestCreateWithItems_RollsBackReservationsOnFailure(t *testing.T) {
	products := repositories.NewMockProductRepository()
	orders := repositories.NewMockOrderRepository(products)
	assert.NoError(t, products.Create(&models.Product{ID: "p1", Name: "Cable", InventoryCount: 10}))
	assert.NoError(t, products.Create(&models.Product{ID: "p2", Name: "Hub", InventoryCount: 1}))

	order := &models.Order{
		UserID: "user-1",
		Status: models.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: "p1", Quantity: 4, UnitPrice: 22.0},
			{ProductID: "p2", Quantity: 2, UnitPrice: 129.0},
		},
	}
	assert.ErrorIs(t, orders.CreateWithItems(order), repositories.ErrInsufficientStock)

	// The first line's reservation was undone.
	p1, _ := products.GetByID("p1")
	assert.Equal(t, 10, p1.InventoryCount)
	p2, _ := products.GetByID("p2")
	assert.Equal(t, 1, p2.InventoryCount)

	listed, err := orders.GetByUser("user-1")
	assert.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCancelAndRestock_OnlyPendingOrders(t *testing.T) {
	products := repositories.NewMockProductRepository()
	orders := repositories.NewMockOrderRepository(products)
	assert.NoError(t, products.Create(&models.Product{ID: "p1", Name: "Cable", InventoryCount: 10}))

	order := &models.Order{
		UserID: "user-1",
		Status: models.OrderStatusPending,
		Items:  []models.OrderItem{{ProductID: "p1", Quantity: 3, UnitPrice: 22.0}},
	}
	assert.NoError(t, orders.CreateWithItems(order))
	assert.NoError(t, orders.UpdateStatus(order.ID, models.OrderStatusProcessing))

	assert.ErrorIs(t, orders.CancelAndRestock(order.ID), repositories.ErrOrderNotCancellable)
	assert.ErrorIs(t, orders.CancelAndRestock(9999), repositories.ErrOrderNotFound)

	// Still reserved.
	p1, _ := products.GetByID("p1")
	assert.Equal(t, 7, p1.InventoryCount)
}
