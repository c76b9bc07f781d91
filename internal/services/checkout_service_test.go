package services_test

import (
	"io"
	"log"
	"os"
	"testing"

	"gearloom/internal/models"
	"gearloom/internal/repositories"
	"gearloom/internal/services"
	"gearloom/pkg/fieldcrypt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// MockPublisher is a mock implementation of services.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

// StubOrderRepository is a testify mock of repositories.OrderRepository,
// used where a store failure has to be injected.
type StubOrderRepository struct {
	mock.Mock
}

func (m *StubOrderRepository) GetByID(id uint) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *StubOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *StubOrderRepository) CreateWithItems(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *StubOrderRepository) CancelAndRestock(orderID uint) error {
	args := m.Called(orderID)
	return args.Error(0)
}

func (m *StubOrderRepository) UpdateStatus(id uint, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

type checkoutFixture struct {
	service   *services.CheckoutService
	carts     *services.CartService
	cartRepo  *repositories.MockCartRepository
	products  *repositories.MockProductRepository
	orders    *repositories.MockOrderRepository
	publisher *MockPublisher
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	products := repositories.NewMockProductRepository()
	cartRepo := repositories.NewMockCartRepository()
	orders := repositories.NewMockOrderRepository(products)
	carts := services.NewCartService(cartRepo, products)
	publisher := new(MockPublisher)
	codec := fieldcrypt.New("test-secret")
	service := services.NewCheckoutService(orders, products, cartRepo, carts, codec, publisher)
	return &checkoutFixture{
		service:   service,
		carts:     carts,
		cartRepo:  cartRepo,
		products:  products,
		orders:    orders,
		publisher: publisher,
	}
}

func validCheckoutRequest() services.CheckoutRequest {
	return services.CheckoutRequest{
		RecipientName: "Jamie Rivera",
		Email:         "jamie@example.com",
		AddressLine1:  "12 Solder Lane",
		City:          "Portland",
		PostalCode:    "97201",
		Country:       "US",
		Region:        "OR",
	}
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	fx := newCheckoutFixture(t)

	outcome, err := fx.service.Checkout("user-1", validCheckoutRequest())
	assert.NoError(t, err)
	assert.False(t, outcome.Succeeded())
	assert.Contains(t, outcome.FieldErrors, "cart")
}

func TestCheckout_MissingFieldsReported(t *testing.T) {
	fx := newCheckoutFixture(t)
	seedProduct(t, fx.products, "p1", "Cable", 22.0, 10)
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 1))

	req := validCheckoutRequest()
	req.RecipientName = ""
	req.City = ""

	outcome, err := fx.service.Checkout("user-1", req)
	assert.NoError(t, err)
	assert.False(t, outcome.Succeeded())
	assert.Contains(t, outcome.FieldErrors, "RecipientName")
	assert.Contains(t, outcome.FieldErrors, "City")

	// No mutation: the cart and stock are untouched.
	lines, _ := fx.carts.Lines("user-1")
	assert.Len(t, lines, 1)
	product, _ := fx.products.GetByID("p1")
	assert.Equal(t, 10, product.InventoryCount)

	// The form draft survives for the retry.
	draft, err := fx.cartRepo.GetDraft("user-1")
	assert.NoError(t, err)
	assert.NotNil(t, draft)
}

func TestCheckout_EmailShapeValidation(t *testing.T) {
	fx := newCheckoutFixture(t)
	seedProduct(t, fx.products, "p1", "Cable", 22.0, 10)
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 1))

	for _, email := range []string{"no-at-sign", "a@nodot", "spaced @example.com", "trailing@dot.", "@example.com"} {
		req := validCheckoutRequest()
		req.Email = email
		outcome, err := fx.service.Checkout("user-1", req)
		assert.NoError(t, err)
		assert.Contains(t, outcome.FieldErrors, "Email", "email %q should be rejected", email)
	}
}

func TestCheckout_RegionMustMatchCountry(t *testing.T) {
	fx := newCheckoutFixture(t)
	seedProduct(t, fx.products, "p1", "Cable", 22.0, 10)
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 1))

	req := validCheckoutRequest()
	req.Country = "US"
	req.Region = "Narnia"

	outcome, err := fx.service.Checkout("user-1", req)
	assert.NoError(t, err)
	assert.Contains(t, outcome.FieldErrors, "Region")
}

func TestCheckout_UnknownCountryAcceptsAnyRegion(t *testing.T) {
	fx := newCheckoutFixture(t)
	seedProduct(t, fx.products, "p1", "Cable", 22.0, 10)
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 1))
	fx.publisher.On("Publish", "order.created", mock.Anything).Return(nil).Once()

	req := validCheckoutRequest()
	req.Country = "NL"
	req.Region = "Noord-Holland"

	outcome, err := fx.service.Checkout("user-1", req)
	assert.NoError(t, err)
	assert.True(t, outcome.Succeeded())
}

func TestCheckout_HappyPath(t *testing.T) {
	fx := newCheckoutFixture(t)
	seedProduct(t, fx.products, "p1", "Cable", 22.0, 5)
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 3))
	fx.publisher.On("Publish", "order.created", mock.Anything).Return(nil).Once()

	outcome, err := fx.service.Checkout("user-1", validCheckoutRequest())
	assert.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, models.OrderStatusPending, outcome.Order.Status)
	assert.Equal(t, 66.0, outcome.Order.TotalAmount)
	assert.Len(t, outcome.Order.Items, 1)
	assert.Equal(t, 3, outcome.Order.Items[0].Quantity)
	assert.Equal(t, 22.0, outcome.Order.Items[0].UnitPrice)
	assert.Equal(t, "Cable", outcome.Order.Items[0].ProductName)

	// Inventory reserved, cart and draft cleared.
	product, _ := fx.products.GetByID("p1")
	assert.Equal(t, 2, product.InventoryCount)
	lines, _ := fx.carts.Lines("user-1")
	assert.Empty(t, lines)
	draft, _ := fx.cartRepo.GetDraft("user-1")
	assert.Nil(t, draft)

	fx.publisher.AssertExpectations(t)
}

func TestCheckout_ContactFieldsEncryptedAtRest(t *testing.T) {
	fx := newCheckoutFixture(t)
	seedProduct(t, fx.products, "p1", "Cable", 22.0, 5)
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 1))
	fx.publisher.On("Publish", "order.created", mock.Anything).Return(nil).Once()

	outcome, err := fx.service.Checkout("user-1", validCheckoutRequest())
	assert.NoError(t, err)
	assert.True(t, outcome.Succeeded())

	stored, err := fx.orders.GetByID(outcome.Order.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, "Jamie Rivera", stored.RecipientName)
	assert.Contains(t, stored.RecipientName, "enc:v1:")
	assert.Contains(t, stored.Email, "enc:v1:")
}

func TestCheckout_PartialStockClampsAndAborts(t *testing.T) {
	fx := newCheckoutFixture(t)
	seedProduct(t, fx.products, "p1", "Cable", 22.0, 2)
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 5))

	outcome, err := fx.service.Checkout("user-1", validCheckoutRequest())
	assert.NoError(t, err)
	assert.False(t, outcome.Succeeded())
	assert.Len(t, outcome.StockConflicts, 1)
	assert.Contains(t, outcome.StockConflicts[0], "Cable")

	// The cart now reflects reality, stock is untouched, no order exists.
	lines, _ := fx.carts.Lines("user-1")
	assert.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	product, _ := fx.products.GetByID("p1")
	assert.Equal(t, 2, product.InventoryCount)
	orders, _ := fx.orders.GetByUser("user-1")
	assert.Empty(t, orders)
	assert.NotNil(t, outcome.AdjustedCart)
	assert.Equal(t, 44.0, outcome.AdjustedCart.Total)
}

func TestCheckout_ZeroStockDropsLine(t *testing.T) {
	fx := newCheckoutFixture(t)
	seedProduct(t, fx.products, "p1", "Cable", 22.0, 0)
	seedProduct(t, fx.products, "p2", "Hub", 129.0, 4)
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 1))
	assert.NoError(t, fx.carts.AddItem("user-1", "p2", 2))

	outcome, err := fx.service.Checkout("user-1", validCheckoutRequest())
	assert.NoError(t, err)
	assert.False(t, outcome.Succeeded())
	assert.Len(t, outcome.StockConflicts, 1)

	lines, _ := fx.carts.Lines("user-1")
	assert.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].ProductID)
	orders, _ := fx.orders.GetByUser("user-1")
	assert.Empty(t, orders)
}

func TestCheckout_SellerAttribution(t *testing.T) {
	fx := newCheckoutFixture(t)
	assert.NoError(t, fx.products.Create(&models.Product{ID: "p1", SellerID: "s1", Name: "Cable", Price: 22.0, InventoryCount: 5}))
	assert.NoError(t, fx.products.Create(&models.Product{ID: "p2", SellerID: "s1", Name: "Hub", Price: 129.0, InventoryCount: 5}))
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 1))
	assert.NoError(t, fx.carts.AddItem("user-1", "p2", 1))
	fx.publisher.On("Publish", "order.created", mock.Anything).Return(nil)

	outcome, err := fx.service.Checkout("user-1", validCheckoutRequest())
	assert.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, "s1", outcome.Order.SellerID)
}

func TestCheckout_MultiSellerCartStaysUnattributed(t *testing.T) {
	fx := newCheckoutFixture(t)
	assert.NoError(t, fx.products.Create(&models.Product{ID: "p1", SellerID: "s1", Name: "Cable", Price: 22.0, InventoryCount: 5}))
	assert.NoError(t, fx.products.Create(&models.Product{ID: "p2", SellerID: "s2", Name: "Hub", Price: 129.0, InventoryCount: 5}))
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 1))
	assert.NoError(t, fx.carts.AddItem("user-1", "p2", 1))
	fx.publisher.On("Publish", "order.created", mock.Anything).Return(nil)

	outcome, err := fx.service.Checkout("user-1", validCheckoutRequest())
	assert.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, "", outcome.Order.SellerID)
}

func TestCheckout_GuardFailureBehavesAsStockConflict(t *testing.T) {
	// A concurrent checkout can win the guarded decrement between our
	// re-check and the order write; that must come back as a stock
	// conflict, not a hard error.
	products := repositories.NewMockProductRepository()
	cartRepo := repositories.NewMockCartRepository()
	carts := services.NewCartService(cartRepo, products)
	orders := new(StubOrderRepository)
	service := services.NewCheckoutService(orders, products, cartRepo, carts, fieldcrypt.New("test-secret"), nil)

	seedProduct(t, products, "p1", "Cable", 22.0, 5)
	assert.NoError(t, carts.AddItem("user-1", "p1", 3))
	orders.On("CreateWithItems", mock.AnythingOfType("*models.Order")).Return(repositories.ErrInsufficientStock).Once()

	outcome, err := service.Checkout("user-1", validCheckoutRequest())
	assert.NoError(t, err)
	assert.False(t, outcome.Succeeded())
	assert.NotEmpty(t, outcome.StockConflicts)
	orders.AssertExpectations(t)
}

func TestCheckout_TotalRoundedToCents(t *testing.T) {
	fx := newCheckoutFixture(t)
	seedProduct(t, fx.products, "p1", "Paste", 10.55, 10)
	seedProduct(t, fx.products, "p2", "Jumpers", 14.50, 10)
	assert.NoError(t, fx.carts.AddItem("user-1", "p1", 3))
	assert.NoError(t, fx.carts.AddItem("user-1", "p2", 1))
	fx.publisher.On("Publish", "order.created", mock.Anything).Return(nil)

	outcome, err := fx.service.Checkout("user-1", validCheckoutRequest())
	assert.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 46.15, outcome.Order.TotalAmount)
}
