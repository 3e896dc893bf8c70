package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketshoes/cartservice/internal/domain"
	apperrors "github.com/rocketshoes/cartservice/pkg/errors"
)

// --- Mocks ---

type mockStockOracle struct {
	mock.Mock
}

func (m *mockStockOracle) Stock(ctx context.Context, productID int64) (*domain.Stock, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stock), args.Error(1)
}

type mockProductCatalog struct {
	mock.Mock
}

func (m *mockProductCatalog) Product(ctx context.Context, productID int64) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Load(ctx context.Context) (*domain.Cart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testDeps struct {
	stock   *mockStockOracle
	catalog *mockProductCatalog
	repo    *mockCartRepository
	events  *mockPublisher
}

func newTestStore(t *testing.T) (*Store, *testDeps) {
	t.Helper()
	deps := &testDeps{
		stock:   new(mockStockOracle),
		catalog: new(mockProductCatalog),
		repo:    new(mockCartRepository),
		events:  new(mockPublisher),
	}
	s := New(deps.stock, deps.catalog, deps.repo, deps.events, newTestLogger())
	return s, deps
}

func sneaker(id int64) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     "Tênis de Caminhada Leve Confortável",
		Price:    17990,
		ImageURL: "https://example.com/sneaker.jpg",
	}
}

func seedCart(t *testing.T, s *Store, deps *testDeps, items ...domain.LineItem) {
	t.Helper()
	deps.repo.On("Load", mock.Anything).Return(&domain.Cart{Items: items}, nil).Once()
	require.NoError(t, s.Hydrate(context.Background()))
}

// --- Hydration ---

func TestHydrate_EmptySlot(t *testing.T) {
	s, deps := newTestStore(t)
	deps.repo.On("Load", mock.Anything).Return(nil, apperrors.NotFound("cart", "rocketshoes:cart"))

	err := s.Hydrate(context.Background())

	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Items)
	deps.repo.AssertExpectations(t)
}

func TestHydrate_PersistedCart(t *testing.T) {
	s, deps := newTestStore(t)
	persisted := &domain.Cart{Items: []domain.LineItem{
		{ID: 1, Name: "Tênis", Price: 17990, Amount: 2},
	}}
	deps.repo.On("Load", mock.Anything).Return(persisted, nil)

	err := s.Hydrate(context.Background())

	require.NoError(t, err)
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Amount)
	deps.repo.AssertExpectations(t)
}

func TestHydrate_InvalidPayloadRejected(t *testing.T) {
	s, deps := newTestStore(t)
	// Amount below 1 and a duplicated product ID, both invariant violations.
	deps.repo.On("Load", mock.Anything).Return(&domain.Cart{Items: []domain.LineItem{
		{ID: 1, Name: "Tênis", Price: 17990, Amount: 0},
		{ID: 1, Name: "Tênis", Price: 17990, Amount: 2},
	}}, nil)

	err := s.Hydrate(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invariants")
	// Nothing from the bad payload is ever published.
	assert.Empty(t, s.Snapshot().Items)
	assert.True(t, s.Snapshot().Valid())
}

func TestHydrate_RepositoryFailure(t *testing.T) {
	s, deps := newTestStore(t)
	deps.repo.On("Load", mock.Anything).Return(nil, errors.New("redis: connection refused"))

	err := s.Hydrate(context.Background())

	assert.Error(t, err)
	deps.repo.AssertExpectations(t)
}

// --- AddProduct ---

func TestAddProduct_NewItem(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)
	deps.catalog.On("Product", ctx, int64(1)).Return(sneaker(1), nil)
	deps.repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)
	deps.events.On("PublishCartUpdated", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := s.AddProduct(ctx, 1)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1), cart.Items[0].ID)
	assert.Equal(t, 1, cart.Items[0].Amount)
	assert.Equal(t, int64(17990), cart.Items[0].Price)

	deps.stock.AssertExpectations(t)
	deps.catalog.AssertExpectations(t)
	deps.repo.AssertExpectations(t)
}

func TestAddProduct_ExistingItemIncrements(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, deps, domain.LineItem{ID: 1, Name: "Tênis", Price: 17990, Amount: 2})

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)
	deps.repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)
	deps.events.On("PublishCartUpdated", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := s.AddProduct(ctx, 1)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Amount)

	// No catalog lookup for a product already in the cart.
	deps.catalog.AssertNotCalled(t, "Product", mock.Anything, mock.Anything)
	deps.stock.AssertExpectations(t)
	deps.repo.AssertExpectations(t)
}

func TestAddProduct_AtStockCeiling(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, deps, domain.LineItem{ID: 1, Name: "Tênis", Price: 17990, Amount: 5})

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)

	cart, err := s.AddProduct(ctx, 1)

	assert.Nil(t, cart)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)

	// Rejection leaves the cart untouched and persists nothing.
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 5, snap.Items[0].Amount)
	deps.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAddProduct_ZeroStock(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()

	deps.stock.On("Stock", ctx, int64(7)).Return(&domain.Stock{ProductID: 7, Amount: 0}, nil)

	cart, err := s.AddProduct(ctx, 7)

	assert.Nil(t, cart)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)
	assert.Empty(t, s.Snapshot().Items)
}

func TestAddProduct_StockLookupFailure(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()

	deps.stock.On("Stock", ctx, int64(1)).Return(nil, errors.New("store api: connection refused"))

	cart, err := s.AddProduct(ctx, 1)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrOutOfStock)
	assert.Empty(t, s.Snapshot().Items)
	deps.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAddProduct_CatalogLookupFailure(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)
	deps.catalog.On("Product", ctx, int64(1)).Return(nil, errors.New("store api: 502"))

	cart, err := s.AddProduct(ctx, 1)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.Empty(t, s.Snapshot().Items)
	deps.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAddProduct_PersistFailureRollsBack(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)
	deps.catalog.On("Product", ctx, int64(1)).Return(sneaker(1), nil)
	deps.repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(errors.New("redis: broken pipe"))

	notified := false
	s.Subscribe(func(domain.Cart) { notified = true })

	cart, err := s.AddProduct(ctx, 1)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.Empty(t, s.Snapshot().Items)
	assert.False(t, notified)
	deps.events.AssertNotCalled(t, "PublishCartUpdated", mock.Anything, mock.Anything)
}

// --- RemoveProduct ---

func TestRemoveProduct_Success(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, deps,
		domain.LineItem{ID: 1, Name: "Tênis", Price: 17990, Amount: 1},
		domain.LineItem{ID: 2, Name: "Sapatênis", Price: 13990, Amount: 3},
		domain.LineItem{ID: 3, Name: "Chinelo", Price: 5990, Amount: 2},
	)

	deps.repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)
	deps.events.On("PublishCartUpdated", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := s.RemoveProduct(ctx, 2)

	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	// Insertion order of the survivors is preserved.
	assert.Equal(t, int64(1), cart.Items[0].ID)
	assert.Equal(t, int64(3), cart.Items[1].ID)
	deps.repo.AssertExpectations(t)
}

func TestRemoveProduct_NotInCart(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, deps, domain.LineItem{ID: 1, Name: "Tênis", Price: 17990, Amount: 1})

	cart, err := s.RemoveProduct(ctx, 99)

	assert.Nil(t, cart)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrItemNotFound)

	assert.Len(t, s.Snapshot().Items, 1)
	deps.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- UpdateProductAmount ---

func TestUpdateProductAmount_Success(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, deps, domain.LineItem{ID: 1, Name: "Tênis", Price: 17990, Amount: 2})

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)
	deps.repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)
	deps.events.On("PublishCartUpdated", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := s.UpdateProductAmount(ctx, 1, 4)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Amount)
	deps.repo.AssertExpectations(t)
}

func TestUpdateProductAmount_NonPositiveIsNoOp(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, deps, domain.LineItem{ID: 1, Name: "Tênis", Price: 17990, Amount: 2})

	notified := false
	s.Subscribe(func(domain.Cart) { notified = true })

	for _, amount := range []int{0, -3} {
		cart, err := s.UpdateProductAmount(ctx, 1, amount)

		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 2, cart.Items[0].Amount)
	}

	assert.False(t, notified)
	deps.stock.AssertNotCalled(t, "Stock", mock.Anything, mock.Anything)
	deps.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdateProductAmount_ExceedsStock(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, deps, domain.LineItem{ID: 1, Name: "Tênis", Price: 17990, Amount: 2})

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)

	cart, err := s.UpdateProductAmount(ctx, 1, 6)

	assert.Nil(t, cart)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)
	assert.Equal(t, 2, s.Snapshot().Items[0].Amount)
	deps.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdateProductAmount_NotInCart(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cart, err := s.UpdateProductAmount(ctx, 42, 3)

	assert.Nil(t, cart)
	assert.ErrorIs(t, err, apperrors.ErrItemNotFound)
}

// --- Subscriptions ---

func TestSubscribe_ReceivesCommittedCart(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)
	deps.catalog.On("Product", ctx, int64(1)).Return(sneaker(1), nil)
	deps.repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)
	deps.events.On("PublishCartUpdated", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	var received []domain.Cart
	s.Subscribe(func(c domain.Cart) { received = append(received, c) })

	_, err := s.AddProduct(ctx, 1)
	require.NoError(t, err)

	require.Len(t, received, 1)
	require.Len(t, received[0].Items, 1)
	assert.Equal(t, 1, received[0].Items[0].Amount)

	// Listeners get their own copy; mutating it must not leak into the store.
	received[0].Items[0].Amount = 99
	assert.Equal(t, 1, s.Snapshot().Items[0].Amount)
}

func TestSubscribe_UnsubscribeStopsNotifications(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, deps, domain.LineItem{ID: 1, Name: "Tênis", Price: 17990, Amount: 1})

	deps.repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)
	deps.events.On("PublishCartUpdated", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	calls := 0
	unsubscribe := s.Subscribe(func(domain.Cart) { calls++ })

	_, err := s.RemoveProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	unsubscribe()
	seedCart(t, s, deps, domain.LineItem{ID: 2, Name: "Sapatênis", Price: 13990, Amount: 1})

	_, err = s.RemoveProduct(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCommit_PublishFailureDoesNotFailOperation(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)
	deps.catalog.On("Product", ctx, int64(1)).Return(sneaker(1), nil)
	deps.repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)
	deps.events.On("PublishCartUpdated", ctx, mock.AnythingOfType("*domain.Cart")).
		Return(errors.New("kafka: broker unreachable"))

	cart, err := s.AddProduct(ctx, 1)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Len(t, s.Snapshot().Items, 1)
}

func TestStore_NilPublisher(t *testing.T) {
	deps := &testDeps{
		stock:   new(mockStockOracle),
		catalog: new(mockProductCatalog),
		repo:    new(mockCartRepository),
	}
	s := New(deps.stock, deps.catalog, deps.repo, nil, newTestLogger())
	ctx := context.Background()

	deps.stock.On("Stock", ctx, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 5}, nil)
	deps.catalog.On("Product", ctx, int64(1)).Return(sneaker(1), nil)
	deps.repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := s.AddProduct(ctx, 1)

	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

// --- Concurrency ---

func TestAddProduct_ConcurrentSameProduct(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()

	const adds = 4
	deps.stock.On("Stock", mock.Anything, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: adds}, nil)
	deps.catalog.On("Product", mock.Anything, int64(1)).Return(sneaker(1), nil)
	deps.repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)
	deps.events.On("PublishCartUpdated", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddProduct(ctx, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Every add observed the previous commit; no increment is lost.
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, adds, snap.Items[0].Amount)
}

func TestAddProduct_ConcurrentCeilingHolds(t *testing.T) {
	s, deps := newTestStore(t)
	ctx := context.Background()

	deps.stock.On("Stock", mock.Anything, int64(1)).Return(&domain.Stock{ProductID: 1, Amount: 2}, nil)
	deps.catalog.On("Product", mock.Anything, int64(1)).Return(sneaker(1), nil)
	deps.repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)
	deps.events.On("PublishCartUpdated", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var rejections int
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddProduct(ctx, 1); errors.Is(err, apperrors.ErrOutOfStock) {
				mu.Lock()
				rejections++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Amount)
	assert.Equal(t, 3, rejections)
}
