// Package store holds the cart reconciliation engine: the authoritative
// in-memory cart, the three mutation operations validated against live
// stock, and the atomic commit to subscribers and durable storage.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketshoes/cartservice/internal/domain"
	"github.com/rocketshoes/cartservice/internal/repository"
	apperrors "github.com/rocketshoes/cartservice/pkg/errors"
)

// StockOracle answers how many units of a product are available. Queried
// fresh on every add/update; results are never cached.
type StockOracle interface {
	Stock(ctx context.Context, productID int64) (*domain.Stock, error)
}

// ProductCatalog answers a product's display attributes, used when a
// product enters the cart for the first time.
type ProductCatalog interface {
	Product(ctx context.Context, productID int64) (*domain.Product, error)
}

// Publisher emits a domain event after each committed mutation. Publish
// failures never fail the operation.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
}

// Listener receives a copy of every committed cart.
type Listener func(domain.Cart)

// Store owns the cart. All mutations are serialized end to end through a
// single mutation lock, so the read-modify-write of each operation is
// atomic per product: two rapid adds for the same product each see the
// other's committed amount, and the stock ceiling holds under concurrency.
//
// A commit is the atomic triple of persist, publish, and notify. The
// persistence write happens first; if it fails nothing is published and
// the prior cart stays current.
type Store struct {
	stock   StockOracle
	catalog ProductCatalog
	repo    repository.CartRepository
	events  Publisher
	logger  *slog.Logger

	opMu sync.Mutex // serializes mutations, held across validation and commit

	mu      sync.RWMutex // guards cart and subs
	cart    domain.Cart
	subs    map[int]Listener
	nextSub int
}

// New creates a cart store with an empty cart. Call Hydrate to seed state
// from the repository before serving traffic.
func New(stock StockOracle, catalog ProductCatalog, repo repository.CartRepository, events Publisher, logger *slog.Logger) *Store {
	return &Store{
		stock:   stock,
		catalog: catalog,
		repo:    repo,
		events:  events,
		logger:  logger,
		subs:    make(map[int]Listener),
	}
}

// Hydrate seeds the in-memory cart from the last persisted value. An empty
// slot yields an empty cart; any other repository failure is returned.
func (s *Store) Hydrate(ctx context.Context) error {
	cart, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "no persisted cart, starting empty")
			return nil
		}
		return fmt.Errorf("hydrate cart: %w", err)
	}

	// A slot that deserializes but breaks the cart invariants is as corrupt
	// as one that fails to parse.
	if !cart.Valid() {
		return fmt.Errorf("hydrate cart: persisted payload violates cart invariants")
	}

	s.mu.Lock()
	s.cart = cart.Clone()
	s.mu.Unlock()
	cartLineItems.Set(float64(len(cart.Items)))

	s.logger.InfoContext(ctx, "cart hydrated",
		slog.Int("line_items", len(cart.Items)),
		slog.Int("units", cart.ItemCount()),
	)
	return nil
}

// Snapshot returns a copy of the current published cart.
func (s *Store) Snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Subscribe registers a listener for committed carts and returns an
// unsubscribe function. Listeners are invoked synchronously with their own
// copy, in no particular order.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// AddProduct adds one unit of the product to the cart. The next amount
// (current + 1) is validated against a fresh stock snapshot; products not
// yet in the cart are fetched from the catalog and appended with amount 1.
func (s *Store) AddProduct(ctx context.Context, productID int64) (*domain.Cart, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	cart := s.Snapshot()
	idx := cart.FindIndex(productID)
	next := cart.Amount(productID) + 1

	stock, err := s.stock.Stock(ctx, productID)
	if err != nil {
		cartOperations.WithLabelValues("add", resultFailed).Inc()
		return nil, fmt.Errorf("fetch stock for product %d: %w", productID, err)
	}

	if next > stock.Amount {
		cartOperations.WithLabelValues("add", resultRejected).Inc()
		s.logger.WarnContext(ctx, "add rejected, out of stock",
			slog.Int64("product_id", productID),
			slog.Int("requested", next),
			slog.Int("available", stock.Amount),
		)
		return nil, apperrors.OutOfStock(productID)
	}

	if idx >= 0 {
		cart.Items[idx].Amount = next
	} else {
		product, err := s.catalog.Product(ctx, productID)
		if err != nil {
			cartOperations.WithLabelValues("add", resultFailed).Inc()
			return nil, fmt.Errorf("fetch product %d: %w", productID, err)
		}
		cart.Items = append(cart.Items, domain.LineItem{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			ImageURL: product.ImageURL,
			Amount:   1,
		})
	}

	if err := s.commit(ctx, cart); err != nil {
		cartOperations.WithLabelValues("add", resultFailed).Inc()
		return nil, err
	}
	cartOperations.WithLabelValues("add", resultCommitted).Inc()

	s.logger.InfoContext(ctx, "product added to cart",
		slog.Int64("product_id", productID),
		slog.Int("amount", next),
	)

	committed := cart.Clone()
	return &committed, nil
}

// RemoveProduct removes the product's line item entirely. A product absent
// from the cart is a reported NotFound error, not a no-op.
func (s *Store) RemoveProduct(ctx context.Context, productID int64) (*domain.Cart, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	cart := s.Snapshot()
	idx := cart.FindIndex(productID)
	if idx < 0 {
		cartOperations.WithLabelValues("remove", resultRejected).Inc()
		return nil, apperrors.ItemNotFound(productID)
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.commit(ctx, cart); err != nil {
		cartOperations.WithLabelValues("remove", resultFailed).Inc()
		return nil, err
	}
	cartOperations.WithLabelValues("remove", resultCommitted).Inc()

	s.logger.InfoContext(ctx, "product removed from cart",
		slog.Int64("product_id", productID),
	)

	committed := cart.Clone()
	return &committed, nil
}

// UpdateProductAmount replaces the product's amount with the requested
// value. A non-positive amount is a silent no-op returning the unchanged
// cart. The requested amount is validated against a fresh stock snapshot.
// A product absent from the cart is a NotFound error, matching the remove
// policy.
func (s *Store) UpdateProductAmount(ctx context.Context, productID int64, amount int) (*domain.Cart, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	cart := s.Snapshot()

	if amount <= 0 {
		return &cart, nil
	}

	idx := cart.FindIndex(productID)
	if idx < 0 {
		cartOperations.WithLabelValues("update", resultRejected).Inc()
		return nil, apperrors.ItemNotFound(productID)
	}

	stock, err := s.stock.Stock(ctx, productID)
	if err != nil {
		cartOperations.WithLabelValues("update", resultFailed).Inc()
		return nil, fmt.Errorf("fetch stock for product %d: %w", productID, err)
	}

	if amount > stock.Amount {
		cartOperations.WithLabelValues("update", resultRejected).Inc()
		s.logger.WarnContext(ctx, "update rejected, out of stock",
			slog.Int64("product_id", productID),
			slog.Int("requested", amount),
			slog.Int("available", stock.Amount),
		)
		return nil, apperrors.OutOfStock(productID)
	}

	cart.Items[idx].Amount = amount

	if err := s.commit(ctx, cart); err != nil {
		cartOperations.WithLabelValues("update", resultFailed).Inc()
		return nil, err
	}
	cartOperations.WithLabelValues("update", resultCommitted).Inc()

	s.logger.InfoContext(ctx, "cart amount updated",
		slog.Int64("product_id", productID),
		slog.Int("amount", amount),
	)

	committed := cart.Clone()
	return &committed, nil
}

// commit persists the cart, publishes it as current state, and notifies
// subscribers. The persistence write comes first: if it fails, the prior
// cart remains current and no listener observes the attempted state.
func (s *Store) commit(ctx context.Context, cart domain.Cart) error {
	if err := s.repo.Save(ctx, &cart); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}

	s.mu.Lock()
	s.cart = cart.Clone()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	cartLineItems.Set(float64(len(cart.Items)))

	for _, fn := range listeners {
		fn(cart.Clone())
	}

	if s.events != nil {
		if err := s.events.PublishCartUpdated(ctx, &cart); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}
