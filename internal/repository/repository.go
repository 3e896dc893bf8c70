package repository

import (
	"context"

	"github.com/rocketshoes/cartservice/internal/domain"
)

// CartRepository is the durable slot holding the serialized cart. The slot
// is read once at startup to seed initial state and overwritten wholesale
// after every successful mutation; there are no partial writes.
type CartRepository interface {
	// Load reads the last persisted cart. Returns an error wrapping
	// errors.ErrNotFound when the slot is empty.
	Load(ctx context.Context) (*domain.Cart, error)

	// Save overwrites the slot with the serialized cart.
	Save(ctx context.Context, cart *domain.Cart) error
}
