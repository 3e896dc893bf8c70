package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketshoes/cartservice/internal/domain"
	apperrors "github.com/rocketshoes/cartservice/pkg/errors"
)

// DefaultKey is the durable slot for the serialized cart.
const DefaultKey = "rocketshoes:cart"

// CartRepository implements repository.CartRepository on a single Redis key.
type CartRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewCartRepository creates a Redis-backed cart repository. An empty key
// falls back to DefaultKey; a zero ttl means the slot never expires.
func NewCartRepository(client *redis.Client, key string, ttl time.Duration) *CartRepository {
	if key == "" {
		key = DefaultKey
	}
	return &CartRepository{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Load reads and deserializes the cart from the slot.
func (r *CartRepository) Load(ctx context.Context) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", r.key)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

// Save serializes the cart and overwrites the slot.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}
