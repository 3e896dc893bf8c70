package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketshoes/cartservice/internal/domain"
	pkgkafka "github.com/rocketshoes/cartservice/pkg/kafka"
)

// TopicCartUpdated carries the full cart after every committed mutation.
const TopicCartUpdated = "rocketshoes.cart.updated"

const (
	aggregateTypeCart = "cart"
	sourceCartService = "cart-service"

	// cartAggregateID keys all cart events: one cart per session.
	cartAggregateID = "cart"
)

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Items       []CartItemData `json:"items"`
	ItemCount   int            `json:"item_count"`
	TotalAmount int64          `json:"total_amount"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Amount    int    `json:"amount"`
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer for the cart service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event with the full cart.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Amount:    item.Amount,
		}
	}

	data := CartUpdatedData{
		Items:       items,
		ItemCount:   cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, cartAggregateID, aggregateTypeCart, sourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.Int("item_count", cart.ItemCount()),
	)

	return nil
}
