package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketshoes/cartservice/internal/domain"
	"github.com/rocketshoes/cartservice/pkg/httpclient"
)

// StockClient fetches available stock from the store API.
type StockClient struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewStockClient creates a stock client against the given base URL.
func NewStockClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *StockClient {
	return &StockClient{
		http:    doer,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Stock returns the current available quantity for a product. The result is
// a point-in-time snapshot and must not be cached by callers.
func (c *StockClient) Stock(ctx context.Context, productID int64) (*domain.Stock, error) {
	url := c.baseURL + "/stock/" + strconv.FormatInt(productID, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create stock request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call stock endpoint: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "stock")
	}
	defer resp.Body.Close()

	var stock domain.Stock
	if err := json.NewDecoder(resp.Body).Decode(&stock); err != nil {
		return nil, fmt.Errorf("decode stock response: %w", err)
	}

	c.logger.DebugContext(ctx, "stock fetched",
		slog.Int64("product_id", productID),
		slog.Int("amount", stock.Amount),
	)

	return &stock, nil
}
