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

// CatalogClient fetches product display data from the store API.
type CatalogClient struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewCatalogClient creates a catalog client against the given base URL.
func NewCatalogClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *CatalogClient {
	return &CatalogClient{
		http:    doer,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Product returns the catalog record for a product.
func (c *CatalogClient) Product(ctx context.Context, productID int64) (*domain.Product, error) {
	url := c.baseURL + "/products/" + strconv.FormatInt(productID, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call products endpoint: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}
	defer resp.Body.Close()

	var product domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}

	return &product, nil
}
