// Package client holds the HTTP clients for the store API collaborators:
// the stock endpoint and the product catalog.
package client

import (
	"context"
	"net/http"
)

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}
