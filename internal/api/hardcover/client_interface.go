package hardcover

import (
	"context"
	"time"
)

// Executor runs a GraphQL document against Hardcover and returns the
// decoded "data" object. A nil map with a nil error means the server
// answered without data.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]interface{}, timeout time.Duration) (map[string]interface{}, error)
}

// HardcoverClientInterface is the full surface of the Hardcover client
type HardcoverClientInterface interface {
	Executor

	// GetAuthHeader returns the authentication header value
	GetAuthHeader() string
}

var _ HardcoverClientInterface = (*Client)(nil)
