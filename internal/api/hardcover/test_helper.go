package hardcover

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RobBrazier/calibre-plugins/internal/logger"
)

// GraphQLRequest is the body Hardcover receives
type GraphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName,omitempty"`
}

// CreateTestClient creates a client pointed at server with rate limiting relaxed
func CreateTestClient(server *httptest.Server) *Client {
	log := logger.New(logger.Config{Level: "error", Format: logger.FormatJSON})
	return NewClientWithConfig(&ClientConfig{
		BaseURL:   server.URL,
		Timeout:   5 * time.Second,
		RateLimit: time.Millisecond,
		Burst:     100,
	}, "test-token", log)
}

// CreateTestClientWithHandler creates a test client with the provided handler
func CreateTestClientWithHandler(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return CreateTestClient(server), server
}

// DecodeGraphQLRequest reads the GraphQL body out of a test request
func DecodeGraphQLRequest(t *testing.T, r *http.Request) GraphQLRequest {
	t.Helper()
	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Errorf("failed to decode graphql request: %v", err)
	}
	return req
}

// WriteGraphQLData writes data wrapped in the GraphQL response envelope
func WriteGraphQLData(t *testing.T, w http.ResponseWriter, data interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
		t.Errorf("failed to encode graphql response: %v", err)
	}
}
