package hardcover

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when Execute is called without a document
	ErrEmptyQuery = errors.New("empty graphql query")
	// ErrMissingToken is returned when the client has no API token
	ErrMissingToken = errors.New("hardcover api token is not set")
)

// HTTPError represents an HTTP error response
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, string(e.Body))
}

// QueryError carries the operation that failed alongside the cause
type QueryError struct {
	// The underlying error that occurred
	Err error
	// Operation is the GraphQL operation name, if it could be determined
	Operation string
}

// Error implements the error interface
func (e *QueryError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s (operation: %s)", e.Err.Error(), e.Operation)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *QueryError) Unwrap() error {
	return e.Err
}

// WithOperation wraps an error with the operation name
func WithOperation(err error, operation string) error {
	if err == nil {
		return nil
	}
	return &QueryError{
		Err:       err,
		Operation: operation,
	}
}

// GetOperation returns the operation name from an error if it's a QueryError
func GetOperation(err error) (string, bool) {
	var qErr *QueryError
	if errors.As(err, &qErr) {
		return qErr.Operation, qErr.Operation != ""
	}
	return "", false
}
