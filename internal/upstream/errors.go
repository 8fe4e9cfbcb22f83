// Package upstream defines the error taxonomy shared by all market-data
// provider clients and the adapter layer above them.
package upstream

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey indicates a provider credential is not configured.
// This is a configuration error surfaced at call time, not at startup.
var ErrMissingAPIKey = errors.New("provider API key not configured")

// ErrInvalidSymbol indicates the provider returned a response shape that
// means the symbol is unknown or delisted rather than a transport failure.
var ErrInvalidSymbol = errors.New("provider returned invalid symbol data")

// ErrTimeout indicates an adapter-level deadline expired before the
// provider responded. The underlying call is not cancelled; its result
// is discarded for this caller.
var ErrTimeout = errors.New("upstream call timed out")

// HTTPError is a non-2xx response from a provider.
type HTTPError struct {
	Provider string
	Status   int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Provider, e.Status)
}
