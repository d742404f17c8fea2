package marketdata

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means no provider in the chain returned a usable series.
	ErrNoData = errors.New("marketdata: no candle data available")

	// ErrProviderSkipped marks a provider that cannot serve the request at
	// all (missing API key, unsupported asset class). The chain advances
	// without counting it as a failure.
	ErrProviderSkipped = errors.New("marketdata: provider skipped")
)

// ProviderError wraps an upstream fetch failure so the chain can log the
// provider name and keep going.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
