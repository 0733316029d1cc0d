// Package quote defines the quote provider contract and its implementations.
package quote

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a ticker cannot be resolved. A provider
// outage is reported the same way: callers make no distinction between
// an unknown symbol and an unreachable backend.
var ErrNotFound = errors.New("quote: symbol not found")

// Quote is the normalized price record returned by all providers.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	YearlyHigh    float64 `json:"yearly_high"`
	YearlyLow     float64 `json:"yearly_low"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
}

// Provider resolves live price data for ticker symbols.
type Provider interface {
	// Lookup resolves a single symbol, or ErrNotFound.
	Lookup(ctx context.Context, symbol string) (*Quote, error)

	// BatchLookup resolves many symbols in one call. Symbols that cannot
	// be resolved are skipped rather than failing the batch. An empty
	// input yields an empty result, not an error.
	BatchLookup(ctx context.Context, symbols []string) ([]Quote, error)
}
