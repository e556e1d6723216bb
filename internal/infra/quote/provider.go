// Package quote fetches the latest intraday stock price from an external
// market-data provider. Providers are reached through the Provider interface
// so the tools never depend on a specific vendor.
package quote

import (
	"context"
	"errors"
)

var (
	// ErrProviderUnavailable covers transport failures, timeouts, non-2xx
	// responses and bodies that are not JSON.
	ErrProviderUnavailable = errors.New("quote provider unavailable")
	// ErrSymbolNotFound is returned for well-formed responses that carry no
	// price for the symbol, including rate-limit notices.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// StockQuote holds the provider's strings verbatim.
type StockQuote struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Timestamp string `json:"timestamp"`
}

type Provider interface {
	// Fetch returns the most recent quote for symbol. One outbound request
	// per call, no retries.
	Fetch(ctx context.Context, symbol string) (*StockQuote, error)
}
