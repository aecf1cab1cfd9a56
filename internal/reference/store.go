// Package reference persists the baseline price of each ticker.
//
// A baseline is captured the first time a ticker is observed and never
// updated afterwards; only clearing the store resets it.
package reference

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrCorrupt is returned when persisted state exists but cannot be read back.
var ErrCorrupt = errors.New("reference state is corrupted")

const keySuffix = "_reference"

// Prices maps a ticker to its reference price.
type Prices map[string]decimal.Decimal

// Clone returns a copy of p.
func (p Prices) Clone() Prices {
	out := make(Prices, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Store loads and saves the full reference mapping.
type Store interface {
	// Load returns the persisted mapping, or an empty one if nothing was saved yet.
	Load(ctx context.Context) (Prices, error)
	// Save replaces the persisted mapping with prices.
	Save(ctx context.Context, prices Prices) error
}

// Key returns the persisted key for ticker, e.g. "NVDA_reference".
func Key(ticker string) string { return ticker + keySuffix }

// TickerFromKey reverses Key. ok is false for keys without the suffix.
func TickerFromKey(key string) (ticker string, ok bool) {
	ticker, ok = strings.CutSuffix(key, keySuffix)
	return ticker, ok && ticker != ""
}
