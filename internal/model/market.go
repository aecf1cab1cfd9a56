package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Close is the closing price of one trading session.
type Close struct {
	Time  time.Time
	Price decimal.Decimal
}

// Category groups the tickers reported together under one heading.
type Category struct {
	Name    string   `yaml:"name"`
	Tickers []string `yaml:"tickers"`
}

// Lookback compares the current price with the close a number of sessions back.
type Lookback struct {
	Label    string `yaml:"label"`
	Sessions int    `yaml:"sessions"`
}

// PriceObservation holds the latest close of a ticker and the closes at each
// lookback. A lookback missing from History did not have enough sessions.
type PriceObservation struct {
	Ticker  string
	Current decimal.Decimal
	History map[string]decimal.Decimal
	AsOf    time.Time
}
