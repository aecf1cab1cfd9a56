package collector

import (
	"context"
	"errors"

	"stockwatch/internal/model"
)

// ErrNoData is returned when a source has no closes for a symbol.
var ErrNoData = errors.New("no price data")

// Fetcher defines the interface for fetching daily closes.
type Fetcher interface {
	// FetchDailyCloses returns up to sessions closes in chronological order.
	FetchDailyCloses(ctx context.Context, symbol string, sessions int) ([]model.Close, error)
	Name() string
}
