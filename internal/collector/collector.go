package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockwatch/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Closes map[string][]decimal.Decimal
	Errors map[string]error
	Calls  []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCloses(_ context.Context, symbol string, sessions int) ([]model.Close, error) {
	m.Calls = append(m.Calls, symbol)
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	prices, ok := m.Closes[symbol]
	if !ok || len(prices) == 0 {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
	}
	end := time.Date(2026, 1, 30, 21, 0, 0, 0, time.UTC)
	closes := make([]model.Close, len(prices))
	for i, p := range prices {
		closes[i] = model.Close{Time: end.AddDate(0, 0, -(len(prices) - 1 - i)), Price: p}
	}
	return trimCloses(closes, sessions), nil
}

// PriceFetcher turns a ticker's daily closes into a PriceObservation.
type PriceFetcher struct {
	Fetcher   Fetcher
	Lookbacks []model.Lookback
}

// NewPriceFetcher creates a new PriceFetcher.
func NewPriceFetcher(fetcher Fetcher, lookbacks []model.Lookback) *PriceFetcher {
	return &PriceFetcher{Fetcher: fetcher, Lookbacks: lookbacks}
}

// sessionsNeeded is the close count covering the longest lookback plus today.
func (p *PriceFetcher) sessionsNeeded() int {
	n := 0
	for _, lb := range p.Lookbacks {
		if lb.Sessions > n {
			n = lb.Sessions
		}
	}
	return n + 1
}

// Observe fetches the most recent close of ticker and the close at each
// lookback. Lookbacks reaching past the available history are left out of
// History; a non-positive past close is treated the same way. A non-positive
// latest close is reported as ErrNoData.
func (p *PriceFetcher) Observe(ctx context.Context, ticker string) (*model.PriceObservation, error) {
	closes, err := p.Fetcher.FetchDailyCloses(ctx, ticker, p.sessionsNeeded())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", ticker, ErrNoData)
	}

	last := closes[len(closes)-1]
	if !last.Price.IsPositive() {
		return nil, fmt.Errorf("fetch %s: latest close %s: %w", ticker, last.Price, ErrNoData)
	}
	obs := &model.PriceObservation{
		Ticker:  ticker,
		Current: last.Price,
		History: make(map[string]decimal.Decimal, len(p.Lookbacks)),
		AsOf:    last.Time,
	}
	for _, lb := range p.Lookbacks {
		if lb.Sessions <= 0 || len(closes) <= lb.Sessions {
			continue
		}
		past := closes[len(closes)-1-lb.Sessions].Price
		if !past.IsPositive() {
			continue
		}
		obs.History[lb.Label] = past
	}
	return obs, nil
}
