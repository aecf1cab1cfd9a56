package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stockwatch/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted quote service exposing
// GET {base}/api/v1/bars/daily?symbol=X&limit=N.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the quote service.
type restBar struct {
	Timestamp int64           `json:"timestamp"`
	Close     decimal.Decimal `json:"close"`
}

func (f *RESTFetcher) FetchDailyCloses(ctx context.Context, symbol string, sessions int) ([]model.Close, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d",
		f.BaseURL, url.QueryEscape(symbol), sessions)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var bars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	closes := make([]model.Close, 0, len(bars))
	for _, b := range bars {
		if !b.Close.IsPositive() {
			continue
		}
		closes = append(closes, model.Close{Time: time.Unix(b.Timestamp, 0).UTC(), Price: b.Close})
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("rest %s: %w", symbol, ErrNoData)
	}
	// Ensure chronological order
	sort.Slice(closes, func(i, j int) bool { return closes[i].Time.Before(closes[j].Time) })
	return trimCloses(closes, sessions), nil
}
