package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"stockwatch/internal/model"
)

var defaultLookbacks = []model.Lookback{
	{Label: "1d", Sessions: 1},
	{Label: "1w", Sessions: 5},
	{Label: "15d", Sessions: 15},
	{Label: "30d", Sessions: 30},
	{Label: "2m", Sessions: 60},
}

func series(n int, start float64) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.NewFromFloat(start + float64(i))
	}
	return out
}

func TestObserve_FullHistory(t *testing.T) {
	// 100 closes valued 1..100; today is 100.
	mf := &MockFetcher{Closes: map[string][]decimal.Decimal{"NVDA": series(100, 1)}}
	pf := NewPriceFetcher(mf, defaultLookbacks)

	obs, err := pf.Observe(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !obs.Current.Equal(decimal.NewFromInt(100)) {
		t.Errorf("current = %s, want 100", obs.Current)
	}
	want := map[string]int64{"1d": 99, "1w": 95, "15d": 85, "30d": 70, "2m": 40}
	for label, p := range want {
		got, ok := obs.History[label]
		if !ok {
			t.Errorf("%s: missing", label)
			continue
		}
		if !got.Equal(decimal.NewFromInt(p)) {
			t.Errorf("%s: got %s, want %d", label, got, p)
		}
	}
}

func TestObserve_ShortHistory(t *testing.T) {
	// 10 closes: 1d and 1w are available, the rest are not.
	mf := &MockFetcher{Closes: map[string][]decimal.Decimal{"PATH": series(10, 1)}}
	obs, err := NewPriceFetcher(mf, defaultLookbacks).Observe(context.Background(), "PATH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, label := range []string{"1d", "1w"} {
		if _, ok := obs.History[label]; !ok {
			t.Errorf("%s should be available", label)
		}
	}
	for _, label := range []string{"15d", "30d", "2m"} {
		if _, ok := obs.History[label]; ok {
			t.Errorf("%s should not be available with 10 sessions", label)
		}
	}
}

func TestObserve_ExactBoundary(t *testing.T) {
	// Five closes cannot serve a five-session lookback; six can.
	mf := &MockFetcher{Closes: map[string][]decimal.Decimal{
		"A": series(5, 1),
		"B": series(6, 1),
	}}
	pf := NewPriceFetcher(mf, []model.Lookback{{Label: "1w", Sessions: 5}})
	a, _ := pf.Observe(context.Background(), "A")
	if _, ok := a.History["1w"]; ok {
		t.Error("A: 1w should be unavailable with 5 closes")
	}
	b, _ := pf.Observe(context.Background(), "B")
	if got := b.History["1w"]; !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("B: 1w = %s, want 1", got)
	}
}

func TestObserve_RequestsLongestLookbackPlusOne(t *testing.T) {
	rec := &recordingFetcher{}
	pf := NewPriceFetcher(rec, defaultLookbacks)
	_, _ = pf.Observe(context.Background(), "MSFT")
	if rec.sessions != 61 {
		t.Errorf("requested %d sessions, want 61", rec.sessions)
	}
}

func TestObserve_Errors(t *testing.T) {
	boom := errors.New("boom")
	mf := &MockFetcher{
		Closes: map[string][]decimal.Decimal{},
		Errors: map[string]error{"BAD": boom},
	}
	pf := NewPriceFetcher(mf, defaultLookbacks)

	if _, err := pf.Observe(context.Background(), "BAD"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}
	if _, err := pf.Observe(context.Background(), "NONE"); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestObserve_NonPositiveCurrent(t *testing.T) {
	mf := &MockFetcher{Closes: map[string][]decimal.Decimal{
		"ZERO": {decimal.NewFromInt(10), decimal.Zero},
		"NEG":  {decimal.NewFromInt(10), decimal.NewFromInt(-1)},
	}}
	pf := NewPriceFetcher(mf, defaultLookbacks)
	for _, ticker := range []string{"ZERO", "NEG"} {
		if _, err := pf.Observe(context.Background(), ticker); !errors.Is(err, ErrNoData) {
			t.Errorf("%s: expected ErrNoData, got %v", ticker, err)
		}
	}
}

type recordingFetcher struct{ sessions int }

func (r *recordingFetcher) Name() string { return "recording" }

func (r *recordingFetcher) FetchDailyCloses(_ context.Context, _ string, sessions int) ([]model.Close, error) {
	r.sessions = sessions
	return nil, ErrNoData
}
