package report

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stockwatch/internal/calculator"
	"stockwatch/internal/collector"
	"stockwatch/internal/model"
	"stockwatch/internal/reference"
)

var testLookbacks = []model.Lookback{
	{Label: "1d", Sessions: 1},
	{Label: "1w", Sessions: 5},
	{Label: "2m", Sessions: 60},
}

func closes(vals ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func newTestBuilder(mf *collector.MockFetcher, store reference.Store, cats ...model.Category) *Builder {
	b := NewBuilder(Config{Categories: cats, Lookbacks: testLookbacks}, collector.NewPriceFetcher(mf, testLookbacks), store)
	b.Now = func() time.Time { return time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC) }
	b.NewID = func() string { return "run-1" }
	return b
}

// formatted flattens a report into the strings a reader would see.
func formatted(rep *model.Report) map[string][]string {
	out := map[string][]string{}
	for _, c := range rep.Categories {
		for _, r := range c.Rows {
			cells := []string{calculator.FormatPrice(r.Current), calculator.FormatDelta(r.ReferenceDelta)}
			for _, lb := range r.Lookbacks {
				cells = append(cells, lb.Label+"="+calculator.FormatDelta(lb.Delta))
			}
			out[r.Ticker] = cells
		}
	}
	return out
}

func TestBuild_SeedsReferenceOnFirstRun(t *testing.T) {
	mf := &collector.MockFetcher{Closes: map[string][]decimal.Decimal{
		"NVDA": closes(90, 95, 100, 101, 102, 103, 104, 105),
	}}
	store := reference.NewMemoryStore(nil)
	b := newTestBuilder(mf, store, model.Category{Name: "Semiconductor", Tickers: []string{"NVDA"}})

	rep, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rep.Seeded, []string{"NVDA"}) {
		t.Errorf("seeded = %v", rep.Seeded)
	}
	if store.Saves != 1 {
		t.Errorf("expected one save, got %d", store.Saves)
	}
	if got := store.Prices["NVDA"]; !got.Equal(decimal.NewFromInt(105)) {
		t.Errorf("stored reference = %s, want 105", got)
	}
	row := rep.Categories[0].Rows[0]
	if got := calculator.FormatDelta(row.ReferenceDelta); got != "+0.00%" {
		t.Errorf("reference delta on first observation = %s, want +0.00%%", got)
	}
	if rep.RunID != "run-1" {
		t.Errorf("run id = %q", rep.RunID)
	}
}

func TestBuild_ReferenceNeverChanges(t *testing.T) {
	mf := &collector.MockFetcher{Closes: map[string][]decimal.Decimal{"AMD": closes(100)}}
	store := reference.NewMemoryStore(nil)
	cat := model.Category{Name: "Semiconductor", Tickers: []string{"AMD"}}

	if _, err := newTestBuilder(mf, store, cat).Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, price := range []float64{105, 95} {
		mf.Closes["AMD"] = closes(100, price)
		rep, err := newTestBuilder(mf, store, cat).Build(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(rep.Seeded) != 0 {
			t.Errorf("unexpected seeding on later run: %v", rep.Seeded)
		}
		if !store.Prices["AMD"].Equal(decimal.NewFromInt(100)) {
			t.Errorf("reference moved to %s", store.Prices["AMD"])
		}
		want := map[float64]string{105: "+5.00%", 95: "-5.00%"}[price]
		if got := calculator.FormatDelta(rep.Categories[0].Rows[0].ReferenceDelta); got != want {
			t.Errorf("current %.0f: delta %s, want %s", price, got, want)
		}
	}
	if store.Saves != 1 {
		t.Errorf("store saved %d times, want only the seeding run", store.Saves)
	}
}

func TestBuild_SkipsFailedFetch(t *testing.T) {
	mf := &collector.MockFetcher{
		Closes: map[string][]decimal.Decimal{"LMT": closes(400, 410)},
		Errors: map[string]error{"BA": errors.New("connection reset")},
	}
	store := reference.NewMemoryStore(reference.Prices{"RTX": decimal.NewFromInt(120)})
	b := newTestBuilder(mf, store, model.Category{Name: "Defense", Tickers: []string{"BA", "LMT", "RTX"}})

	rep, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := rep.Categories[0].Rows
	if len(rows) != 1 || rows[0].Ticker != "LMT" {
		t.Fatalf("expected only LMT row, got %+v", rows)
	}
	if _, ok := store.Prices["BA"]; ok {
		t.Error("failed fetch must not create a reference")
	}
	if !store.Prices["RTX"].Equal(decimal.NewFromInt(120)) {
		t.Error("failed fetch must not alter an existing reference")
	}

	skipped := rep.Skipped()
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped outcomes, got %+v", skipped)
	}
	if skipped[0].Ticker != "BA" || skipped[1].Ticker != "RTX" {
		t.Errorf("unexpected skipped order: %+v", skipped)
	}
	if skipped[0].Reason == "" || skipped[1].Reason == "" {
		t.Error("skip reason should be recorded")
	}
	if len(rep.Outcomes) != 3 {
		t.Errorf("expected an outcome per ticker, got %d", len(rep.Outcomes))
	}
}

func TestBuild_LookbacksWithShortHistory(t *testing.T) {
	mf := &collector.MockFetcher{Closes: map[string][]decimal.Decimal{
		"PATH": closes(10, 11, 12, 13, 14, 15, 16),
	}}
	store := reference.NewMemoryStore(reference.Prices{"PATH": decimal.NewFromInt(8)})
	rep, err := newTestBuilder(mf, store, model.Category{Name: "AI", Tickers: []string{"PATH"}}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	got := formatted(rep)["PATH"]
	want := []string{"$16.00", "+100.00%", "1d=+6.67%", "1w=+45.45%", "2m=N/A"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if store.Saves != 0 {
		t.Error("store must not be written when nothing was seeded")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	mf := &collector.MockFetcher{Closes: map[string][]decimal.Decimal{
		"MSFT": closes(400, 401.5, 399.25, 402, 410.75, 405.1, 407.3),
		"GOOG": closes(170, 171, 169.9),
	}}
	store := reference.NewMemoryStore(reference.Prices{
		"MSFT": decimal.RequireFromString("388.12"),
		"GOOG": decimal.RequireFromString("150.5"),
	})
	cat := model.Category{Name: "AI", Tickers: []string{"MSFT", "GOOG"}}

	first, err := newTestBuilder(mf, store, cat).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := newTestBuilder(mf, store, cat).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(formatted(first), formatted(second)) {
		t.Errorf("runs differ:\n%v\n%v", formatted(first), formatted(second))
	}
}

func TestBuild_CategoryOrder(t *testing.T) {
	mf := &collector.MockFetcher{Closes: map[string][]decimal.Decimal{
		"A": closes(1), "B": closes(2), "C": closes(3),
	}}
	b := newTestBuilder(mf, reference.NewMemoryStore(nil),
		model.Category{Name: "Second", Tickers: []string{"C", "A"}},
		model.Category{Name: "First", Tickers: []string{"B"}},
		model.Category{Name: "Empty"},
	)
	rep, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range rep.Categories {
		names = append(names, c.Name)
	}
	if !reflect.DeepEqual(names, []string{"Second", "First", "Empty"}) {
		t.Errorf("category order = %v", names)
	}
	if rep.Categories[0].Rows[0].Ticker != "C" || rep.Categories[0].Rows[1].Ticker != "A" {
		t.Error("rows must follow watchlist order")
	}
	if rep.RowCount() != 3 {
		t.Errorf("row count = %d", rep.RowCount())
	}
	if !reflect.DeepEqual(mf.Calls, []string{"C", "A", "B"}) {
		t.Errorf("fetch order = %v", mf.Calls)
	}
}

func TestBuild_LoadError(t *testing.T) {
	mf := &collector.MockFetcher{Closes: map[string][]decimal.Decimal{"NVDA": closes(1)}}
	store := reference.NewMemoryStore(nil)
	store.LoadErr = reference.ErrCorrupt

	_, err := newTestBuilder(mf, store, model.Category{Name: "X", Tickers: []string{"NVDA"}}).Build(context.Background())
	if !errors.Is(err, reference.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if len(mf.Calls) != 0 {
		t.Error("nothing should be fetched when the store cannot be read")
	}
	if store.Saves != 0 {
		t.Error("corrupted state must not be overwritten")
	}
}

func TestBuild_SaveErrorKeepsReport(t *testing.T) {
	mf := &collector.MockFetcher{Closes: map[string][]decimal.Decimal{"NOC": closes(500)}}
	store := reference.NewMemoryStore(nil)
	store.SaveErr = errors.New("disk full")

	rep, err := newTestBuilder(mf, store, model.Category{Name: "Defense", Tickers: []string{"NOC"}}).Build(context.Background())
	if err == nil {
		t.Fatal("expected save error")
	}
	if rep == nil || rep.RowCount() != 1 {
		t.Fatalf("report should still be returned, got %+v", rep)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	mf := &collector.MockFetcher{Closes: map[string][]decimal.Decimal{"NVDA": closes(1)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := reference.NewMemoryStore(nil)
	_, err := newTestBuilder(mf, store, model.Category{Name: "X", Tickers: []string{"NVDA"}}).Build(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if store.Saves != 0 {
		t.Error("cancelled run must not save")
	}
}

func TestBuild_ZeroCloseIsNotSeeded(t *testing.T) {
	mf := &collector.MockFetcher{Closes: map[string][]decimal.Decimal{
		"NVDA": closes(0),
		"AMD":  closes(120),
	}}
	store := reference.NewFileStore(filepath.Join(t.TempDir(), "stock_reference.json"))
	cat := model.Category{Name: "Semiconductor", Tickers: []string{"NVDA", "AMD"}}

	rep, err := newTestBuilder(mf, store, cat).Build(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !reflect.DeepEqual(rep.Seeded, []string{"AMD"}) {
		t.Errorf("seeded = %v, want only AMD", rep.Seeded)
	}
	if skipped := rep.Skipped(); len(skipped) != 1 || skipped[0].Ticker != "NVDA" {
		t.Errorf("expected NVDA skipped, got %+v", skipped)
	}

	// The saved state must load back on the next run.
	mf.Closes["NVDA"] = closes(100)
	rep, err = newTestBuilder(mf, store, cat).Build(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(rep.Seeded, []string{"NVDA"}) {
		t.Errorf("seeded = %v, want NVDA", rep.Seeded)
	}
}
