package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotAvailable is printed in place of a delta that could not be computed.
const NotAvailable = "N/A"

// Delta is a percentage change. Invalid deltas render as NotAvailable.
type Delta struct {
	Pct   decimal.Decimal
	Valid bool
}

// LookbackDelta is the change over one lookback window.
type LookbackDelta struct {
	Label string
	Delta Delta
}

// ReportRow is one ticker line of a category table.
type ReportRow struct {
	Ticker         string
	Current        decimal.Decimal
	Reference      decimal.Decimal
	ReferenceDelta Delta
	Lookbacks      []LookbackDelta
}

// CategoryReport holds the rows of one category, in watchlist order.
type CategoryReport struct {
	Name string
	Rows []ReportRow
}

// OutcomeStatus tells whether a ticker made it into the report.
type OutcomeStatus string

const (
	OutcomeOK      OutcomeStatus = "OK"
	OutcomeSkipped OutcomeStatus = "SKIPPED"
)

// Outcome is the per-ticker result of a run.
type Outcome struct {
	Category string
	Ticker   string
	Status   OutcomeStatus
	Reason   string
}

// Report is the structured result of one run, consumed by the notifiers.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Lookbacks   []Lookback
	Categories  []CategoryReport
	Outcomes    []Outcome
	Seeded      []string
}

// Skipped returns the outcomes of tickers left out of the report.
func (r *Report) Skipped() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == OutcomeSkipped {
			out = append(out, o)
		}
	}
	return out
}

// RowCount returns the number of ticker rows across all categories.
func (r *Report) RowCount() int {
	n := 0
	for _, c := range r.Categories {
		n += len(c.Rows)
	}
	return n
}
