// Package report builds the per-category price report and maintains the
// reference baselines it is measured against.
package report

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"stockwatch/internal/calculator"
	"stockwatch/internal/model"
	"stockwatch/internal/reference"
)

// Observer produces the current price observation of a ticker.
type Observer interface {
	Observe(ctx context.Context, ticker string) (*model.PriceObservation, error)
}

// Config is the static input of a run.
type Config struct {
	Categories []model.Category
	Lookbacks  []model.Lookback
}

// Builder computes reports from fresh observations and the reference store.
type Builder struct {
	Config   Config
	Observer Observer
	Store    reference.Store
	Now      func() time.Time
	NewID    func() string
}

// NewBuilder creates a new Builder.
func NewBuilder(cfg Config, obs Observer, store reference.Store) *Builder {
	return &Builder{
		Config:   cfg,
		Observer: obs,
		Store:    store,
		Now:      time.Now,
		NewID:    func() string { return uuid.NewString() },
	}
}

// Build runs one pass over the watchlist.
//
// Tickers that cannot be observed are recorded as skipped outcomes and get no
// row and no reference. Tickers seen for the first time are seeded with their
// current price; the store is saved once at the end, and only if something was
// seeded. A failed save is returned alongside the finished report.
func (b *Builder) Build(ctx context.Context) (*model.Report, error) {
	refs, err := b.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference prices: %w", err)
	}

	rep := &model.Report{
		RunID:       b.NewID(),
		GeneratedAt: b.Now(),
		Lookbacks:   b.Config.Lookbacks,
		Categories:  make([]model.CategoryReport, 0, len(b.Config.Categories)),
	}

	for _, cat := range b.Config.Categories {
		cr := model.CategoryReport{Name: cat.Name, Rows: []model.ReportRow{}}
		for _, ticker := range cat.Tickers {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			obs, err := b.Observer.Observe(ctx, ticker)
			if err != nil {
				log.Printf("[WARN] skipping %s: %v", ticker, err)
				rep.Outcomes = append(rep.Outcomes, model.Outcome{
					Category: cat.Name, Ticker: ticker, Status: model.OutcomeSkipped, Reason: err.Error(),
				})
				continue
			}

			ref, ok := refs[ticker]
			if !ok {
				ref = obs.Current
				refs[ticker] = ref
				rep.Seeded = append(rep.Seeded, ticker)
				log.Printf("[INFO] %s: reference price set to %s", ticker, ref)
			}

			cr.Rows = append(cr.Rows, model.ReportRow{
				Ticker:         ticker,
				Current:        obs.Current,
				Reference:      ref,
				ReferenceDelta: calculator.Change(obs.Current, ref),
				Lookbacks:      calculator.LookbackDeltas(obs, b.Config.Lookbacks),
			})
			rep.Outcomes = append(rep.Outcomes, model.Outcome{
				Category: cat.Name, Ticker: ticker, Status: model.OutcomeOK,
			})
		}
		rep.Categories = append(rep.Categories, cr)
	}

	if len(rep.Seeded) > 0 {
		if err := b.Store.Save(ctx, refs); err != nil {
			return rep, fmt.Errorf("save reference prices: %w", err)
		}
		log.Printf("[INFO] saved %d new reference price(s)", len(rep.Seeded))
	}
	return rep, nil
}
