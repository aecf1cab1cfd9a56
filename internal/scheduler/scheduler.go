package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"stockwatch/internal/model"
	"stockwatch/internal/notifier"
)

// Builder produces one report per call.
type Builder interface {
	Build(ctx context.Context) (*model.Report, error)
}

// Runner executes the fetch → compute → persist → notify pipeline once.
type Runner struct {
	Builder Builder
	Sinks   []notifier.Sink
}

// NewRunner creates a new Runner.
func NewRunner(b Builder, sinks ...notifier.Sink) *Runner {
	return &Runner{Builder: b, Sinks: sinks}
}

// RunOnce builds a report and hands it to every sink. Delivery failures are
// logged and do not fail the run. A reference save failure is logged and the
// report is still delivered.
func (r *Runner) RunOnce(ctx context.Context) (*model.Report, error) {
	log.Println("[INFO] generating multi-period stock report...")
	start := time.Now()

	rep, err := r.Builder.Build(ctx)
	if rep == nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	if err != nil {
		log.Printf("[ERROR] %v", err)
	}

	log.Printf("[INFO] report %s generated in %.2f seconds: %d rows, %d seeded, %d skipped",
		rep.RunID, time.Since(start).Seconds(), rep.RowCount(), len(rep.Seeded), len(rep.Skipped()))

	for _, s := range r.Sinks {
		if err := s.Deliver(ctx, rep); err != nil {
			log.Printf("[ERROR] deliver report via %s: %v", s.Name(), err)
			continue
		}
		log.Printf("[INFO] report delivered via %s", s.Name())
	}
	return rep, nil
}

// Scheduler runs the pipeline on a cron schedule.
type Scheduler struct {
	Cron   *cron.Cron
	Runner *Runner
	Ctx    context.Context
	job    cron.Job
}

// NewScheduler creates a new Scheduler. Cron ticks and RunNow share one job,
// and a run is skipped while another one is still going.
func NewScheduler(ctx context.Context, runner *Runner) *Scheduler {
	s := &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: runner,
		Ctx:    ctx,
	}
	s.job = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(cron.FuncJob(s.reportTask))
	return s
}

// Register adds the report task on spec (six fields, seconds first).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddJob(spec, s.job); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the report task immediately (RUN_ON_START). It does nothing
// if a scheduled run is in progress.
func (s *Scheduler) RunNow() {
	s.job.Run()
}

func (s *Scheduler) reportTask() {
	if _, err := s.Runner.RunOnce(s.Ctx); err != nil {
		log.Printf("[ERROR] report run: %v", err)
	}
}
