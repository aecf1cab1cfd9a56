package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stockwatch/internal/collector"
	"stockwatch/internal/config"
	"stockwatch/internal/notifier"
	"stockwatch/internal/reference"
	"stockwatch/internal/report"
	"stockwatch/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)
	log.Println("[INFO] stockwatch starting...")

	if err := run(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

// run wires and runs the pipeline. Deferred cleanup happens before main exits.
func run() error {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	envFile := ".env"
	if v := os.Getenv("ENV_FILE"); v != "" {
		envFile = v
	}
	cfg, err := config.Load(cfgPath, envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init reference store
	var store reference.Store
	switch cfg.Reference.Backend {
	case config.BackendSQLite:
		ss, err := reference.NewSQLiteStore(cfg.Reference.SQLitePath)
		if err != nil {
			return fmt.Errorf("init sqlite reference store: %w", err)
		}
		defer ss.Close()
		store = ss
	default:
		store = reference.NewFileStore(cfg.Reference.Path)
		log.Printf("[INFO] reference file: %s", cfg.Reference.Path)
	}

	builder := report.NewBuilder(
		report.Config{Categories: cfg.Watchlist, Lookbacks: cfg.Lookbacks},
		collector.NewPriceFetcher(fetcher, cfg.Lookbacks),
		store,
	)

	// Init sinks
	var sinks []notifier.Sink
	if !cfg.Notify.DryRun {
		sinks = append(sinks, notifier.NewMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort,
			cfg.Mail.Sender, cfg.Mail.Password, cfg.Mail.Recipient))
	}
	if cfg.Telegram.BotToken != "" {
		sinks = append(sinks, notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy))
	}
	if cfg.Notify.Console || cfg.Notify.DryRun {
		sinks = append(sinks, notifier.NewConsole())
	}
	runner := scheduler.NewRunner(builder, sinks...)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule.Cron == "" {
		if _, err := runner.RunOnce(ctx); err != nil {
			return err
		}
		log.Println("[INFO] process completed")
		return nil
	}

	sched := scheduler.NewScheduler(ctx, runner)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return fmt.Errorf("register cron task: %w", err)
	}
	sched.Start()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing report now")
		go sched.RunNow()
	}

	log.Printf("[INFO] stockwatch is running on %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)
	<-ctx.Done()

	log.Println("[INFO] shutdown signal received, stopping...")
	sched.Stop()
	log.Println("[INFO] stockwatch stopped")
	return nil
}
