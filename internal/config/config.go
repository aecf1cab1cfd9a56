package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stockwatch/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Mail struct {
		Sender    string `yaml:"sender"`
		Password  string `yaml:"password"`
		Recipient string `yaml:"recipient"`
		SMTPHost  string `yaml:"smtp_host"`
		SMTPPort  int    `yaml:"smtp_port"`
	} `yaml:"mail"`
	Notify struct {
		Console bool `yaml:"console"`
		DryRun  bool `yaml:"dry_run"`
	} `yaml:"notify"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Reference struct {
		Backend    string `yaml:"backend"`
		Path       string `yaml:"path"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"reference"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Watchlist []model.Category `yaml:"watchlist"`
	Lookbacks []model.Lookback `yaml:"lookbacks"`
	Proxy     string           `yaml:"proxy"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultWatchlist is the top ten tickers of each tracked sector.
func DefaultWatchlist() []model.Category {
	return []model.Category{
		{Name: "Semiconductor", Tickers: []string{"NVDA", "TSM", "ASML", "AMD", "INTC", "AVGO", "QCOM", "TXN", "MU", "ADI"}},
		{Name: "AI", Tickers: []string{"MSFT", "GOOG", "AMZN", "META", "ORCL", "IBM", "CRM", "NOW", "PATH", "AI"}},
		{Name: "Defense", Tickers: []string{"LMT", "RTX", "BA", "GD", "NOC", "HII", "LHX", "KBR", "LDOS", "BWXT"}},
	}
}

// DefaultLookbacks compares against 1, 5, 15, 30 and 60 sessions back.
func DefaultLookbacks() []model.Lookback {
	return []model.Lookback{
		{Label: "1d", Sessions: 1},
		{Label: "1w", Sessions: 5},
		{Label: "15d", Sessions: 15},
		{Label: "30d", Sessions: 30},
		{Label: "2m", Sessions: 60},
	}
}

// Load reads config from a YAML file, loads envFile into the environment
// (existing variables win), then applies environment variable overrides.
// Both files are optional.
func Load(path, envFile string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("[WARN] could not load %s: %v", envFile, err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		cfg.Mail.Sender = v
	}
	if v := os.Getenv("SENDER_PASSWORD"); v != "" {
		cfg.Mail.Password = v
	}
	if v := os.Getenv("RECIPIENT_EMAIL"); v != "" {
		cfg.Mail.Recipient = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Mail.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse SMTP_PORT: %w", err)
		}
		cfg.Mail.SMTPPort = port
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("QUOTE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("QUOTE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("REFERENCE_BACKEND"); v != "" {
		cfg.Reference.Backend = v
	}
	if v := os.Getenv("REFERENCE_FILE"); v != "" {
		cfg.Reference.Path = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Reference.SQLitePath = v
	}
	if v := os.Getenv("REPORT_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if os.Getenv("DRY_RUN") == "true" {
		cfg.Notify.DryRun = true
	}

	// Defaults
	if cfg.Mail.SMTPHost == "" {
		cfg.Mail.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Mail.SMTPPort == 0 {
		cfg.Mail.SMTPPort = 465
	}
	if cfg.Reference.Backend == "" {
		cfg.Reference.Backend = BackendFile
	}
	if cfg.Reference.Path == "" {
		cfg.Reference.Path = "data/stock_reference.json"
	}
	if cfg.Reference.SQLitePath == "" {
		cfg.Reference.SQLitePath = "data/stock_reference.db"
	}
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = DefaultWatchlist()
	}
	if len(cfg.Lookbacks) == 0 {
		cfg.Lookbacks = DefaultLookbacks()
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if !c.Notify.DryRun {
		if c.Mail.Sender == "" {
			return fmt.Errorf("mail.sender (SENDER_EMAIL) is required")
		}
		if c.Mail.Password == "" {
			return fmt.Errorf("mail.password (SENDER_PASSWORD) is required")
		}
		if c.Mail.Recipient == "" {
			return fmt.Errorf("mail.recipient (RECIPIENT_EMAIL) is required")
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Reference.Backend != BackendFile && c.Reference.Backend != BackendSQLite {
		return fmt.Errorf("reference.backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.Reference.Backend)
	}

	seenCategory := map[string]bool{}
	owner := map[string]string{}
	for _, cat := range c.Watchlist {
		if cat.Name == "" {
			return fmt.Errorf("watchlist: category name is required")
		}
		if seenCategory[cat.Name] {
			return fmt.Errorf("watchlist: duplicate category %q", cat.Name)
		}
		seenCategory[cat.Name] = true
		for _, t := range cat.Tickers {
			if t == "" {
				return fmt.Errorf("watchlist %s: empty ticker", cat.Name)
			}
			if prev, ok := owner[t]; ok {
				return fmt.Errorf("watchlist: ticker %s listed in both %s and %s", t, prev, cat.Name)
			}
			owner[t] = cat.Name
		}
	}

	seenLabel := map[string]bool{}
	for _, lb := range c.Lookbacks {
		if lb.Label == "" {
			return fmt.Errorf("lookbacks: label is required")
		}
		if lb.Sessions <= 0 {
			return fmt.Errorf("lookbacks %s: sessions must be positive", lb.Label)
		}
		if seenLabel[lb.Label] {
			return fmt.Errorf("lookbacks: duplicate label %q", lb.Label)
		}
		seenLabel[lb.Label] = true
	}
	return nil
}
