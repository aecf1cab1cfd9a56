package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockwatch/internal/calculator"
	"stockwatch/internal/model"
)

const telegramBaseURL = "https://api.telegram.org"

// TelegramNotifier posts a compact summary via the Telegram Bot API.
type TelegramNotifier struct {
	BaseURL  string
	BotToken string
	ChatID   string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BaseURL:  telegramBaseURL,
		BotToken: botToken,
		ChatID:   chatID,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Deliver(ctx context.Context, rep *model.Report) error {
	return t.Send(ctx, FormatSummary(rep))
}

// FormatSummary formats the ticker price and change vs reference of every row
// as a Telegram HTML message.
func FormatSummary(rep *model.Report) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Stock Report</b> | %s\n", rep.GeneratedAt.Format("2006-01-02")))
	for _, cat := range rep.Categories {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n<pre>", html.EscapeString(cat.Name)))
		for _, row := range cat.Rows {
			b.WriteString(fmt.Sprintf("%-6s %12s %9s\n",
				html.EscapeString(row.Ticker),
				calculator.FormatPrice(row.Current),
				calculator.FormatDelta(row.ReferenceDelta)))
		}
		b.WriteString("</pre>")
	}
	if n := len(rep.Skipped()); n > 0 {
		b.WriteString(fmt.Sprintf("\n%d ticker(s) unavailable", n))
	}
	return b.String()
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.BotToken)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
