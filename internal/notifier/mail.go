package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"stockwatch/internal/model"
)

// Mailer sends the HTML report over SMTP. Port 465 uses implicit TLS, other
// ports upgrade with STARTTLS when offered. There is a single attempt per run.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// NewMailer creates a Mailer. recipients may hold several comma-separated addresses.
func NewMailer(host string, port int, sender, password, recipients string) *Mailer {
	var to []string
	for _, r := range strings.Split(recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	return &Mailer{
		Host:     host,
		Port:     port,
		Username: sender,
		Password: password,
		From:     sender,
		To:       to,
		Timeout:  30 * time.Second,
	}
}

func (m *Mailer) Name() string { return "mail" }

func (m *Mailer) Deliver(ctx context.Context, rep *model.Report) error {
	if len(m.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	body, err := RenderHTML(rep)
	if err != nil {
		return err
	}
	msg := buildMessage(m.From, m.To, Subject(rep), messageID(rep.RunID, m.From), rep.GeneratedAt, body)
	return m.send(ctx, msg)
}

func (m *Mailer) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	nd := &net.Dialer{Timeout: m.Timeout}
	if m.Port == 465 {
		td := &tls.Dialer{NetDialer: nd, Config: &tls.Config{ServerName: m.Host}}
		return td.DialContext(ctx, "tcp", addr)
	}
	return nd.DialContext(ctx, "tcp", addr)
}

func (m *Mailer) send(ctx context.Context, msg []byte) error {
	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if m.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(m.Timeout))
	}

	c, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if m.Port != 465 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if m.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.Username, m.Password, m.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(m.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, to := range m.To {
		if err := c.Rcpt(to); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", to, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return c.Quit()
}

// messageID builds a Message-ID from the run id and the sender's domain.
func messageID(runID, from string) string {
	domain := "localhost"
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		domain = from[i+1:]
	}
	return "<" + runID + "@" + domain + ">"
}

func buildMessage(from string, to []string, subject, msgID string, date time.Time, htmlBody string) []byte {
	var b bytes.Buffer
	headers := [][2]string{
		{"From", from},
		{"To", strings.Join(to, ", ")},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", date.Format(time.RFC1123Z)},
		{"Message-ID", msgID},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(htmlBody, "\r\n", "\n"), "\n", "\r\n"))
	return b.Bytes()
}
