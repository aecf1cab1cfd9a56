package notifier

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"stockwatch/internal/calculator"
	"stockwatch/internal/model"
)

const dateLayout = "January 2, 2006"

// Subject returns the mail subject of a report.
func Subject(rep *model.Report) string {
	return "Multi-Period Stock Report - " + rep.GeneratedAt.Format(dateLayout)
}

// describeLookback explains what a lookback compares against.
func describeLookback(lb model.Lookback) string {
	if lb.Sessions == 1 {
		return "Yesterday's close"
	}
	return fmt.Sprintf("%d trading days ago", lb.Sessions)
}

// colorSpan wraps a formatted delta in a span carrying its direction.
func colorSpan(s string) string {
	switch {
	case strings.HasPrefix(s, "+"):
		return `<span class="positive">` + s + `</span>`
	case strings.HasPrefix(s, "-"):
		return `<span class="negative">` + s + `</span>`
	default:
		return s
	}
}

func plain(s string) string { return s }

// escapeText escapes text from the watchlist before it goes into markdown
// rendered with raw HTML enabled.
func escapeText(s string) string { return html.EscapeString(s) }

func escapeCell(s string) string { return strings.ReplaceAll(escapeText(s), "|", `\|`) }

// RenderMarkdown formats the report as markdown with one table per category.
// Deltas are plain text, suitable for terminals.
func RenderMarkdown(rep *model.Report) string {
	return renderMarkdown(rep, plain)
}

func renderMarkdown(rep *model.Report, decorate func(string) string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("## 📈 Multi-Period Stock Performance Report (%s)\n\n", rep.GeneratedAt.Format(dateLayout)))
	b.WriteString("Time period changes show today's price vs:\n\n")
	for _, lb := range rep.Lookbacks {
		b.WriteString(fmt.Sprintf("- **%s**: %s\n", lb.Label, describeLookback(lb)))
	}
	b.WriteString("\n")

	for _, cat := range rep.Categories {
		b.WriteString(fmt.Sprintf("### 🔧 %s Sector\n\n", escapeText(cat.Name)))
		if len(cat.Rows) == 0 {
			b.WriteString("_No data available this run._\n\n")
			continue
		}

		header := []string{"Symbol", "Current Price", "Change vs Reference"}
		for _, lb := range rep.Lookbacks {
			header = append(header, lb.Label+" Change")
		}
		b.WriteString("| " + strings.Join(header, " | ") + " |\n")
		b.WriteString(strings.Repeat("| --- ", len(header)) + "|\n")

		for _, row := range cat.Rows {
			cells := []string{
				escapeCell(row.Ticker),
				calculator.FormatPrice(row.Current),
				decorate(calculator.FormatDelta(row.ReferenceDelta)),
			}
			for _, ld := range row.Lookbacks {
				cells = append(cells, decorate(calculator.FormatDelta(ld.Delta)))
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
		b.WriteString("\n")
	}

	if skipped := rep.Skipped(); len(skipped) > 0 {
		tickers := make([]string, len(skipped))
		for i, o := range skipped {
			tickers[i] = escapeText(o.Ticker)
		}
		b.WriteString(fmt.Sprintf("Not available this run: %s\n\n", strings.Join(tickers, ", ")))
	}

	b.WriteString("_Note: Data from Yahoo Finance | Trading days only (excludes weekends/holidays)_\n")
	return b.String()
}

var pageTmpl = template.Must(template.New("page").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; }
table { border-collapse: collapse; width: 100%; margin-bottom: 20px; }
th { background-color: #f2f2f2; text-align: left; padding: 10px; }
td { padding: 10px; border-bottom: 1px solid #ddd; }
tr:hover { background-color: #f5f5f5; }
.positive { color: green; }
.negative { color: red; }
</style>
</head>
<body>
{{.}}
</body>
</html>
`))

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// RenderHTML formats the report as a standalone HTML document with
// color-coded deltas.
func RenderHTML(rep *model.Report) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(renderMarkdown(rep, colorSpan)), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	var page bytes.Buffer
	if err := pageTmpl.Execute(&page, template.HTML(body.String())); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return page.String(), nil
}
