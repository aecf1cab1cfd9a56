package notifier

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"

	"stockwatch/internal/model"
)

// Console renders the report to a terminal.
type Console struct {
	Out   io.Writer
	Style string
}

// NewConsole creates a Console writing plain styled text to stdout.
func NewConsole() *Console {
	return &Console{Out: os.Stdout, Style: "notty"}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Deliver(_ context.Context, rep *model.Report) error {
	out, err := glamour.Render(RenderMarkdown(rep), c.Style)
	if err != nil {
		return fmt.Errorf("render console report: %w", err)
	}
	_, err = io.WriteString(c.Out, out)
	return err
}
