package notifier

import (
	"context"

	"stockwatch/internal/model"
)

// Sink delivers a finished report somewhere.
type Sink interface {
	Deliver(ctx context.Context, rep *model.Report) error
	Name() string
}
