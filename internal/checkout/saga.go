package checkout

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// compensator records an undo action for each applied side effect of a
// checkout attempt and replays them in reverse order when a later step fails.
// It is the single place compensation happens, so the stock-restore behaviour
// is identical on every failure path that triggers it.
type compensator struct {
	steps []compStep
}

type compStep struct {
	name string
	undo func(ctx context.Context) error
}

// add registers an undo action for a side effect that has just been applied.
func (c *compensator) add(name string, undo func(ctx context.Context) error) {
	c.steps = append(c.steps, compStep{name: name, undo: undo})
}

// rollback runs all registered undo actions in reverse order. Undo failures
// are logged and skipped: a half-finished rollback must still attempt the
// remaining steps.
func (c *compensator) rollback(ctx context.Context) {
	lg := zctx.From(ctx)
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.undo(ctx); err != nil {
			lg.Error("Compensation step failed",
				zap.String("step", step.name),
				zap.Error(err),
			)
			continue
		}
		lg.Debug("Compensated", zap.String("step", step.name))
	}
	c.steps = c.steps[:0]
}
