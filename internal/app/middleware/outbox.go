package middleware

import (
	"context"
	"fmt"

	"elaview/internal/app/commands"
	"elaview/internal/app/outbox"
)

// OutboxFlush hands the events a command recorded to the outbox store before
// its unit commits. Session-only commands record none.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := next.Dispatch
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if _, ok := cmd.(SessionOnly); ok {
				return res, nil
			}
			if err := box.Flush(ctx); err != nil {
				return nil, fmt.Errorf("flush events of %s: %w", cmd.Key(), err)
			}
			return res, nil
		})
	}
}
