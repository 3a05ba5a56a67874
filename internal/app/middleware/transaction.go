package middleware

import (
	"context"
	"log/slog"

	"elaview/internal/app/commands"
	"elaview/internal/app/uow"
)

// SessionOnly marks commands that change booking-session state and never
// write spaces or bookings. They run without a unit of work.
type SessionOnly interface {
	SessionOnly()
}

// Transaction gives every other command a writable unit, committed when the
// handler returns without error.
func Transaction(factory uow.UoWFactory, logger *slog.Logger) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := next.Dispatch
		return commandFunc(func(ctx context.Context, cmd commands.Command) (res any, err error) {
			if _, ok := cmd.(SessionOnly); ok {
				return nextFn(ctx, cmd)
			}
			unit, err := factory.Begin(ctx, uow.TxOptions{})
			if err != nil {
				return nil, err
			}
			ctx = uow.Enter(ctx, unit)
			defer func() {
				if err == nil {
					return
				}
				if rbErr := unit.Rollback(ctx); rbErr != nil && logger != nil {
					logger.Warn("rollback failed", "command", cmd.Key(), "error", rbErr, "cause", err)
				}
			}()

			if res, err = nextFn(ctx, cmd); err != nil {
				return nil, err
			}
			if err = unit.Commit(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
