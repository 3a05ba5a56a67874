package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elaview/internal/app/uow"
	domainbooking "elaview/internal/domain/booking"
	domainspaces "elaview/internal/domain/spaces"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing pool")

// Factory opens one database transaction per unit of work.
type Factory struct {
	Pool *pgxpool.Pool
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Pool == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	tx, err := f.Pool.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, err
	}
	return &Unit{
		tx:       tx,
		spaces:   NewSpaceRepository(tx),
		bookings: NewBookingRepository(tx),
	}, nil
}

type Unit struct {
	tx       pgx.Tx
	spaces   *SpaceRepository
	bookings *BookingRepository
}

func (u *Unit) Spaces() domainspaces.Repository { return u.spaces }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Commit(ctx context.Context) error {
	return u.tx.Commit(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// InjectContext lets stores outside the unit (outbox, idempotency) join the transaction.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return contextWithTx(ctx, u.tx)
}
