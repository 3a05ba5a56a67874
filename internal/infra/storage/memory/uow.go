package memory

import (
	"context"
	"errors"
	"sync"

	"elaview/internal/app/uow"
	domainbooking "elaview/internal/domain/booking"
	domainspaces "elaview/internal/domain/spaces"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory hands out units over the in-memory repositories. Writable units
// run one at a time, which is enough to make check-then-save sequences atomic.
type Factory struct {
	SpacesRepo   domainspaces.Repository
	BookingsRepo domainbooking.Repository

	writeMu sync.Mutex
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.SpacesRepo == nil || f.BookingsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	unit := &Unit{spaces: f.SpacesRepo, bookings: f.BookingsRepo}
	if !opts.ReadOnly {
		f.writeMu.Lock()
		unit.release = f.writeMu.Unlock
	}
	return unit, nil
}

type Unit struct {
	spaces   domainspaces.Repository
	bookings domainbooking.Repository
	release  func()
	once     sync.Once
}

func (u *Unit) Spaces() domainspaces.Repository    { return u.spaces }
func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Commit(ctx context.Context) error {
	u.done()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.done()
	return nil
}

func (u *Unit) done() {
	u.once.Do(func() {
		if u.release != nil {
			u.release()
		}
	})
}

var _ uow.UoWFactory = (*Factory)(nil)
