package uow

import (
	"context"

	domainbooking "elaview/internal/domain/booking"
	domainspaces "elaview/internal/domain/spaces"
)

// UnitOfWork groups repository access inside one transaction boundary.
type UnitOfWork interface {
	Spaces() domainspaces.Repository
	Bookings() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
