package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"elaview/internal/app/uow"
	domainbooking "elaview/internal/domain/booking"
	domainspaces "elaview/internal/domain/spaces"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Transactions require a replica set.
type Factory struct {
	DB *mongo.Database

	SpacesRepo   domainspaces.Repository
	BookingsRepo domainbooking.Repository
}

func NewFactory(db *mongo.Database) *Factory {
	return &Factory{
		DB:           db,
		SpacesRepo:   NewSpaceRepository(db),
		BookingsRepo: NewBookingRepository(db),
	}
}

// Begin starts a MongoDB session/transaction. Read-only units read from a snapshot.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{session: session, spaces: f.SpacesRepo, bookings: f.BookingsRepo}, nil
}

type Unit struct {
	session  mongo.Session
	spaces   domainspaces.Repository
	bookings domainbooking.Repository
}

func (u *Unit) Spaces() domainspaces.Repository { return u.spaces }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
