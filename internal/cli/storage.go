package cli

import (
	"context"
	"fmt"
	"log/slog"

	"elaview/internal/app/middleware"
	appoutbox "elaview/internal/app/outbox"
	"elaview/internal/app/uow"
	"elaview/internal/infra/config"
	mongostore "elaview/internal/infra/db/mongo"
	"elaview/internal/infra/db/postgres"
	"elaview/internal/infra/obs"
	infraoutbox "elaview/internal/infra/outbox"
	"elaview/internal/infra/storage/memory"
)

// eventStore is written by command handlers and drained by the relay worker.
type eventStore interface {
	appoutbox.Outbox
	infraoutbox.Store
}

type storage struct {
	factory     uow.UoWFactory
	events      eventStore
	idempotency middleware.IdempotencyStore
	checks      map[string]obs.Check
	close       func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "database", cfg.MongoDB)
		return &storage{
			factory:     mongostore.NewFactory(client.DB),
			events:      mongostore.NewOutboxStore(client.DB),
			idempotency: mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
			checks:      map[string]obs.Check{"mongo": client.Ping},
			close:       client.Close,
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver)
		return &storage{
			factory:     &postgres.Factory{Pool: pool},
			events:      postgres.NewOutboxStore(pool),
			idempotency: postgres.NewIdempotencyStore(pool, cfg.IdempotencyTTL),
			checks:      map[string]obs.Check{"postgres": postgres.Ping(pool)},
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil
	case config.DriverMemory, "":
		logger.Info("storage ready", "driver", config.DriverMemory)
		return &storage{
			factory: &memory.Factory{
				SpacesRepo:   memory.NewSpaceRepository(),
				BookingsRepo: memory.NewBookingRepository(),
			},
			events:      memory.NewOutbox(),
			idempotency: memory.NewIdempotencyStore(),
			checks:      map[string]obs.Check{},
			close:       func(context.Context) error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
