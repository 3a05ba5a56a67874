package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"elaview/internal/app/autosave"
	"elaview/internal/app/commands"
	"elaview/internal/app/dto"
	bookingapp "elaview/internal/app/handlers/booking"
	sessionsapp "elaview/internal/app/handlers/sessions"
	spacesapp "elaview/internal/app/handlers/spaces"
	"elaview/internal/app/handlers/support"
	"elaview/internal/app/middleware"
	"elaview/internal/app/outbox"
	"elaview/internal/app/policies"
	"elaview/internal/app/queries"
	"elaview/internal/domain/draft"
	"elaview/internal/infra/broker/kafka"
	"elaview/internal/infra/cache/redis"
	"elaview/internal/infra/config"
	ginserver "elaview/internal/infra/http/gin"
	"elaview/internal/infra/obs"
	infraoutbox "elaview/internal/infra/outbox"
	"elaview/internal/infra/storage/memory"
	"elaview/internal/infra/storage/s3"
)

const autosaveNamespace = "elaview:draft"

type application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage
	sessions *memory.SessionStore
	loads    *sessionsapp.AvailabilityLoads
	relay    *infraoutbox.Worker
	commands commands.Bus
	queries  queries.Bus
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	closers  []func(ctx context.Context) error
}

// buildApplication opens every configured backend and registers all
// command and query handlers. clock is nil outside tests.
func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, clock support.Clock) (*application, error) {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &application{cfg: cfg, logger: logger, store: store}
	app.closers = append(app.closers, store.close)
	checks := store.checks

	kv, err := app.autosaveKV(ctx, checks, clock)
	if err != nil {
		_ = app.close(ctx)
		return nil, err
	}
	creatives, err := app.creativeStore(ctx, checks)
	if err != nil {
		_ = app.close(ctx)
		return nil, err
	}
	if err := app.configureRelay(ctx, checks); err != nil {
		_ = app.close(ctx)
		return nil, err
	}

	app.sessions = memory.NewSessionStore(cfg.SessionTTL, clock.Now)
	app.loads = &sessionsapp.AvailabilityLoads{
		UoWFactory: store.factory,
		Sessions:   app.sessions,
		Policy:     cfg.AvailabilityLoadPolicy,
		Timeout:    cfg.AvailabilityLoadTimeout,
		Logger:     logger,
	}
	details := autosave.New[draft.Details](kv, autosaveNamespace, cfg.AutosaveTTL)
	base := sessionsapp.Base{
		Sessions:   app.sessions,
		UoWFactory: store.factory,
		Clock:      clock,
		Logger:     logger,
	}
	encoder := outbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[spacesapp.CreateSpaceCommand, *dto.SpaceView](commandBus, spacesapp.CreateSpaceCommand{}.Key(),
		&spacesapp.CreateSpaceHandler{Clock: clock, Logger: logger})
	commands.RegisterHandler[sessionsapp.OpenSessionCommand, *sessionsapp.OpenSessionResult](commandBus, sessionsapp.OpenSessionCommand{}.Key(),
		&sessionsapp.OpenSessionHandler{Base: base, Loads: app.loads, Details: details})
	commands.RegisterHandler[sessionsapp.ClickDayCommand, *dto.SelectionView](commandBus, sessionsapp.ClickDayCommand{}.Key(),
		&sessionsapp.ClickDayHandler{Base: base})
	commands.RegisterHandler[sessionsapp.SelectRangeCommand, *dto.SelectionView](commandBus, sessionsapp.SelectRangeCommand{}.Key(),
		&sessionsapp.SelectRangeHandler{Base: base})
	commands.RegisterHandler[sessionsapp.HoverDayCommand, *dto.SelectionView](commandBus, sessionsapp.HoverDayCommand{}.Key(),
		&sessionsapp.HoverDayHandler{Base: base})
	commands.RegisterHandler[sessionsapp.ResetSelectionCommand, *dto.SelectionView](commandBus, sessionsapp.ResetSelectionCommand{}.Key(),
		&sessionsapp.ResetSelectionHandler{Base: base})
	commands.RegisterHandler[sessionsapp.SaveDetailsCommand, *sessionsapp.SaveDetailsResult](commandBus, sessionsapp.SaveDetailsCommand{}.Key(),
		&sessionsapp.SaveDetailsHandler{Base: base, Details: details})
	commands.RegisterHandler[sessionsapp.AttachCreativeCommand, *sessionsapp.AttachCreativeResult](commandBus, sessionsapp.AttachCreativeCommand{}.Key(),
		&sessionsapp.AttachCreativeHandler{Base: base, Store: creatives})
	commands.RegisterHandler[sessionsapp.CloseSessionCommand, *sessionsapp.CloseSessionResult](commandBus, sessionsapp.CloseSessionCommand{}.Key(),
		&sessionsapp.CloseSessionHandler{Base: base, Details: details})

	requests := &bookingapp.RequestBookingHandler{
		UoWFactory: store.factory,
		Outbox:     store.events,
		Encoder:    encoder,
		Clock:      clock,
		Logger:     logger,
	}
	commands.RegisterHandler[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](commandBus, bookingapp.RequestBookingCommand{}.Key(), requests)
	commands.RegisterHandler[bookingapp.SubmitBookingCommand, *bookingapp.SubmitBookingResult](commandBus, bookingapp.SubmitBookingCommand{}.Key(),
		&bookingapp.SubmitBookingHandler{
			Sessions:   app.sessions,
			UoWFactory: store.factory,
			Requests:   requests,
			Loads:      app.loads,
			Details:    details,
			Clock:      clock,
			Logger:     logger,
		})
	commands.RegisterHandler[bookingapp.ChangeStatusCommand, *bookingapp.StatusResult](commandBus, bookingapp.ChangeStatusCommand{}.Key(),
		&bookingapp.ChangeStatusHandler{Outbox: store.events, Encoder: encoder, Clock: clock, Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[spacesapp.GetSpaceQuery, dto.SpaceView](queryBus, spacesapp.GetSpaceQuery{}.Key(),
		&spacesapp.GetSpaceHandler{UoWFactory: store.factory})
	queries.RegisterHandler[spacesapp.GetAvailabilityQuery, dto.AvailabilityView](queryBus, spacesapp.GetAvailabilityQuery{}.Key(),
		&spacesapp.GetAvailabilityHandler{UoWFactory: store.factory, Clock: clock})
	queries.RegisterHandler[bookingapp.ListSpaceBookingsQuery, dto.BookingCollection](queryBus, bookingapp.ListSpaceBookingsQuery{}.Key(),
		&bookingapp.ListSpaceBookingsHandler{UoWFactory: store.factory, Logger: logger})
	queries.RegisterHandler[sessionsapp.GetSessionQuery, dto.SessionView](queryBus, sessionsapp.GetSessionQuery{}.Key(),
		&sessionsapp.GetSessionHandler{Base: base})
	queries.RegisterHandler[sessionsapp.GetCalendarQuery, dto.CalendarView](queryBus, sessionsapp.GetCalendarQuery{}.Key(),
		&sessionsapp.GetCalendarHandler{Base: base})
	queries.RegisterHandler[sessionsapp.RestoreDetailsQuery, draft.Details](queryBus, sessionsapp.RestoreDetailsQuery{}.Key(),
		&sessionsapp.RestoreDetailsHandler{Base: base, Details: details})

	validator := middleware.NewStructValidator()
	app.commands = middleware.ChainCommands(
		commandBus,
		middleware.Validation(validator),
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Idempotency(store.idempotency, nil),
		middleware.Transaction(store.factory, logger),
		middleware.OutboxFlush(store.events),
	)
	app.queries = middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
	)

	app.handlers = ginserver.Handlers{
		Spaces:   ginserver.SpaceHandler{Commands: app.commands, Queries: app.queries, Logger: logger},
		Sessions: ginserver.SessionHandler{Commands: app.commands, Queries: app.queries, Logger: logger},
		Bookings: ginserver.BookingHandler{Commands: app.commands, Logger: logger},
		Identity: ginserver.IdentityMiddleware{Logger: logger}.Handle,
	}
	app.health = obs.HealthHandlers{Checks: checks, Timeout: 2 * time.Second}
	return app, nil
}

// autosaveKV prefers Redis so drafts survive restarts and are shared between replicas.
func (a *application) autosaveKV(ctx context.Context, checks map[string]obs.Check, clock support.Clock) (autosave.KV, error) {
	if a.cfg.RedisAddr == "" {
		a.logger.Info("autosave kept in memory")
		return memory.NewKV(clock.Now), nil
	}
	client := redis.NewClient(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	kv := redis.NewKV(client)
	if err := kv.Ping(ctx); err != nil {
		return nil, err
	}
	checks["redis"] = kv.Ping
	a.logger.Info("autosave backed by redis", "addr", a.cfg.RedisAddr)
	return kv, nil
}

func (a *application) creativeStore(ctx context.Context, checks map[string]obs.Check) (policies.CreativeStore, error) {
	if a.cfg.S3Endpoint == "" {
		a.logger.Info("creative uploads disabled", "reason", "S3_ENDPOINT not set")
		return s3.NoopUploader{}, nil
	}
	client, err := s3.NewClient(s3.Options{
		Endpoint:       a.cfg.S3Endpoint,
		PublicEndpoint: a.cfg.S3PublicEndpoint,
		UseSSL:         a.cfg.S3UseSSL,
		AccessKey:      a.cfg.S3AccessKey,
		SecretKey:      a.cfg.S3SecretKey,
		Bucket:         a.cfg.S3Bucket,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	checks["s3"] = client.Ready
	return client, nil
}

// configureRelay sets up the Kafka producer for the outbox relay. Without
// brokers events stay in the outbox until a relay is configured.
func (a *application) configureRelay(ctx context.Context, checks map[string]obs.Check) error {
	if len(a.cfg.KafkaBrokers) == 0 {
		a.logger.Info("outbox relay disabled", "reason", "KAFKA_BROKERS not set")
		return nil
	}
	producer, err := kafka.NewProducer(a.cfg.KafkaBrokers, kafka.NewConfig("elaview"))
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
	checks["kafka"] = producer.Ready
	a.relay = &infraoutbox.Worker{
		Store:       a.store.events,
		Producer:    producer,
		Interval:    a.cfg.OutboxPollInterval,
		TopicPrefix: a.cfg.KafkaTopicPrefix,
		Backoff:     a.cfg.RetryBackoff,
		Logger:      a.logger,
	}
	return nil
}

// runBackground starts the outbox relay and the session purger. Both stop with ctx.
func (a *application) runBackground(ctx context.Context) {
	if a.relay != nil {
		go func() {
			if err := a.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("outbox relay stopped", "error", err)
			}
		}()
	}
	go a.purgeSessions(ctx)
}

func (a *application) purgeSessions(ctx context.Context) {
	interval := a.cfg.SessionTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.Purge(); n > 0 {
				a.logger.Debug("expired booking sessions purged", "count", n)
			}
		}
	}
}

// close waits for in-flight availability loads and releases backends in reverse order.
func (a *application) close(ctx context.Context) error {
	if a.loads != nil {
		a.loads.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
