package sessions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"elaview/internal/app/handlers/support"
	"elaview/internal/app/uow"
	"elaview/internal/domain/availability"
	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/session"
	domainspaces "elaview/internal/domain/spaces"
)

const defaultLoadTimeout = 10 * time.Second

var errStaleLoad = errors.New("sessions: stale availability load")

// AvailabilityLoads fetches blocked dates in the background, one load per
// session generation. A result is dropped when the session is gone or has
// started a newer load.
type AvailabilityLoads struct {
	UoWFactory uow.UoWFactory
	Sessions   session.Store
	Policy     availability.LoadPolicy
	Timeout    time.Duration
	Logger     *slog.Logger

	wg sync.WaitGroup
}

func (l *AvailabilityLoads) Start(id session.SessionID, spaceID domainspaces.SpaceID, generation uint64) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run(id, spaceID, generation)
	}()
}

// Wait blocks until all in-flight loads have been applied or dropped.
func (l *AvailabilityLoads) Wait() {
	l.wg.Wait()
}

func (l *AvailabilityLoads) run(id session.SessionID, spaceID domainspaces.SpaceID, generation uint64) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	loader := availability.Loader{
		Bookings: unitBookings{factory: l.UoWFactory},
		Policy:   l.Policy,
		Logger:   l.Logger,
	}
	blocked, loadErr := loader.Load(ctx, spaceID)

	_, err := l.Sessions.Update(ctx, id, func(s *session.Session) error {
		if !s.ApplyBlocked(generation, blocked, loadErr) {
			return errStaleLoad
		}
		return nil
	})
	if err != nil && l.Logger != nil {
		l.Logger.Debug("availability result dropped", "session_id", id, "generation", generation, "reason", err)
	}
}

// unitBookings lists bookings through a short read-only unit of work, so
// failures to open the unit go through the loader's policy like any other.
type unitBookings struct {
	factory uow.UoWFactory
}

func (u unitBookings) ListBySpace(ctx context.Context, spaceID domainspaces.SpaceID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, u.factory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	return unit.Bookings().ListBySpace(execCtx, spaceID, statuses)
}
