package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elaview/internal/app/commands"
	"elaview/internal/app/outbox"
	"elaview/internal/app/uow"
	domainbooking "elaview/internal/domain/booking"
	domainspaces "elaview/internal/domain/spaces"
	domainuser "elaview/internal/domain/user"
)

type submitCommand struct {
	Key_   string
	Name   string `validate:"required"`
	Calls  *int
	Result string
	Err    error
}

func (c submitCommand) Key() string                   { return "test.submit" }
func (c submitCommand) IdempotencyKey() string        { return c.Key_ }
func (c submitCommand) ResultPrototype() any          { return new(string) }
func (c submitCommand) RequiredRole() domainuser.Role { return domainuser.RoleAdvertiser }

type otherIdempotent struct{ submitCommand }

func (otherIdempotent) Key() string { return "test.other" }

type memStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (s *memStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

func countingBus() commands.Bus {
	return commandFunc(func(ctx context.Context, raw commands.Command) (any, error) {
		var cmd submitCommand
		switch c := raw.(type) {
		case submitCommand:
			cmd = c
		case otherIdempotent:
			cmd = c.submitCommand
		}
		*cmd.Calls++
		if cmd.Err != nil {
			return nil, cmd.Err
		}
		result := cmd.Result
		return &result, nil
	})
}

func TestIdempotencyReplaysResult(t *testing.T) {
	store := &memStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(countingBus(), Idempotency(store, nil))
	calls := 0
	cmd := submitCommand{Key_: "k1", Calls: &calls, Result: "booking-1"}

	first, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	second, err := commands.Dispatch[submitCommand, *string](context.Background(), bus, cmd)
	require.NoError(t, err)

	assert.Equal(t, "booking-1", *first.(*string))
	assert.Equal(t, "booking-1", *second)
	assert.Equal(t, 1, calls)

	_, err = bus.Dispatch(context.Background(), otherIdempotent{submitCommand{Key_: "k1", Calls: &calls}})
	assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
}

func TestIdempotencyLetsFailedAttemptsRetry(t *testing.T) {
	errNeedsAck := errors.New("needs acknowledgement")
	store := &memStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(countingBus(), Idempotency(store, nil))
	calls := 0

	_, err := bus.Dispatch(context.Background(), submitCommand{Key_: "k2", Calls: &calls, Err: errNeedsAck})
	require.ErrorIs(t, err, errNeedsAck)
	assert.Empty(t, store.items, "failures are not recorded")

	_, err = bus.Dispatch(context.Background(), submitCommand{Key_: "k2", Calls: &calls, Err: errNeedsAck})
	require.ErrorIs(t, err, errNeedsAck, "the original error reaches the caller on retry")

	fixed := submitCommand{Key_: "k2", Calls: &calls, Result: "booking-2"}
	got, err := commands.Dispatch[submitCommand, *string](context.Background(), bus, fixed)
	require.NoError(t, err)
	assert.Equal(t, "booking-2", *got)

	replayed, err := commands.Dispatch[submitCommand, *string](context.Background(), bus, fixed)
	require.NoError(t, err)
	assert.Equal(t, "booking-2", *replayed)
	assert.Equal(t, 3, calls)

	cmd := submitCommand{Calls: &calls}
	_, _ = bus.Dispatch(context.Background(), cmd)
	_, _ = bus.Dispatch(context.Background(), cmd)
	assert.Equal(t, 5, calls, "commands without a key always run")
}

type fakeUnit struct {
	committed  bool
	rolledBack bool
}

func (u *fakeUnit) Spaces() domainspaces.Repository    { return nil }
func (u *fakeUnit) Bookings() domainbooking.Repository { return nil }
func (u *fakeUnit) Commit(context.Context) error       { u.committed = true; return nil }
func (u *fakeUnit) Rollback(context.Context) error     { u.rolledBack = true; return nil }

type fakeFactory struct{ last *fakeUnit }

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	f.last = &fakeUnit{}
	return f.last, nil
}

func TestTransactionCommitsOrRollsBack(t *testing.T) {
	factory := &fakeFactory{}
	var seen bool
	base := commandFunc(func(ctx context.Context, raw commands.Command) (any, error) {
		_, seen = uow.FromContext(ctx)
		return nil, raw.(submitCommand).Err
	})
	bus := ChainCommands(base, Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), submitCommand{})
	require.NoError(t, err)
	assert.True(t, seen)
	assert.True(t, factory.last.committed)
	assert.False(t, factory.last.rolledBack)

	_, err = bus.Dispatch(context.Background(), submitCommand{Err: errors.New("fail")})
	require.Error(t, err)
	assert.False(t, factory.last.committed)
	assert.True(t, factory.last.rolledBack)
}

type sessionCommand struct{ submitCommand }

func (sessionCommand) Key() string  { return "test.session" }
func (sessionCommand) SessionOnly() {}

func TestSessionOnlyCommandsSkipUnitAndOutbox(t *testing.T) {
	tests := []struct {
		name      string
		cmd       commands.Command
		wantUnit  bool
		wantFlush int
	}{
		{name: "booking write", cmd: submitCommand{}, wantUnit: true, wantFlush: 1},
		{name: "session only", cmd: sessionCommand{}, wantUnit: false, wantFlush: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := &fakeFactory{}
			box := &countingOutbox{}
			var inUnit bool
			base := commandFunc(func(ctx context.Context, _ commands.Command) (any, error) {
				_, inUnit = uow.FromContext(ctx)
				return "ok", nil
			})
			bus := ChainCommands(base, Transaction(factory, nil), OutboxFlush(box))

			res, err := bus.Dispatch(context.Background(), tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, "ok", res)
			assert.Equal(t, tt.wantUnit, inUnit)
			assert.Equal(t, tt.wantUnit, factory.last != nil)
			assert.Equal(t, tt.wantFlush, box.flushes)
		})
	}
}

type countingOutbox struct{ flushes int }

func (o *countingOutbox) Add(context.Context, outbox.EventRecord) error { return nil }
func (o *countingOutbox) Flush(context.Context) error                   { o.flushes++; return nil }

func TestOutboxFlushOnlyOnSuccess(t *testing.T) {
	box := &countingOutbox{}
	calls := 0
	bus := ChainCommands(countingBus(), OutboxFlush(box))

	_, _ = bus.Dispatch(context.Background(), submitCommand{Calls: &calls})
	_, _ = bus.Dispatch(context.Background(), submitCommand{Calls: &calls, Err: errors.New("x")})
	assert.Equal(t, 1, box.flushes)
}

func TestValidationAndAuthorization(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(), Authorization(RoleAuthorizer{}), Validation(NewStructValidator()))

	_, err := bus.Dispatch(context.Background(), submitCommand{Name: "x", Calls: &calls})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	owner := ContextWithPrincipal(context.Background(), domainuser.Principal{ID: "o1", Role: domainuser.RolePropertyOwner})
	_, err = bus.Dispatch(owner, submitCommand{Name: "x", Calls: &calls})
	assert.ErrorIs(t, err, ErrForbidden)

	adv := ContextWithPrincipal(context.Background(), domainuser.Principal{ID: "a1", Role: domainuser.RoleAdvertiser})
	_, err = bus.Dispatch(adv, submitCommand{Calls: &calls})
	var fields *FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "required", fields.Fields["Name"])
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = bus.Dispatch(adv, submitCommand{Name: "x", Calls: &calls})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
