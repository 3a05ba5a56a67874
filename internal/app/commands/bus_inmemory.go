package commands

import (
	"context"
	"fmt"
	"sort"
)

type route struct {
	commandType string
	handle      func(ctx context.Context, cmd Command) (any, error)
}

type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	r, ok := b.routes[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%T)", ErrHandlerNotFound, cmd.Key(), cmd)
	}
	return r.handle(ctx, cmd)
}

// Keys lists registered command keys, sorted.
func (b *InMemoryBus) Keys() []string {
	keys := make([]string, 0, len(b.routes))
	for k := range b.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisterHandler routes key to handler. It panics when key is empty, already
// taken, or differs from the key C reports for itself.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	if bus == nil {
		panic("commands: nil bus")
	}
	var zero C
	if key == "" || key != zero.Key() {
		panic(fmt.Sprintf("commands: %T registered under key %q, reports %q", zero, key, zero.Key()))
	}
	if prev, taken := bus.routes[key]; taken {
		panic(fmt.Sprintf("commands: %q already routed to %s", key, prev.commandType))
	}
	bus.routes[key] = route{
		commandType: fmt.Sprintf("%T", zero),
		handle: func(ctx context.Context, raw Command) (any, error) {
			cmd, ok := raw.(C)
			if !ok {
				return nil, fmt.Errorf("%w: %s got %T", ErrInvalidCommand, key, raw)
			}
			return handler.Handle(ctx, cmd)
		},
	}
}
