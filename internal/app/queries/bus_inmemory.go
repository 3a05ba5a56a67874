package queries

import (
	"context"
	"fmt"
)

// InMemoryBus resolves queries by key. Registration happens at startup and is
// not guarded for concurrent use.
type InMemoryBus struct {
	answer map[string]func(context.Context, Query) (any, error)
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{answer: map[string]func(context.Context, Query) (any, error){}}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	fn := b.answer[query.Key()]
	if fn == nil {
		return nil, fmt.Errorf("%w: %s (%T)", ErrHandlerNotFound, query.Key(), query)
	}
	return fn(ctx, query)
}

func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	if bus == nil {
		panic("queries: nil bus")
	}
	var zero Q
	switch {
	case key == "":
		panic(fmt.Sprintf("queries: %T registered without a key", zero))
	case key != zero.Key():
		panic(fmt.Sprintf("queries: %T registered under %q, reports %q", zero, key, zero.Key()))
	case bus.answer[key] != nil:
		panic(fmt.Sprintf("queries: %q registered twice", key))
	}
	bus.answer[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidQuery, key, raw)
		}
		return handler.Handle(ctx, q)
	}
}
