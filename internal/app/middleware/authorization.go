package middleware

import (
	"context"
	"errors"

	"elaview/internal/app/commands"
	"elaview/internal/app/queries"
	domainuser "elaview/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("middleware: caller not identified")
	ErrForbidden       = errors.New("middleware: caller lacks the required role")
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleRestricted is implemented by messages that only one role may send.
type RoleRestricted interface {
	RequiredRole() domainuser.Role
}

type principalKey struct{}

func ContextWithPrincipal(ctx context.Context, p domainuser.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (domainuser.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domainuser.Principal)
	return p, ok && p.ID != ""
}

// RoleAuthorizer checks RoleRestricted messages against the principal in ctx.
// Messages without a role requirement pass through.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	restricted, ok := message.(RoleRestricted)
	if !ok {
		return nil
	}
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if !p.Is(restricted.RequiredRole()) {
		return ErrForbidden
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := next.Dispatch
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := next.Ask
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
