package domain

import "context"

// Principal is the authenticated caller attached to a request context
type Principal struct {
	UserID    string
	Role      Role
	SessionID string
}

type principalKey struct{}
type clientKey struct{}

// WithPrincipal returns a context carrying p
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller, if any
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}

// WithClientContext returns a context carrying request metadata for auditing
func WithClientContext(ctx context.Context, c *ClientContext) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientContextFrom returns request metadata, or nil
func ClientContextFrom(ctx context.Context) *ClientContext {
	c, _ := ctx.Value(clientKey{}).(*ClientContext)
	return c
}
