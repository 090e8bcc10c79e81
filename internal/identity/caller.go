package identity

import (
	"context"
	"strings"
)

const (
	// RoleUser is granted to every authenticated wallet owner.
	RoleUser = "USER"
	// RoleAdmin may freeze wallets and list every record.
	RoleAdmin = "ADMIN"
)

// Caller is the authenticated identity a request is executed on behalf of.
type Caller struct {
	Subject string
	Role    string
}

// Owns reports whether the caller is the owner referenced by ownerID.
func (c Caller) Owns(ownerID string) bool {
	return c.Subject != "" && c.Subject == ownerID
}

// IsAdmin reports whether the caller holds the administrative role.
func (c Caller) IsAdmin() bool {
	return strings.EqualFold(c.Role, RoleAdmin)
}

// Anonymous reports whether no identity was established.
func (c Caller) Anonymous() bool {
	return c.Subject == ""
}

type callerKey struct{}

// WithCaller stores the caller on ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// FromContext returns the caller stored on ctx, if any.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
