// ABOUTME: Carries the session manager on a context.Context
// ABOUTME: MustFromContext panics when used outside an initialized scope

package session

import (
	"context"
	"errors"
)

// ErrNoManager is the panic value of MustFromContext without a manager
var ErrNoManager = errors.New("session: manager used outside of an initialized session scope")

type contextKey struct{}

// NewContext returns ctx carrying m
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// FromContext returns the manager carried by ctx
func FromContext(ctx context.Context) (*Manager, bool) {
	m, ok := ctx.Value(contextKey{}).(*Manager)
	return m, ok && m != nil
}

// MustFromContext returns the manager carried by ctx and panics if there is none
func MustFromContext(ctx context.Context) *Manager {
	m, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoManager)
	}
	return m
}
