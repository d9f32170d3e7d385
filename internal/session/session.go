// Package session holds the request-scoped copy of the logged-in user.
package session

import (
	"context"

	"github.com/Stewz00/myfabtotum-link/internal/model"
)

// Session is the per-request mirror of the authenticated user. Services
// replace User after every mutation so it stays in step with storage.
type Session struct {
	TokenID string
	User    *model.User
}

// UserID returns the mirrored user's id, or 0 when there is no user.
func (s *Session) UserID() int64 {
	if s == nil || s.User == nil {
		return 0
	}
	return s.User.ID
}

// HasUser reports whether the session carries a user.
func (s *Session) HasUser() bool {
	return s != nil && s.User != nil
}

type contextKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
