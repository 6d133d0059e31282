package session

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/vipgate/pkg/logger"
)

type sessionContextKey struct{}

// WithSession adds a session to the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext retrieves an authenticated session from the context.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok || !s.IsAuthenticated() {
		return nil, false
	}
	return s, true
}

// LogExtractor adds the account of the session in ctx to log records.
// Use with logger.WithContextExtractors.
func LogExtractor(ctx context.Context) (slog.Attr, bool) {
	s, ok := FromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.AccountID(s.AccountID), true
}
