package middleware

import (
	"context"
	"strings"

	"github.com/angelmondragon/solecart/internal/session"
)

type contextKey string

const ctxSessionKey contextKey = "session_key"

// SessionKeyHeader lets a signed-out client keep its own selection between calls.
const SessionKeyHeader = "X-Session-Id"

// Verified subjects and client-chosen ids live in separate key spaces so a
// header can never name a signed-in user's session.
const (
	userKeyPrefix   = "user:"
	deviceKeyPrefix = "device:"
)

// UserSessionKey is the session key of a verified subject.
func UserSessionKey(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return ""
	}
	return userKeyPrefix + subject
}

// DeviceSessionKey is the session key of a client-supplied session id.
func DeviceSessionKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return deviceKeyPrefix + id
}

// SessionKeyFromContext returns the key of the session the request belongs to.
func SessionKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return session.AnonymousKey
	}
	if v, ok := ctx.Value(ctxSessionKey).(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return session.AnonymousKey
}

// WithSessionKey injects the session key into the context.
func WithSessionKey(ctx context.Context, key string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionKey, key)
}
