// Package context carries correlation identifiers used by logs and spans.
package context

import (
	"context"
	"strings"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	homeIDKey    ctxKey = "home_id"
	sourceKey    ctxKey = "source"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

func WithHomeID(ctx context.Context, homeID string) context.Context {
	return context.WithValue(ctx, homeIDKey, strings.TrimSpace(homeID))
}

func HomeIDFromContext(ctx context.Context) string {
	return stringValue(ctx, homeIDKey)
}

// WithSource records which message source (mqtt, http) delivered the message.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, strings.TrimSpace(source))
}

func SourceFromContext(ctx context.Context) string {
	return stringValue(ctx, sourceKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
