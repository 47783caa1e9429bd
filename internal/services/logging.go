package services

import (
	"context"

	"github.com/rs/zerolog"
)

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the inbound request ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored by WithRequestID
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// RequestLogger tags base with the request ID carried by ctx, if any.
// Component loggers keep their own fields and output.
func RequestLogger(ctx context.Context, base zerolog.Logger) *zerolog.Logger {
	id, ok := RequestID(ctx)
	if !ok {
		return &base
	}
	l := base.With().Str("request_id", id).Logger()
	return &l
}
