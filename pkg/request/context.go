package request

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/blocks/pkg/logger"
)

type requestKey struct{}

// WithRequest returns a copy of ctx carrying the classified request.
func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// FromContext returns the classified request stored in ctx, or nil.
func FromContext(ctx context.Context) *Request {
	r, _ := ctx.Value(requestKey{}).(*Request)
	return r
}

// ModeExtractor adds the request mode to log records.
func ModeExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if r := FromContext(ctx); r != nil {
			return slog.String("request_mode", r.Mode().String()), true
		}
		return slog.Attr{}, false
	}
}
