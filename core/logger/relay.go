package logger

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/relay/core/reqctx"
)

// RequestContext extracts the operation stack and retry index from the
// request store carried by ctx.
func RequestContext() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		s := reqctx.FromContext(ctx)
		if s == nil {
			return slog.Attr{}, false
		}
		attrs := make([]slog.Attr, 0, 2)
		if names := reqctx.OperationNames.Value(s); len(names) > 0 {
			attrs = append(attrs, Operation(names...))
		}
		if reqctx.RetryIndex.Contains(s) {
			attrs = append(attrs, RetryIndex(reqctx.RetryIndex.Value(s)))
		}
		if len(attrs) == 0 {
			return slog.Attr{}, false
		}
		return slog.Attr{Key: "relay", Value: slog.GroupValue(attrs...)}, true
	}
}
