package plugin

import (
	"context"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/pkg/async"
)

// RequestProcessor transforms requests before the handler runs.
type RequestProcessor interface {
	ProcessRequest(ctx context.Context, req *message.Request) (Result, error)
}

// ResponseProcessor transforms responses after the handler ran.
type ResponseProcessor interface {
	ProcessResponse(ctx context.Context, resp *message.Response) (Result, error)
}

// ErrorHandler handles errors no error hook claimed.
type ErrorHandler interface {
	HandleError(ctx context.Context, e *message.Error) (Result, error)
}

// AsyncRequestProcessor is the cooperative variant of RequestProcessor.
type AsyncRequestProcessor interface {
	ProcessRequestAsync(ctx context.Context, req *message.Request) *async.Future[Result]
}

// AsyncResponseProcessor is the cooperative variant of ResponseProcessor.
type AsyncResponseProcessor interface {
	ProcessResponseAsync(ctx context.Context, resp *message.Response) *async.Future[Result]
}

// AsyncErrorHandler is the cooperative variant of ErrorHandler.
type AsyncErrorHandler interface {
	HandleErrorAsync(ctx context.Context, e *message.Error) *async.Future[Result]
}

// Instancer is implemented by stateful plugins. The attached value acts as a
// prototype and each dispatch works on its own NewInstance copy.
type Instancer interface {
	NewInstance() any
}

// Target is something plugins are attached to.
type Target interface {
	Plugins() []any
}

// Has reports whether p takes part in request, response or error processing
// in either execution model.
func Has(p any) bool {
	switch p.(type) {
	case RequestProcessor, ResponseProcessor, ErrorHandler,
		AsyncRequestProcessor, AsyncResponseProcessor, AsyncErrorHandler:
		return true
	}
	return false
}
