// Package relay is a request dispatch engine: one tree of operations can be
// served by, or issue calls through, many different network backends without
// rewriting business logic per backend.
//
// The engine compiles path templates into routes, resolves requests against
// a tree of groups, runs before/after/error hooks around every operation,
// folds plugins around the exchange through a typed event bus, and repeats
// the whole exchange in a bounded retry loop whenever a hook or plugin asks
// for a redo. The same loop drives outbound calls made through a client.
//
// # Getting Documentation
//
// For detailed documentation on any package, use the go doc command:
//
//	go doc github.com/dmitrymomot/relay/core/dispatch
//	go doc -all github.com/dmitrymomot/relay/plugins
//
// # Core Packages
//
//	github.com/dmitrymomot/relay/core/binder     - Request data binding into tagged structs
//	github.com/dmitrymomot/relay/core/client     - Outbound calls through plugin chains and backends
//	github.com/dmitrymomot/relay/core/config     - Type-safe environment loading and engine preferences
//	github.com/dmitrymomot/relay/core/dispatch   - Operation groups, mounting and the dispatch loop
//	github.com/dmitrymomot/relay/core/health     - Health check operations
//	github.com/dmitrymomot/relay/core/hook       - Before, after and error hooks with selectors
//	github.com/dmitrymomot/relay/core/logger     - Structured logging built on slog
//	github.com/dmitrymomot/relay/core/message    - Backend-neutral requests, responses and errors
//	github.com/dmitrymomot/relay/core/plugin     - Plugin capabilities, registry and event bus
//	github.com/dmitrymomot/relay/core/reqctx     - Typed per-request context variables
//	github.com/dmitrymomot/relay/core/response   - Error rendering and status tables
//	github.com/dmitrymomot/relay/core/route      - Path template compilation and resolution
//	github.com/dmitrymomot/relay/core/server     - net/http server with graceful shutdown
//
// # Plugins
//
//	github.com/dmitrymomot/relay/plugins         - CORS, request id, logging, retry, metrics, tracing
//
// # Utility Packages
//
//	github.com/dmitrymomot/relay/pkg/async       - Futures for the cooperative execution mode
//	github.com/dmitrymomot/relay/pkg/jsoncodec   - JSON encoding backed by sonic
//
// # Backend Adaptors
//
//	github.com/dmitrymomot/relay/integration/backend/chi       - Mount groups on go-chi routers
//	github.com/dmitrymomot/relay/integration/backend/watermill - Serve and send Watermill messages
//	github.com/dmitrymomot/relay/integration/backend/websocket - Serve and send WebSocket frames
//
// # Example Usage
//
//	import (
//		"context"
//		"log"
//
//		"github.com/dmitrymomot/relay/core/dispatch"
//		"github.com/dmitrymomot/relay/core/message"
//		"github.com/dmitrymomot/relay/core/reqctx"
//		"github.com/dmitrymomot/relay/core/server"
//		"github.com/dmitrymomot/relay/plugins"
//	)
//
//	func main() {
//		api := dispatch.NewGroup("api")
//		api.Use(
//			plugins.NewRequestID(plugins.RequestIDConfig{}),
//			plugins.NewLogging(plugins.LoggingConfig{}),
//		)
//
//		api.Get("users/{id}", func(ctx context.Context, req *message.Request) (any, error) {
//			id := reqctx.PathParams.Value(reqctx.FromContext(ctx))["id"]
//			return map[string]string{"user_id": id}, nil
//		}, dispatch.Named("users.get"))
//
//		if err := server.Serve(context.Background(), server.DefaultConfig(), api); err != nil {
//			log.Fatal(err)
//		}
//	}
package relay
