package health

import (
	"context"

	"github.com/dmitrymomot/relay/core/message"
)

// Liveness indicates if the service process is running.
// Always returns "ALIVE" with 200 OK. No dependency checks.
func Liveness(context.Context, *message.Request) (any, error) {
	return "ALIVE", nil
}

// NoContent returns 204 without body. Ideal for high-frequency checks.
func NoContent(context.Context, *message.Request) (any, error) {
	return message.NoContent(), nil
}
