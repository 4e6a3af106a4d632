package watermill

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	wm "github.com/ThreeDotsLabs/watermill/message"

	"github.com/dmitrymomot/relay/core/message"
)

// HeaderMessageID carries the id of the published message on the response.
const HeaderMessageID = "X-Message-Id"

var ErrNilPublisher = errors.New("watermill: publisher is nil")

// Backend publishes outbound requests to a topic. Delivery is one way:
// every successful publish is answered with 202 Accepted.
type Backend struct {
	pub     wm.Publisher
	topic   string
	replyTo string
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithReplyTo asks consumers to publish their responses to topic.
func WithReplyTo(topic string) BackendOption {
	return func(b *Backend) { b.replyTo = topic }
}

// NewBackend creates a Backend publishing to topic. It panics when pub is nil.
func NewBackend(pub wm.Publisher, topic string, opts ...BackendOption) *Backend {
	if pub == nil {
		panic(ErrNilPublisher)
	}
	b := &Backend{pub: pub, topic: topic}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Do implements client.Backend.
func (b *Backend) Do(ctx context.Context, req *message.Request) (*message.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg := MessageFromRequest(req)
	if b.replyTo != "" {
		msg.Metadata.Set(MetadataReplyTo, b.replyTo)
	}
	msg.SetContext(ctx)
	if err := b.pub.Publish(b.topic, msg); err != nil {
		return nil, fmt.Errorf("watermill: publish to %s: %w", b.topic, err)
	}

	resp := message.NewResponse(http.StatusAccepted, nil)
	resp.Header.Set(HeaderMessageID, msg.UUID)
	resp.Request = req
	return resp, nil
}
