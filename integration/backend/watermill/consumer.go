package watermill

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wm "github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/server"
)

var (
	ErrNilSubscriber  = errors.New("watermill: subscriber is nil")
	ErrNilDispatcher  = errors.New("watermill: dispatcher is nil")
	ErrNoSubscription = errors.New("watermill: no topics to consume")
	ErrAlreadyRunning = errors.New("watermill: consumer already running")
)

type subscription struct {
	topic  string
	method string
	path   string
}

// Consumer dispatches messages from subscribed topics.
type Consumer struct {
	sub    wm.Subscriber
	pub    wm.Publisher
	d      server.Dispatcher
	logger *slog.Logger
	subs   []subscription

	mu      sync.Mutex
	running bool
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithPublisher enables replies to messages carrying relay_reply_to.
func WithPublisher(pub wm.Publisher) ConsumerOption {
	return func(c *Consumer) { c.pub = pub }
}

// WithLogger sets the logger for translation and delivery failures.
func WithLogger(l *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConsumer creates a Consumer. It panics when sub or d is nil.
func NewConsumer(sub wm.Subscriber, d server.Dispatcher, opts ...ConsumerOption) *Consumer {
	if sub == nil {
		panic(ErrNilSubscriber)
	}
	if d == nil {
		panic(ErrNilDispatcher)
	}
	c := &Consumer{
		sub:    sub,
		d:      d,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle subscribes to topic. Messages without routing metadata are served
// as method and path.
func (c *Consumer) Handle(topic, method, path string) *Consumer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, subscription{topic: topic, method: method, path: path})
	return c
}

// Run consumes every handled topic until ctx is canceled or a subscription
// fails.
func (c *Consumer) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	if len(c.subs) == 0 {
		c.mu.Unlock()
		return ErrNoSubscription
	}
	c.running = true
	subs := append([]subscription(nil), c.subs...)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range subs {
		messages, err := c.sub.Subscribe(ctx, s.topic)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			c.consume(ctx, s, messages)
			return nil
		})
	}
	return g.Wait()
}

func (c *Consumer) consume(ctx context.Context, s subscription, messages <-chan *wm.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.Process(ctx, s.method, s.path, msg)
		}
	}
}

// Process serves one message and acks or nacks it. It returns the response,
// or nil when the message could not be translated.
func (c *Consumer) Process(ctx context.Context, method, path string, msg *wm.Message) *message.Response {
	req, err := RequestFromMessage(msg, method, path)
	if err != nil {
		c.logger.WarnContext(ctx, "dropping untranslatable message",
			logger.Error(err),
			slog.String("message_id", msg.UUID))
		msg.Ack()
		return nil
	}

	resp := c.d.Serve(ctx, req)

	if err := c.reply(msg, resp); err != nil {
		c.logger.ErrorContext(ctx, "failed to publish reply",
			logger.Error(err),
			slog.String("message_id", msg.UUID),
			logger.Path(req.Path()))
		msg.Nack()
		return resp
	}

	if resp.Status >= http.StatusInternalServerError {
		c.logger.WarnContext(ctx, "message failed, requesting redelivery",
			slog.String("message_id", msg.UUID),
			logger.Path(req.Path()),
			logger.StatusCode(resp.Status))
		msg.Nack()
		return resp
	}
	msg.Ack()
	return resp
}

func (c *Consumer) reply(msg *wm.Message, resp *message.Response) error {
	topic := msg.Metadata.Get(MetadataReplyTo)
	if topic == "" || c.pub == nil {
		return nil
	}
	if resp.Status >= http.StatusInternalServerError {
		// The redelivered message gets to answer instead.
		return nil
	}
	return c.pub.Publish(topic, ReplyMessage(resp, msg.UUID))
}

// NewGoChannel creates an in-memory pub/sub for local runs and tests.
func NewGoChannel(l *slog.Logger) *gochannel.GoChannel {
	var wl watermill.LoggerAdapter = watermill.NopLogger{}
	if l != nil {
		wl = watermill.NewSlogLogger(l)
	}
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wl)
}
