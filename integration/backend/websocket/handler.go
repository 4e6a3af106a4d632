package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/server"
	"github.com/dmitrymomot/relay/pkg/jsoncodec"
)

type config struct {
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	readLimit      int64
	logger         *slog.Logger
	onConnect      func(context.Context, *http.Request) error
	onDisconnect   func(context.Context, *http.Request)
}

// Option configures a Handler.
type Option func(*config)

func WithReadBuffer(size int) Option {
	return func(c *config) {
		c.upgrader.ReadBufferSize = size
	}
}

func WithWriteBuffer(size int) Option {
	return func(c *config) {
		c.upgrader.WriteBufferSize = size
	}
}

func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.upgrader.HandshakeTimeout = timeout
	}
}

func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(c *config) {
		c.upgrader.CheckOrigin = fn
	}
}

func WithAllowAnyOrigin() Option {
	return func(c *config) {
		c.upgrader.CheckOrigin = func(*http.Request) bool {
			return true
		}
	}
}

func WithSubprotocols(protocols ...string) Option {
	return func(c *config) {
		c.upgrader.Subprotocols = protocols
	}
}

func WithUpgradeHeaders(header http.Header) Option {
	return func(c *config) {
		c.responseHeader = header
	}
}

// WithReadLimit bounds the size of one frame (default: server.DefaultMaxBodyBytes).
func WithReadLimit(n int64) Option {
	return func(c *config) {
		c.readLimit = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnConnect runs fn after the upgrade. An error closes the connection.
func WithOnConnect(fn func(context.Context, *http.Request) error) Option {
	return func(c *config) {
		c.onConnect = fn
	}
}

func WithOnDisconnect(fn func(context.Context, *http.Request)) Option {
	return func(c *config) {
		c.onDisconnect = fn
	}
}

// Handler upgrades requests to WebSocket connections and serves every
// request frame through d. It panics when d is nil.
func Handler(d server.Dispatcher, opts ...Option) http.Handler {
	if d == nil {
		panic(server.ErrNilGroup)
	}
	cfg := &config{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readLimit: server.DefaultMaxBodyBytes,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := cfg.upgrader.Upgrade(w, r, cfg.responseHeader)
		if err != nil {
			// The upgrader already answered with an HTTP error.
			cfg.logger.WarnContext(r.Context(), "websocket upgrade failed",
				logger.Error(err),
				logger.Path(r.URL.Path))
			return
		}
		defer func() {
			_ = conn.Close()
			if cfg.onDisconnect != nil {
				cfg.onDisconnect(r.Context(), r)
			}
		}()

		if cfg.onConnect != nil {
			if err := cfg.onConnect(r.Context(), r); err != nil {
				cfg.logger.WarnContext(r.Context(), "websocket connection rejected",
					logger.Error(err),
					logger.Path(r.URL.Path))
				msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				return
			}
		}

		if cfg.readLimit > 0 {
			conn.SetReadLimit(cfg.readLimit)
		}
		serveConn(r.Context(), conn, r, d, cfg.logger)
	})
}

func serveConn(ctx context.Context, conn *websocket.Conn, origin *http.Request, d server.Dispatcher, log *slog.Logger) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WarnContext(ctx, "websocket read failed", logger.Error(err))
			}
			return
		}

		reply := serveFrame(ctx, kind, data, origin, d)
		out, err := jsoncodec.Marshal(reply)
		if err != nil {
			log.ErrorContext(ctx, "failed to encode websocket reply", logger.Error(err))
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			log.WarnContext(ctx, "websocket write failed", logger.Error(err))
			return
		}
	}
}

func serveFrame(ctx context.Context, kind int, data []byte, origin *http.Request, d server.Dispatcher) Frame {
	if kind != websocket.TextMessage {
		return badFrame("", "binary frames are not supported")
	}
	var f Frame
	if err := jsoncodec.Unmarshal(data, &f); err != nil {
		return badFrame("", "invalid frame: "+err.Error())
	}
	req, err := f.Request()
	if err != nil {
		return badFrame(f.ID, err.Error())
	}
	req.RemoteAddr = origin.RemoteAddr
	req.Native = origin

	return ResponseFrame(f.ID, d.Serve(ctx, req))
}

func badFrame(id, reason string) Frame {
	return ResponseFrame(id, message.Text(http.StatusBadRequest, reason))
}
