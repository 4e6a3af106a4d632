package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/response"
)

// Dispatcher serves backend-neutral requests. *dispatch.Group implements it.
type Dispatcher interface {
	Serve(ctx context.Context, req *message.Request) *message.Response
}

// Handler translates net/http requests into dispatch requests and writes
// the dispatch responses back.
type Handler struct {
	dispatcher   Dispatcher
	logger       *slog.Logger
	maxBodyBytes int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger for translation and write failures.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMaxBodyBytes limits request bodies. Zero or less disables the limit.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		h.maxBodyBytes = n
	}
}

// NewHandler adapts d to net/http. It panics when d is nil.
func NewHandler(d Dispatcher, opts ...HandlerOption) *Handler {
	if d == nil {
		panic(ErrNilGroup)
	}
	h := &Handler{
		dispatcher:   d,
		logger:       logger.Nop(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	req, err := message.FromHTTP(r)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	resp := h.dispatcher.Serve(r.Context(), req)
	if err := message.WriteHTTP(w, resp); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write response",
			logger.Error(err),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)
	}
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := response.ErrBadRequest.WithError(err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpErr = response.ForStatus(http.StatusRequestEntityTooLarge).WithError(err)
	}

	h.logger.WarnContext(r.Context(), "rejected request",
		logger.Error(err),
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
		logger.StatusCode(httpErr.Status),
	)
	_ = message.WriteHTTP(w, response.FromError(httpErr, nil, response.Options{}))
}

// Serve runs d on a server built from cfg until ctx is canceled.
func Serve(ctx context.Context, cfg Config, d Dispatcher, opts ...Option) error {
	srv, err := NewFromConfig(cfg, opts...)
	if err != nil {
		return err
	}
	return srv.Run(ctx, NewHandler(d, WithHandlerLogger(srv.log), WithMaxBodyBytes(cfg.MaxBodyBytes)))()
}
