package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relay/core/logger"
)

// Server serves one http.Handler at a time and shuts down gracefully.
// A stopped Server can be started again.
type Server struct {
	addr   string
	limits limits
	tls    *tls.Config
	grace  time.Duration
	log    *slog.Logger

	mu   sync.Mutex
	ln   net.Listener
	http *http.Server
}

type limits struct {
	read, write, idle time.Duration
	maxHeaderBytes    int
}

// New returns a Server for addr. Without WithLogger it logs nothing.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr: addr,
		limits: limits{
			read:           DefaultReadTimeout,
			write:          DefaultWriteTimeout,
			idle:           DefaultIdleTimeout,
			maxHeaderBytes: DefaultMaxHeaderBytes,
		},
		grace: DefaultShutdownTimeout,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr is the bound address while listening and the configured one otherwise.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func (s *Server) listen(ctx context.Context, handler http.Handler) (*http.Server, net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return nil, nil, ErrServerAlreadyRunning
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, nil, err
	}
	if s.tls != nil {
		ln = tls.NewListener(ln, s.tls)
	}

	s.ln = ln
	s.http = &http.Server{
		Handler:        handler,
		ReadTimeout:    s.limits.read,
		WriteTimeout:   s.limits.write,
		IdleTimeout:    s.limits.idle,
		MaxHeaderBytes: s.limits.maxHeaderBytes,
		TLSConfig:      s.tls,
		BaseContext:    func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	return s.http, ln, nil
}

// Start serves handler until serving fails or ctx is done, in which case it
// returns ctx.Err() and leaves the listener open for Stop.
func (s *Server) Start(ctx context.Context, handler http.Handler) error {
	srv, ln, err := s.listen(ctx, handler)
	if err != nil {
		return err
	}

	failed := make(chan error, 1)
	go func() {
		s.log.InfoContext(ctx, "server listening",
			logger.Component("server"),
			slog.String("addr", ln.Addr().String()),
			slog.Bool("tls", s.tls != nil),
		)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		s.release(srv)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) release(srv *http.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http == srv {
		s.http, s.ln = nil, nil
	}
}

// Stop shuts the running server down, waiting at most the shutdown timeout
// for in-flight requests. Stopping an idle Server is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.log.Info("server shutting down", logger.Component("server"), logger.Duration(s.grace))

	ctx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	err := srv.Shutdown(ctx)
	s.release(srv)
	if err != nil {
		s.log.Error("server shutdown failed", logger.Component("server"), logger.Error(err))
		return err
	}
	return nil
}

// Run returns a function for errgroup.Group.Go that serves handler until
// ctx is canceled and then stops the server.
func (s *Server) Run(ctx context.Context, handler http.Handler) func() error {
	return func() error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			err := s.Start(ctx, handler)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			return s.Stop()
		})
		return g.Wait()
	}
}

// Run serves handler on addr with default settings until ctx is done.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	return New(addr).Run(ctx, handler)()
}
