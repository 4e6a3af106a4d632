package server

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Option configures a Server.
type Option func(*Server)

func WithTLS(cfg *tls.Config) Option {
	return func(s *Server) { s.tls = cfg }
}

// WithLogger sets the lifecycle logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.grace = d }
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.limits.read = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { s.limits.write = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.limits.idle = d }
}

func WithMaxHeaderBytes(n int) Option {
	return func(s *Server) { s.limits.maxHeaderBytes = n }
}
