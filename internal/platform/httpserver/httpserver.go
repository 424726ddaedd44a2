package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	idleTimeout       = 60 * time.Second
	// writeSlack is added on top of the handler timeout so a timed-out
	// handler can still write its 503 before the connection is cut.
	writeSlack = 5 * time.Second
)

type Option func(*http.Server)

// WithRequestTimeout sizes the write deadline to the handler timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d + writeSlack
		}
	}
}

// WithErrorLog routes net/http's internal errors (TLS handshakes, bad
// requests) to the structured logger at WARN.
func WithErrorLog(logger *slog.Logger) Option {
	return func(s *http.Server) {
		if logger != nil {
			s.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
		}
	}
}

// New builds the registry's HTTP server.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       idleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
