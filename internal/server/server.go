package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/netutil"

	"github.com/ppiankov/sieve/internal/logging"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Server runs the HTTP API until its context is cancelled
type Server struct {
	cfg     model.ServerConfig
	handler http.Handler
}

func New(svc *service.Service, cfg model.ServerConfig) *Server {
	return &Server{cfg: cfg, handler: NewRouter(svc, cfg.CORSOrigin)}
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on the configured address
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln, at most MaxConns at a time, and shuts
// down gracefully once ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	log := logging.ComponentLogger("http")
	log.Infow("listening", "addr", ln.Addr().String(), "max_conns", s.cfg.MaxConns)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	log.Infow("stopped")
	return nil
}
