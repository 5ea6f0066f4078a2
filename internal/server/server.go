package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"resync/internal/catalog"
	"resync/internal/config"
	"resync/internal/logger"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
)

// Server accepts connections and runs one isolated session per connection.
// Sessions share nothing but the read-only catalog.
type Server struct {
	addr           string
	catalog        *catalog.Catalog
	listCapacity   int
	maxConnections int
	ioTimeout      time.Duration

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server for the shared directory behind c
func New(cfg *config.Config, c *catalog.Catalog) *Server {
	return &Server{
		addr:           net.JoinHostPort(cfg.Server.Address, strconv.Itoa(cfg.Server.Port)),
		catalog:        c,
		listCapacity:   cfg.Protocol.ListCapacity,
		maxConnections: cfg.Server.MaxConnections,
		ioTimeout:      cfg.Server.IOTimeout,
	}
}

// ListenAndServe listens on the configured address and serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := Listen(ctx, s.addr)
	if err != nil {
		return err
	}
	if s.maxConnections > 0 {
		ln = netutil.LimitListener(ln, s.maxConnections)
	}
	return s.Serve(ctx, ln)
}

// Addr returns the listening address, or nil before serving starts
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections on ln until ctx is done or accepting fails for
// good. It closes ln and waits for every session before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	logger.Infof("Server listening on %s, sharing %s", ln.Addr(), s.catalog.Root())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	var sessions sync.WaitGroup

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		// the listener may also be closed from outside; stop the watcher then
		defer cancel()

		var delay time.Duration
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}

				// back off on resource exhaustion and keep accepting
				delay = max(5*time.Millisecond, min(2*delay, time.Second))
				logger.Errorf("Failed to accept connection: %v; retrying in %v", err, delay)
				select {
				case <-time.After(delay):
					continue
				case <-ctx.Done():
					return nil
				}
			}
			delay = 0

			logger.Infof("Accepted connection from %s", conn.RemoteAddr())
			sess := s.newSession(conn)
			sessions.Add(1)
			go func() {
				defer sessions.Done()
				sess.run(ctx)
			}()
		}
	})

	err := g.Wait()
	sessions.Wait()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	logger.Infof("Server on %s stopped", ln.Addr())
	return nil
}
