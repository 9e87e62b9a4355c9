// Package server assembles the relay's process-level wiring: the
// QUIC/WebTransport listener, the relay routing core, the cluster
// discovery loop, and the operational HTTP surface (health, metrics,
// status) served over the same listener.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"sync/atomic"

	"moqrelay/internal/config"
	"moqrelay/internal/health"
	"moqrelay/internal/moq"
	"moqrelay/internal/relay"
	"moqrelay/internal/statusapi"
	"moqrelay/internal/transport"
	"moqrelay/internal/wire"
)

// Server wraps the QUIC/WebTransport listener and its dependencies. It
// is not started until Start is called.
type Server struct {
	cfg *config.Config

	listener  *transport.Listener
	locals    *relay.Locals
	remotes   *relay.Remotes
	router    *relay.Router
	health    *health.Service
	clientTLS *tls.Config

	sessions atomic.Int64

	cancel context.CancelFunc
}

// New creates a relay server from cfg. The underlying QUIC listener is
// bound lazily in Start, once TLS material is ready.
func New(cfg *config.Config) (*Server, error) {
	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	listener := transport.NewListener(cfg.BindAddr, tlsConfig, "/moq")

	locals := relay.NewLocals()
	var remotes *relay.Remotes
	if cfg.ClusterRootURL != "" {
		remotes = relay.NewRemotes()
	}
	router := relay.NewRouter(locals, remotes)

	healthSvc := health.New()
	healthSvc.RegisterRoutes(listener.Mux())

	// remotes is a concrete *relay.Remotes that may be nil; passed
	// as-is it would become a non-nil RemoteLister wrapping a nil
	// pointer, so handleRemotes's nil check has to happen here instead
	// of against the interface value.
	var remoteLister statusapi.RemoteLister
	if remotes != nil {
		remoteLister = remotes
	}
	statusSvc := statusapi.NewService(locals, remoteLister)
	statusSvc.RegisterRoutes(listener.Mux())

	return &Server{
		cfg:       cfg,
		listener:  listener,
		locals:    locals,
		remotes:   remotes,
		router:    router,
		health:    healthSvc,
		clientTLS: &tls.Config{InsecureSkipVerify: cfg.DevMode},
	}, nil
}

// Start begins accepting WebTransport sessions and, if configured,
// joins the cluster. It blocks until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.cfg.ClusterNode != "" || s.cfg.ClusterRootURL != "" {
		go s.runCluster(ctx)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.acceptLoop(ctx) }()

	serveErr := s.listener.Serve(ctx)
	cancel()
	<-errCh
	if serveErr != nil && serveErr != context.Canceled {
		return fmt.Errorf("server: %w", serveErr)
	}
	return nil
}

// Shutdown stops accepting new sessions and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.listener.Close()
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("server: accept: %v", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn transport.Session) {
	session, err := moq.AcceptSetup(ctx, conn, wire.RoleBoth)
	if err != nil {
		log.Printf("server: setup: %v", err)
		return
	}

	s.sessions.Add(1)
	s.health.SessionOpened()
	defer func() {
		s.sessions.Add(-1)
		s.health.SessionClosed()
	}()

	session.Publisher.SetMetrics(s.health)
	connection := relay.NewConnection(session, s.locals, s.router)
	connection.Run(session.Context())
}

func (s *Server) runCluster(ctx context.Context) {
	dial := func(ctx context.Context) (transport.Session, error) {
		return transport.Dial(ctx, s.cfg.ClusterRootURL, s.clientTLS)
	}
	// Cluster discovery delivers bare node names (see
	// internal/relay/cluster.go); this relay's addressing convention
	// is that a node name is itself a dialable WebTransport URL, which
	// keeps Cluster free of any separate name-to-address directory.
	peer := func(name string) func(ctx context.Context) (transport.Session, error) {
		return func(ctx context.Context) (transport.Session, error) {
			return transport.Dial(ctx, name, s.clientTLS)
		}
	}

	cluster := relay.NewCluster(s.cfg.ClusterPrefix, s.cfg.ClusterNode, s.locals, s.remotes, dial, peer)
	if err := cluster.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("server: cluster: %v", err)
	}
}

// ActiveSessions reports the number of currently connected sessions.
func (s *Server) ActiveSessions() int64 {
	return s.sessions.Load()
}
