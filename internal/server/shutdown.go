package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownHandler manages graceful shutdown on SIGINT or SIGTERM.
type ShutdownHandler struct {
	server *Server
	ctx    context.Context
	cancel context.CancelFunc
}

// NewShutdownHandler creates a handler that listens for termination
// signals. The provided context is used as the parent for shutdown
// operations.
func NewShutdownHandler(srv *Server, ctx context.Context) *ShutdownHandler {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ShutdownHandler{server: srv, ctx: shutdownCtx, cancel: cancel}
}

// Wait blocks until a termination signal is received, then initiates
// shutdown with a bounded timeout. It should be called from the main
// goroutine.
func (h *ShutdownHandler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	h.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return h.server.Shutdown(shutdownCtx)
}

// Context returns the shutdown context, cancelled once a signal is
// received.
func (h *ShutdownHandler) Context() context.Context {
	return h.ctx
}
