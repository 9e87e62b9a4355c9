package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"

	"github.com/quic-go/quic-go/http3"
	wt "github.com/quic-go/webtransport-go"
)

// Listener accepts incoming WebTransport-over-HTTP/3 sessions on a
// single UDP socket and hands each one to Accept's caller as a Session.
// It is the concrete binding for the transport abstraction's other
// side: the session engine never imports quic-go or webtransport-go
// directly, only this package does.
type Listener struct {
	addr    string
	tls     *tls.Config
	server  *wt.Server
	h3      *http3.Server
	path    string
	incoming chan incomingSession
}

type incomingSession struct {
	session *wt.Session
	err     error
}

// NewListener builds a Listener bound to addr, serving WebTransport
// upgrade requests on path (e.g. "/moq").
func NewListener(addr string, tlsConfig *tls.Config, path string) *Listener {
	mux := http.NewServeMux()

	h3 := &http3.Server{
		Addr:      addr,
		TLSConfig: tlsConfig,
		Handler:   mux,
	}

	l := &Listener{
		addr:     addr,
		tls:      tlsConfig,
		h3:       h3,
		path:     path,
		incoming: make(chan incomingSession, 16),
	}

	l.server = &wt.Server{
		H3: h3,
	}

	mux.HandleFunc(path, l.handleUpgrade)
	return l
}

// Mux returns the HTTP mux the WebTransport upgrade handler is
// registered on, so a caller can add operational routes (health,
// metrics, status) served over the same HTTP/3 listener.
func (l *Listener) Mux() *http.ServeMux {
	return l.h3.Handler.(*http.ServeMux)
}

func (l *Listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	sess, err := l.server.Upgrade(w, r)
	if err != nil {
		log.Printf("transport: webtransport upgrade failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	l.incoming <- incomingSession{session: sess}
}

// Serve starts accepting QUIC connections. It blocks until ctx is done
// or the underlying listener fails.
func (l *Listener) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.h3.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		l.server.Close()
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("transport: quic listener: %w", err)
	}
}

// Accept blocks until a WebTransport session has completed its upgrade
// handshake, or ctx is done.
func (l *Listener) Accept(ctx context.Context) (Session, error) {
	select {
	case in := <-l.incoming:
		if in.err != nil {
			return nil, in.err
		}
		return NewWebTransportSession(in.session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the listener and its underlying QUIC socket.
func (l *Listener) Close() error {
	if err := l.server.Close(); err != nil {
		return err
	}
	return l.h3.Close()
}

// Dial opens a client WebTransport session to a remote relay at url,
// used by Remotes to lazily connect to an announced origin.
func Dial(ctx context.Context, url string, tlsConfig *tls.Config) (Session, error) {
	d := &wt.Dialer{
		TLSClientConfig: tlsConfig,
	}
	_, sess, err := d.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	return NewWebTransportSession(sess), nil
}
