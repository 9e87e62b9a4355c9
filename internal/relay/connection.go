package relay

import (
	"context"
	"log"
	"sync"

	"moqrelay/internal/moq"
)

// Connection wires one accepted or dialed session into the relay's
// shared broadcast graph: broadcasts the peer announces are mirrored
// into Locals so any other session can route a subscribe to them, and
// the session's own Publisher falls back to Router for anything it did
// not announce itself.
type Connection struct {
	session *moq.Session
	locals  *Locals

	mu   sync.Mutex
	regs map[string]*LocalRegistration
}

// NewConnection wraps session, installing router as its Publisher's
// fallback resolver.
func NewConnection(session *moq.Session, locals *Locals, router *Router) *Connection {
	session.Publisher.SetRouter(router)
	return &Connection{session: session, locals: locals, regs: make(map[string]*LocalRegistration)}
}

// Run mirrors the peer's announce feed into Locals until the session
// closes, releasing every registration it made on the way out.
func (c *Connection) Run(ctx context.Context) {
	defer c.releaseAll()
	for {
		event, err := c.session.Subscriber.Announced().Pop(ctx)
		if err != nil {
			return
		}
		if event.Announced {
			c.register(event.Path)
		} else {
			c.unregister(event.Path)
		}
	}
}

func (c *Connection) register(path string) {
	source := &remoteBroadcast{session: c.session, path: path}
	reg, err := c.locals.Register(path, source)
	if err != nil {
		log.Printf("relay: session %s: register %s: %v", c.session.ID, path, err)
		return
	}
	c.mu.Lock()
	c.regs[path] = reg
	c.mu.Unlock()
}

func (c *Connection) unregister(path string) {
	c.mu.Lock()
	reg, ok := c.regs[path]
	delete(c.regs, path)
	c.mu.Unlock()
	if ok {
		reg.Release()
	}
}

func (c *Connection) releaseAll() {
	c.mu.Lock()
	regs := c.regs
	c.regs = make(map[string]*LocalRegistration)
	c.mu.Unlock()
	for _, reg := range regs {
		reg.Release()
	}
}
