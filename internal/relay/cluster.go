package relay

import (
	"context"
	"fmt"
	"log"

	"moqrelay/internal/cache"
	"moqrelay/internal/listings"
	"moqrelay/internal/moq"
	"moqrelay/internal/transport"
	"moqrelay/internal/wire"
)

// newSelfBroadcast returns an empty broadcast used only as a presence
// marker under cluster_prefix.<node>: peers that discover it dial this
// node directly rather than subscribing any track from it.
func newSelfBroadcast() *cache.Broadcast {
	return cache.NewBroadcast("")
}

// Cluster is the discovery loop a relay node runs against a configured
// root origin: it subscribes to the root's cluster_prefix directory
// track, instantiates a RemoteOrigin for every other node it discovers,
// optionally announces its own name under cluster_prefix.<node> so
// peers can reach it, and mirrors every locally-originated broadcast to
// the root so it is globally reachable.
type Cluster struct {
	Prefix string
	Node   string

	locals  *Locals
	remotes *Remotes

	dial func(ctx context.Context) (transport.Session, error)
	peer func(name string) func(ctx context.Context) (transport.Session, error)
}

// NewCluster builds a Cluster control loop. dial connects to the root
// origin; peer, given a node name discovered in the directory, returns
// a dial func for connecting directly to that peer.
func NewCluster(prefix, node string, locals *Locals, remotes *Remotes,
	dial func(ctx context.Context) (transport.Session, error),
	peer func(name string) func(ctx context.Context) (transport.Session, error),
) *Cluster {
	return &Cluster{Prefix: prefix, Node: node, locals: locals, remotes: remotes, dial: dial, peer: peer}
}

// Run connects to the root and services the discovery loop until ctx is
// done or the root connection fails.
func (c *Cluster) Run(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("relay: cluster: dial root: %w", err)
	}
	session, err := moq.Setup(ctx, conn, wire.RoleBoth)
	if err != nil {
		return fmt.Errorf("relay: cluster: setup: %w", err)
	}
	defer session.Close(0, "cluster disconnect")

	go c.announceLocals(session)

	if c.Node != "" {
		self := newSelfBroadcast()
		if err := session.Publisher.Announce(c.Prefix+c.Node, self); err != nil {
			log.Printf("relay: cluster: announce self: %v", err)
		}
	}

	dir, err := session.Subscriber.Subscribe(ctx, c.Prefix, "", 0, wire.OrderAsc)
	if err != nil {
		return fmt.Errorf("relay: cluster: subscribe directory: %w", err)
	}
	reader := listings.NewReader(dir.Reader(wire.OrderAsc))

	for {
		insert, name, err := reader.Next(ctx)
		if err != nil {
			return err
		}
		if name == c.Node {
			continue
		}
		if insert {
			c.remotes.Add(NewRemoteOrigin(name, c.peer(name)))
		}
		// A removal leaves any already-instantiated RemoteOrigin in
		// place, together with its cached session and its set of
		// known broadcasts; neither the removal nor that session
		// later closing takes the origin out of Remotes.
	}
}

// announceLocals mirrors every Locals registration to the root session
// for the cluster connection's lifetime.
func (c *Cluster) announceLocals(session *moq.Session) {
	for {
		event, err := c.locals.Events().Pop(session.Context())
		if err != nil {
			return
		}
		if event.Announced {
			source, ok := c.locals.Resolve(event.Path)
			if !ok {
				continue
			}
			if err := session.Publisher.Announce(event.Path, source); err != nil {
				log.Printf("relay: cluster: announce %s: %v", event.Path, err)
			}
			continue
		}
		session.Publisher.Unannounce(event.Path)
	}
}
