// Package relay implements the relay-multiplexing transport core: one
// physical connection to a third-party relay server shared by many logical
// peer connections, with role-dependent frame tagging and budget-bounded
// draining of inbound traffic.
//
// A Transport is owned by one cooperative scheduling loop: StartClient or
// StartHost once, then Drain every tick until shutdown. Callbacks run
// synchronously inside Drain and are expected to be fast.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/vrecluse/Mirror/internal/config"
	"github.com/vrecluse/Mirror/internal/frame"
	"github.com/vrecluse/Mirror/internal/link"
	"github.com/vrecluse/Mirror/internal/util"
)

// Link is the socket primitive the transport drives: length-framed,
// exclusively owned, with a non-blocking poll over buffered inbound events.
// link.Client satisfies it; tests substitute an in-process fake.
type Link interface {
	Connect(ctx context.Context, ep config.Endpoint) error
	Send(p []byte) error
	Disconnect()
	IsConnected() bool
	Poll() (link.Event, bool)
}

// Role identifies which decode path a session uses.
type Role uint8

const (
	RoleNone Role = iota
	RoleClient
	RoleHost
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleHost:
		return "host"
	default:
		return "none"
	}
}

// Callbacks is the event sink downstream code registers once, at
// construction. Client-role and host-role callbacks are disjoint; nil
// entries are skipped. All callbacks fire synchronously within Drain.
type Callbacks struct {
	// Client role: lifecycle of this process's own relay session.
	OnConnected    func()
	OnData         func(payload []byte)
	OnDisconnected func()

	// Host role: lifecycle of multiplexed peers.
	OnPeerConnected    func(id frame.ConnID)
	OnPeerData         func(id frame.ConnID, payload []byte)
	OnPeerDisconnected func(id frame.ConnID)

	// Host role: the upstream relay session itself dropped. Fatal — the
	// transport has already disabled itself when this fires.
	OnRelayLost func(err error)
}

// Transport multiplexes logical peer connections over one relay link.
// Not safe for concurrent use: the owning loop calls all methods.
type Transport struct {
	cfg config.Config
	cb  Callbacks

	newLink func(link.Options) Link

	sess    session
	enabled bool
}

// Option customizes a Transport at construction.
type Option func(*Transport)

// WithLinkFactory substitutes the link constructor. Used by tests to drive
// the drain loop with an in-process link.
func WithLinkFactory(f func(link.Options) Link) Option {
	return func(t *Transport) { t.newLink = f }
}

// New creates an idle Transport. The configuration and callback set are
// fixed for the transport's lifetime.
func New(cfg config.Config, cb Callbacks, opts ...Option) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}
	t := &Transport{
		cfg: cfg,
		cb:  cb,
		newLink: func(o link.Options) Link {
			return link.NewClient(o)
		},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// StartClient opens a bare-client session: a single logical channel
// identified by the physical link itself. Re-entry while any session is
// active is a configuration error.
func (t *Transport) StartClient(ctx context.Context, endpoint string) error {
	l, err := t.start(ctx, endpoint, t.cfg.MaxFrameSizeClient)
	if err != nil {
		return err
	}
	t.sess = &clientSession{l: l}
	t.enabled = true
	util.LogInfo("client session started (%s)", endpoint)
	return nil
}

// StartHost opens a host session: this process registers with the relay on
// behalf of a listening server and multiplexes every remote peer over the
// one link. Re-entry while any session is active is a configuration error.
func (t *Transport) StartHost(ctx context.Context, endpoint string) error {
	l, err := t.start(ctx, endpoint, t.cfg.MaxFrameSizeServer)
	if err != nil {
		return err
	}
	t.sess = &hostSession{l: l, peers: make(map[frame.ConnID]struct{})}
	t.enabled = true
	util.LogInfo("host session started (%s)", endpoint)
	return nil
}

// start is the shared session-establishment path: both roles dial the same
// relay transport; only the decode path and callbacks differ afterwards.
func (t *Transport) start(ctx context.Context, endpoint string, maxFrame int) (Link, error) {
	if t.sess != nil {
		return nil, fmt.Errorf("%w (role=%s)", ErrAlreadyActive, t.Role())
	}
	ep, err := config.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	l := t.newLink(link.Options{
		MaxFrameSize:   maxFrame,
		QueueSize:      t.cfg.QueueSize,
		SendRatePerSec: t.cfg.SendRatePerSec,
		SendBurst:      t.cfg.SendBurst,
	})
	if err := l.Connect(ctx, ep); err != nil {
		return nil, err
	}
	return l, nil
}

// Shutdown disables the transport and tears the relay link down. Safe to
// call from within a callback: the drain loop re-checks enabled after every
// dispatched event and stops immediately.
func (t *Transport) Shutdown() {
	if t.sess == nil {
		return
	}
	util.LogInfo("%s session shut down", t.Role())
	t.teardown()
}

// teardown releases the session without logging; used by both Shutdown and
// the fatal/disconnect paths inside the drain loop.
func (t *Transport) teardown() {
	t.enabled = false
	if t.sess != nil {
		t.sess.link().Disconnect()
		t.sess = nil
	}
}

// Active reports whether a session is live and draining.
func (t *Transport) Active() bool {
	return t.enabled && t.sess != nil
}

// Role returns the active session's role, or RoleNone when idle.
func (t *Transport) Role() Role {
	if t.sess == nil {
		return RoleNone
	}
	return t.sess.role()
}

// ---------------------------------------------------------------------------
// Send paths
// ---------------------------------------------------------------------------

// Send transmits an application payload on the bare-client channel. The
// payload crosses the wire unmodified: the client's logical channel is
// implicitly identified by the physical link, so no header is added.
func (t *Transport) Send(payload []byte) error {
	cs, err := t.clientSess()
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	return cs.l.Send(payload)
}

// SendTo transmits an application payload to one multiplexed peer. One
// encoded frame goes out, carrying exactly one header byte (the destination
// id) before the payload.
func (t *Transport) SendTo(dest frame.ConnID, payload []byte) error {
	hs, err := t.hostSess()
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if dest == frame.Self {
		return ErrReservedID
	}
	return hs.l.Send(frame.EncodeRoute(dest, payload))
}

// SendToMany fans one payload out to several peers, one encoded frame per
// destination — the wire format has no true broadcast. Failures do not stop
// the fan-out; the aggregate error reports every destination that failed.
func (t *Transport) SendToMany(dests []frame.ConnID, payload []byte) error {
	hs, err := t.hostSess()
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}

	var errs []error
	for _, dest := range dests {
		if dest == frame.Self {
			errs = append(errs, fmt.Errorf("peer %d: %w", dest, ErrReservedID))
			continue
		}
		if err := hs.l.Send(frame.EncodeRoute(dest, payload)); err != nil {
			errs = append(errs, fmt.Errorf("peer %d: %w", dest, err))
		}
	}
	return errors.Join(errs...)
}

// Kick disconnects one multiplexed peer by sending the out-of-band marker:
// a routed frame with an empty payload.
func (t *Transport) Kick(dest frame.ConnID) error {
	hs, err := t.hostSess()
	if err != nil {
		return err
	}
	if dest == frame.Self {
		return ErrReservedID
	}
	util.LogDebug("kicking peer %d", dest)
	return hs.l.Send(frame.EncodeRoute(dest, nil))
}

func (t *Transport) clientSess() (*clientSession, error) {
	if t.sess == nil {
		return nil, ErrNotActive
	}
	cs, ok := t.sess.(*clientSession)
	if !ok {
		return nil, fmt.Errorf("%w: want client, have %s", ErrInvalidRole, t.Role())
	}
	return cs, nil
}

func (t *Transport) hostSess() (*hostSession, error) {
	if t.sess == nil {
		return nil, ErrNotActive
	}
	hs, ok := t.sess.(*hostSession)
	if !ok {
		return nil, fmt.Errorf("%w: want host, have %s", ErrInvalidRole, t.Role())
	}
	return hs, nil
}
