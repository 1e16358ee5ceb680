// Package link implements the length-framed relay socket primitive. A Client
// owns one physical connection to the relay, runs a single receive goroutine
// internally, and exposes inbound traffic through a non-blocking Poll over a
// bounded event queue. Callers never block on the network when polling.
package link

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vrecluse/Mirror/internal/config"
	"github.com/vrecluse/Mirror/internal/util"
)

// EventKind classifies one link-level event.
type EventKind uint8

const (
	EventConnected EventKind = iota
	EventData
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventData:
		return "data"
	case EventDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("eventkind(%d)", uint8(k))
	}
}

// Event is one buffered inbound item: the link coming up, one received
// frame, or the link going down.
type Event struct {
	Kind    EventKind
	Payload []byte
}

var (
	ErrNotConnected     = errors.New("link is not connected")
	ErrAlreadyConnected = errors.New("link is already connected")
	ErrFrameTooLarge    = errors.New("frame exceeds the configured size limit")
	ErrSendRateExceeded = errors.New("outbound send rate exceeded")
)

// Options tunes a Client. Zero values fall back to the config defaults.
type Options struct {
	MaxFrameSize int
	QueueSize    int

	// Outbound token-bucket limit; zero rate disables limiting.
	SendRatePerSec float64
	SendBurst      int
}

// Client is a single-session relay socket. Connect may be called once; after
// the session ends (remote close or Disconnect) a fresh Client is needed.
// Send is safe for concurrent use; Poll is intended for one draining
// goroutine.
type Client struct {
	opts    Options
	queue   chan Event
	limiter *rate.Limiter

	session   string // short uuid for log correlation
	connected atomic.Bool

	mu     sync.Mutex
	conn   framedConn
	dialed bool
}

// NewClient creates an unconnected Client.
func NewClient(opts Options) *Client {
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = config.DefaultMaxFrameSize
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = config.DefaultQueueSize
	}
	c := &Client{
		opts:  opts,
		queue: make(chan Event, opts.QueueSize),
	}
	if opts.SendRatePerSec > 0 {
		burst := opts.SendBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.SendRatePerSec), burst)
	}
	return c
}

// Connect dials the relay endpoint and starts the receive goroutine. On
// success an EventConnected is queued, followed by one EventData per inbound
// frame and a final EventDisconnected when the session ends.
func (c *Client) Connect(ctx context.Context, ep config.Endpoint) error {
	c.mu.Lock()
	if c.dialed {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.dialed = true
	c.mu.Unlock()

	conn, err := dial(ctx, ep, c.opts.MaxFrameSize)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.session = uuid.NewString()[:8]
	c.mu.Unlock()
	c.connected.Store(true)

	util.LogDebug("[link %s] connected to %s", c.session, ep)
	c.push(Event{Kind: EventConnected})

	go c.recvLoop(conn)
	return nil
}

// recvLoop reads frames until the carrier fails, then records the session as
// down and queues the terminal EventDisconnected.
func (c *Client) recvLoop(conn framedConn) {
	for {
		data, err := conn.ReadFrame()
		if err != nil {
			if c.connected.Load() {
				util.LogDebug("[link %s] session ended: %v", c.session, err)
			}
			break
		}
		util.Stats.AddRecv(len(data))
		c.push(Event{Kind: EventData, Payload: data})
	}

	c.connected.Store(false)
	conn.Close()
	c.push(Event{Kind: EventDisconnected})
}

// push enqueues an event without blocking. When the queue is full a data
// event is dropped and counted; the per-cycle drain budget upstream is the
// normal defense, so overflow here means the consumer stopped draining.
// Lifecycle events are never dropped: losing the terminal EventDisconnected
// would make the session death unobservable through Poll, so they evict the
// oldest buffered event instead.
func (c *Client) push(ev Event) {
	for {
		select {
		case c.queue <- ev:
			return
		default:
		}

		if ev.Kind == EventData {
			util.Stats.AddDropped()
			util.LogWarning("[link %s] inbound queue full, dropping data event", c.session)
			return
		}

		select {
		case old := <-c.queue:
			util.Stats.AddDropped()
			util.LogWarning("[link %s] inbound queue full, evicting %s event for %s", c.session, old.Kind, ev.Kind)
		default:
		}
	}
}

// Poll returns the next buffered event, or false when nothing is pending.
// It never blocks.
func (c *Client) Poll() (Event, bool) {
	select {
	case ev := <-c.queue:
		return ev, true
	default:
		return Event{}, false
	}
}

// Send transmits one frame. It fails fast when the session is down, the
// frame exceeds the configured limit, or the outbound limiter has no token.
func (c *Client) Send(p []byte) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	if len(p) > c.opts.MaxFrameSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, len(p), c.opts.MaxFrameSize)
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return ErrSendRateExceeded
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.WriteFrame(p); err != nil {
		return fmt.Errorf("relay send failed: %w", err)
	}
	util.Stats.AddSent(len(p))
	return nil
}

// Disconnect tears the session down. The receive goroutine notices the
// closed carrier and queues the terminal EventDisconnected.
func (c *Client) Disconnect() {
	c.connected.Store(false)
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// IsConnected reports whether the session is currently up.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}
