// Package config holds the construction-time transport configuration and
// relay endpoint parsing.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Supported endpoint schemes. tcp4 is the relay's native framing; ws/wss
// reach relays fronted by a WebSocket gateway.
const (
	SchemeTCP4 = "tcp4"
	SchemeWS   = "ws"
	SchemeWSS  = "wss"
)

// Endpoint is a parsed relay address.
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
}

// ParseEndpoint parses a connection string of the form "tcp4://host:port"
// (or ws://, wss://). An unsupported scheme or a missing host/port is a
// configuration error, reported immediately and never retried.
func ParseEndpoint(raw string) (Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid relay endpoint %q: %w", raw, err)
	}

	var ep Endpoint
	switch u.Scheme {
	case SchemeTCP4, SchemeWS, SchemeWSS:
		ep.Scheme = u.Scheme
	default:
		return Endpoint{}, fmt.Errorf("unsupported relay scheme %q (want tcp4, ws or wss)", u.Scheme)
	}

	if u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("relay endpoint %q has no host", raw)
	}
	ep.Host = u.Hostname()

	switch port := u.Port(); {
	case port != "":
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return Endpoint{}, fmt.Errorf("relay endpoint %q has invalid port %q", raw, port)
		}
		ep.Port = n
	case ep.Scheme == SchemeWS:
		ep.Port = 80
	case ep.Scheme == SchemeWSS:
		ep.Port = 443
	default:
		return Endpoint{}, fmt.Errorf("relay endpoint %q has no port", raw)
	}

	return ep, nil
}

// Addr returns the host:port form used for TCP dialing.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL returns the full URL form used for WebSocket dialing.
func (e Endpoint) URL() string {
	return fmt.Sprintf("%s://%s", e.Scheme, e.Addr())
}

func (e Endpoint) String() string { return e.URL() }

// Defaults. Frame limits bound memory exposure per inbound message before
// allocation; receive budgets bound how many events one drain cycle may
// dispatch per role.
const (
	DefaultMaxFrameSize   = 16 * 1024
	DefaultClientReceives = 1000
	DefaultServerReceives = 10000
	DefaultQueueSize      = 4096
)

// Config is the static parameter set consumed when the transport is
// constructed. It is pure runtime configuration, never persisted.
type Config struct {
	// Per-role inbound frame size caps.
	MaxFrameSizeClient int
	MaxFrameSizeServer int

	// Per-role drain budgets (max events dispatched per cycle).
	MaxReceivesPerTickClient int
	MaxReceivesPerTickServer int

	// Capacity of the link's buffered inbound event queue.
	QueueSize int

	// Optional outbound send limiter (events/sec, token-bucket burst).
	// Zero disables limiting.
	SendRatePerSec float64
	SendBurst      int

	// SuppressAngular hides unmodeled angular state from non-authoritative
	// observers of the synchronized-field consumer. It plays no part in the
	// relay protocol.
	SuppressAngular bool
}

// Default returns a Config with all limits set to their defaults.
func Default() Config {
	return Config{
		MaxFrameSizeClient:       DefaultMaxFrameSize,
		MaxFrameSizeServer:       DefaultMaxFrameSize,
		MaxReceivesPerTickClient: DefaultClientReceives,
		MaxReceivesPerTickServer: DefaultServerReceives,
		QueueSize:                DefaultQueueSize,
	}
}

// Validate rejects configurations that would make the transport inert or
// unbounded.
func (c Config) Validate() error {
	if c.MaxFrameSizeClient < 1 || c.MaxFrameSizeServer < 1 {
		return fmt.Errorf("max frame size must be positive (client=%d, server=%d)", c.MaxFrameSizeClient, c.MaxFrameSizeServer)
	}
	if c.MaxReceivesPerTickClient < 1 || c.MaxReceivesPerTickServer < 1 {
		return fmt.Errorf("per-tick receive budget must be positive (client=%d, server=%d)", c.MaxReceivesPerTickClient, c.MaxReceivesPerTickServer)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue size must be positive (got %d)", c.QueueSize)
	}
	if c.SendRatePerSec < 0 || c.SendBurst < 0 {
		return fmt.Errorf("send rate and burst must be non-negative (rate=%v, burst=%d)", c.SendRatePerSec, c.SendBurst)
	}
	return nil
}
