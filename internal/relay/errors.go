package relay

import "errors"

// Configuration errors — surfaced immediately to the caller, never retried.
var (
	// ErrAlreadyActive is returned when a start entry point is re-entered
	// while a session is live. Switching roles requires tearing the
	// transport down first.
	ErrAlreadyActive = errors.New("transport already active")

	// ErrNotActive is returned by operations that need a live session.
	ErrNotActive = errors.New("transport is not active")

	// ErrInvalidRole is returned when an operation belongs to the other
	// role (for example a multiplexed send on a bare client).
	ErrInvalidRole = errors.New("operation not valid for the active role")

	// ErrEmptyPayload rejects application sends with no payload. An empty
	// payload is the wire-level disconnect marker for the host's kick
	// operation and must never collide with application traffic.
	ErrEmptyPayload = errors.New("empty payload is reserved as the disconnect marker")

	// ErrReservedID rejects sends addressed to the reserved self slot.
	ErrReservedID = errors.New("connection id 0 is reserved")
)

// ErrRelayLost is the fatal condition raised when the upstream relay link
// itself drops while hosting. Every multiplexed peer is unreachable at that
// point; the transport disables itself and no automatic reconnect is
// attempted.
var ErrRelayLost = errors.New("relay link lost while hosting")
