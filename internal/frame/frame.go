// Package frame defines the relay's tagging scheme: every message crossing
// the physical relay connection carries a small routing header identifying
// the logical peer it belongs to and, on the host-inbound path, the event
// kind. Encoding and decoding are pure functions over byte slices; no I/O
// happens here.
package frame

import "fmt"

// ConnID identifies one logical peer multiplexed over the relay connection.
// IDs are assigned by the relay; id 0 is reserved for the host/self slot and
// never names a remote peer.
type ConnID uint8

// Self is the reserved connection id.
const Self ConnID = 0

// Kind is the event tag carried in byte 1 of a host-inbound frame.
type Kind byte

const (
	KindConnected    Kind = 0x00
	KindData         Kind = 0x01
	KindDisconnected Kind = 0x02

	// KindUnknown is the degraded fallback for unrecognized wire tags. The
	// relay wire format has no explicit error signal, so callers treat it
	// as an implicit disconnect for the affected peer.
	KindUnknown Kind = 0xFF
)

func (k Kind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindData:
		return "data"
	case KindDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// kindFromWire maps a raw wire byte to a Kind, degrading anything
// unrecognized to KindUnknown rather than failing the frame.
func kindFromWire(b byte) Kind {
	switch Kind(b) {
	case KindConnected, KindData, KindDisconnected:
		return Kind(b)
	default:
		return KindUnknown
	}
}

// Header sizes, fixed per direction. The payload of any frame is always
// frame length minus the direction's header length.
const (
	HostHeaderLen   = 2 // host-inbound: sender id + kind
	ClientHeaderLen = 1 // client-inbound: relay slot id
	RouteHeaderLen  = 1 // host-outbound: destination id
)

// HostFrame is a decoded host-inbound frame: one event from one multiplexed
// peer, as tagged by the relay.
type HostFrame struct {
	Sender  ConnID
	Kind    Kind
	Payload []byte
}

// DecodeHost decodes a host-inbound frame. Frames shorter than the two-byte
// header are malformed; the caller drops them and keeps draining.
func DecodeHost(data []byte) (HostFrame, error) {
	if len(data) < HostHeaderLen {
		return HostFrame{}, fmt.Errorf("host frame too short: %d bytes (need at least %d)", len(data), HostHeaderLen)
	}
	f := HostFrame{
		Sender: ConnID(data[0]),
		Kind:   kindFromWire(data[1]),
	}
	if len(data) > HostHeaderLen {
		f.Payload = make([]byte, len(data)-HostHeaderLen)
		copy(f.Payload, data[HostHeaderLen:])
	}
	return f, nil
}

// EncodeHost builds a host-inbound frame as the relay would tag it. The
// transport itself never sends these; they exist for relay-side tooling and
// round-trip verification.
func EncodeHost(sender ConnID, kind Kind, payload []byte) []byte {
	buf := make([]byte, HostHeaderLen+len(payload))
	buf[0] = byte(sender)
	buf[1] = byte(kind)
	copy(buf[HostHeaderLen:], payload)
	return buf
}

// ClientFrame is a decoded client-inbound frame. Slot is the relay-assigned
// id of this client's own slot — informational only, stripped before the
// payload is delivered.
type ClientFrame struct {
	Slot    ConnID
	Payload []byte
}

// DecodeClient decodes a client-inbound frame, stripping exactly one header
// byte. The client's own connect/disconnect lifecycle is signalled by the
// underlying link, not by payload tagging, so there is no kind byte here.
func DecodeClient(data []byte) (ClientFrame, error) {
	if len(data) < ClientHeaderLen {
		return ClientFrame{}, fmt.Errorf("client frame too short: %d bytes (need at least %d)", len(data), ClientHeaderLen)
	}
	f := ClientFrame{Slot: ConnID(data[0])}
	if len(data) > ClientHeaderLen {
		f.Payload = make([]byte, len(data)-ClientHeaderLen)
		copy(f.Payload, data[ClientHeaderLen:])
	}
	return f, nil
}

// EncodeRoute builds a host-outbound frame: destination id followed by the
// payload. An empty payload is the wire-level disconnect marker for the
// destination peer, so application sends must never pass one here.
func EncodeRoute(dest ConnID, payload []byte) []byte {
	buf := make([]byte, RouteHeaderLen+len(payload))
	buf[0] = byte(dest)
	copy(buf[RouteHeaderLen:], payload)
	return buf
}
