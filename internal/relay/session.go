package relay

import (
	"github.com/vrecluse/Mirror/internal/frame"
	"github.com/vrecluse/Mirror/internal/link"
	"github.com/vrecluse/Mirror/internal/util"
)

// session is the tagged role variant: exactly one decode path exists per
// live session, so cross-role operations are unrepresentable instead of
// runtime-checked flags.
type session interface {
	role() Role
	link() Link

	// dispatch handles one polled link event. A non-nil error is fatal:
	// the drain loop surfaces it and the transport is already torn down.
	dispatch(t *Transport, ev link.Event) error
}

// ---------------------------------------------------------------------------
// Client role
// ---------------------------------------------------------------------------

// clientSession decodes the bare-pipe path: one logical channel, inbound
// frames carry only the relay's slot byte. Connect/disconnect for the
// channel come from the link itself, not from payload tagging.
type clientSession struct {
	l Link

	// slot is the relay-assigned id of this client's slot, learned from the
	// first inbound frame. Informational only.
	slot     frame.ConnID
	slotSeen bool
}

func (s *clientSession) role() Role { return RoleClient }
func (s *clientSession) link() Link { return s.l }

func (s *clientSession) dispatch(t *Transport, ev link.Event) error {
	switch ev.Kind {
	case link.EventConnected:
		if t.cb.OnConnected != nil {
			t.cb.OnConnected()
		}

	case link.EventData:
		f, err := frame.DecodeClient(ev.Payload)
		if err != nil {
			util.Stats.AddAnomaly()
			util.LogWarning("dropping malformed client frame: %v", err)
			return nil
		}
		if !s.slotSeen || s.slot != f.Slot {
			s.slot = f.Slot
			s.slotSeen = true
			util.LogDebug("relay assigned slot %d", f.Slot)
		}
		if t.cb.OnData != nil {
			t.cb.OnData(f.Payload)
		}

	case link.EventDisconnected:
		// The client's own session ended; normal lifecycle, not an error.
		t.teardown()
		if t.cb.OnDisconnected != nil {
			t.cb.OnDisconnected()
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Host role
// ---------------------------------------------------------------------------

// hostSession decodes the multiplexing path: inbound frames carry a sender
// id and event kind tagged by the relay. The link's own lifecycle events
// mean something different here — Connected is the host's attachment to the
// relay, Disconnected is the loss of every multiplexed peer at once.
type hostSession struct {
	l     Link
	peers map[frame.ConnID]struct{}
}

func (s *hostSession) role() Role { return RoleHost }
func (s *hostSession) link() Link { return s.l }

func (s *hostSession) dispatch(t *Transport, ev link.Event) error {
	switch ev.Kind {
	case link.EventConnected:
		// Our own attachment to the relay — no peer exists yet.
		util.LogDebug("attached to relay")

	case link.EventData:
		s.dispatchFrame(t, ev.Payload)

	case link.EventDisconnected:
		// The upstream relay session itself dropped: every peer is
		// unreachable. Hard failure, never reported as one peer leaving.
		t.teardown()
		if t.cb.OnRelayLost != nil {
			t.cb.OnRelayLost(ErrRelayLost)
		}
		return ErrRelayLost
	}
	return nil
}

// dispatchFrame decodes one relay-tagged frame and routes it to the peer
// callbacks. Malformed or anomalous frames are dropped and counted;
// draining continues.
func (s *hostSession) dispatchFrame(t *Transport, data []byte) {
	f, err := frame.DecodeHost(data)
	if err != nil {
		util.Stats.AddAnomaly()
		util.LogWarning("dropping malformed host frame: %v", err)
		return
	}
	if f.Sender == frame.Self {
		util.Stats.AddAnomaly()
		util.LogWarning("dropping frame claiming the reserved self id")
		return
	}

	switch f.Kind {
	case frame.KindConnected:
		s.peers[f.Sender] = struct{}{}
		util.Stats.AddPeer()
		if t.cb.OnPeerConnected != nil {
			t.cb.OnPeerConnected(f.Sender)
		}

	case frame.KindData:
		if t.cb.OnPeerData != nil {
			t.cb.OnPeerData(f.Sender, f.Payload)
		}

	case frame.KindDisconnected:
		s.dropPeer(t, f.Sender)

	default:
		// The wire protocol has no error signal; an unrecognized tag
		// degrades to a disconnect for the affected peer.
		util.Stats.AddAnomaly()
		util.LogWarning("unrecognized wire tag from peer %d, treating as disconnect", f.Sender)
		s.dropPeer(t, f.Sender)
	}
}

func (s *hostSession) dropPeer(t *Transport, id frame.ConnID) {
	delete(s.peers, id)
	util.Stats.RemovePeer()
	if t.cb.OnPeerDisconnected != nil {
		t.cb.OnPeerDisconnected(id)
	}
}

// Peers returns the ids of the currently known multiplexed peers.
func (t *Transport) Peers() []frame.ConnID {
	hs, err := t.hostSess()
	if err != nil {
		return nil
	}
	ids := make([]frame.ConnID, 0, len(hs.peers))
	for id := range hs.peers {
		ids = append(ids, id)
	}
	return ids
}
