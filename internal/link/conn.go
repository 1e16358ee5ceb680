package link

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vrecluse/Mirror/internal/config"
)

// framedConn abstracts one message-framed carrier to the relay. ReadFrame
// blocks until a complete frame arrives; WriteFrame is safe for concurrent
// callers.
type framedConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(p []byte) error
	Close() error
}

// dial opens the carrier matching the endpoint's scheme.
func dial(ctx context.Context, ep config.Endpoint, maxFrame int) (framedConn, error) {
	switch ep.Scheme {
	case config.SchemeTCP4:
		return dialTCP(ctx, ep, maxFrame)
	case config.SchemeWS, config.SchemeWSS:
		return dialWS(ctx, ep, maxFrame)
	default:
		return nil, fmt.Errorf("unsupported relay scheme %q", ep.Scheme)
	}
}

// ---------------------------------------------------------------------------
// TCP carrier: 4-byte big-endian length prefix per frame
// ---------------------------------------------------------------------------

type tcpConn struct {
	c        net.Conn
	wmu      sync.Mutex
	maxFrame int
}

func dialTCP(ctx context.Context, ep config.Endpoint, maxFrame int) (framedConn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp4", ep.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay %s: %w", ep.Addr(), err)
	}
	return &tcpConn{c: c, maxFrame: maxFrame}, nil
}

// ReadFrame reads one length-prefixed frame. The length is validated against
// maxFrame before the payload buffer is allocated, so a hostile or broken
// relay cannot force an arbitrary allocation.
func (t *tcpConn) ReadFrame() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(t.c, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n == 0 {
		return nil, fmt.Errorf("zero-length frame")
	}
	if int(n) > t.maxFrame {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit %d", n, t.maxFrame)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(t.c, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFrame writes the length prefix and payload as a single buffer so that
// concurrent senders never interleave partial frames.
func (t *tcpConn) WriteFrame(p []byte) error {
	buf := make([]byte, 4+len(p))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(p)))
	copy(buf[4:], p)

	t.wmu.Lock()
	defer t.wmu.Unlock()
	_, err := t.c.Write(buf)
	return err
}

func (t *tcpConn) Close() error { return t.c.Close() }

// ---------------------------------------------------------------------------
// WebSocket carrier: one binary message per frame
// ---------------------------------------------------------------------------

type wsConn struct {
	c        *websocket.Conn
	wmu      sync.Mutex
	maxFrame int
}

func dialWS(ctx context.Context, ep config.Endpoint, maxFrame int) (framedConn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, ep.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay %s: %w", ep.URL(), err)
	}
	c.SetReadLimit(int64(maxFrame))
	return &wsConn{c: c, maxFrame: maxFrame}, nil
}

func (w *wsConn) ReadFrame() ([]byte, error) {
	for {
		msgType, data, err := w.c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.BinaryMessage {
			continue // control/text traffic is not part of the relay protocol
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("zero-length frame")
		}
		return data, nil
	}
}

func (w *wsConn) WriteFrame(p []byte) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	return w.c.WriteMessage(websocket.BinaryMessage, p)
}

func (w *wsConn) Close() error { return w.c.Close() }
