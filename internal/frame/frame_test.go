package frame

import (
	"bytes"
	"testing"
)

// TestHostRoundTrip verifies that DecodeHost inverts EncodeHost for every
// event kind and various payload sizes.
func TestHostRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		sender  ConnID
		kind    Kind
		payload []byte
	}{
		{"connected with no payload", 5, KindConnected, nil},
		{"data with small payload", 7, KindData, []byte("hello world")},
		{"disconnected with no payload", 200, KindDisconnected, nil},
		{"data with large payload", 42, KindData, make([]byte, 16*1024)},
		{"data with single byte", 255, KindData, []byte{0x7F}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeHost(tc.sender, tc.kind, tc.payload)

			if want := HostHeaderLen + len(tc.payload); len(encoded) != want {
				t.Fatalf("encoded length mismatch: got %d, want %d", len(encoded), want)
			}

			decoded, err := DecodeHost(encoded)
			if err != nil {
				t.Fatalf("DecodeHost failed: %v", err)
			}
			if decoded.Sender != tc.sender {
				t.Errorf("Sender mismatch: got %d, want %d", decoded.Sender, tc.sender)
			}
			if decoded.Kind != tc.kind {
				t.Errorf("Kind mismatch: got %s, want %s", decoded.Kind, tc.kind)
			}
			if !bytes.Equal(decoded.Payload, tc.payload) {
				t.Errorf("Payload mismatch: got %v, want %v", decoded.Payload, tc.payload)
			}
		})
	}
}

// TestDecodeHostTooShort verifies the malformed-frame condition for inputs
// shorter than the two-byte header.
func TestDecodeHostTooShort(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"nil", nil},
		{"one byte", []byte{0x05}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeHost(tc.data); err == nil {
				t.Errorf("DecodeHost(%v) succeeded, want error", tc.data)
			}
		})
	}
}

// TestDecodeHostUnknownKind verifies that unrecognized wire tags degrade to
// KindUnknown instead of failing the frame.
func TestDecodeHostUnknownKind(t *testing.T) {
	for _, wire := range []byte{0x03, 0x10, 0xFE, 0xFF} {
		decoded, err := DecodeHost([]byte{9, wire, 'x'})
		if err != nil {
			t.Fatalf("DecodeHost failed for wire tag %#x: %v", wire, err)
		}
		if decoded.Kind != KindUnknown {
			t.Errorf("wire tag %#x: got %s, want unknown", wire, decoded.Kind)
		}
		if decoded.Sender != 9 {
			t.Errorf("wire tag %#x: sender %d, want 9", wire, decoded.Sender)
		}
	}
}

// TestDecodeClient verifies that exactly one header byte is stripped and the
// remainder equals the original payload.
func TestDecodeClient(t *testing.T) {
	testCases := []struct {
		name    string
		data    []byte
		slot    ConnID
		payload []byte
	}{
		{"slot only", []byte{3}, 3, nil},
		{"slot with payload", append([]byte{1}, []byte("abc")...), 1, []byte("abc")},
		{"large payload", append([]byte{99}, make([]byte, 4096)...), 99, make([]byte, 4096)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeClient(tc.data)
			if err != nil {
				t.Fatalf("DecodeClient failed: %v", err)
			}
			if decoded.Slot != tc.slot {
				t.Errorf("Slot mismatch: got %d, want %d", decoded.Slot, tc.slot)
			}
			if !bytes.Equal(decoded.Payload, tc.payload) {
				t.Errorf("Payload mismatch: got %d bytes, want %d", len(decoded.Payload), len(tc.payload))
			}
		})
	}

	if _, err := DecodeClient(nil); err == nil {
		t.Error("DecodeClient(nil) succeeded, want error")
	}
}

// TestEncodeRoute verifies the host-outbound framing: exactly one header
// byte carrying the destination id.
func TestEncodeRoute(t *testing.T) {
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}

	encoded := EncodeRoute(7, payload)
	if len(encoded) != 101 {
		t.Fatalf("encoded length: got %d, want 101", len(encoded))
	}
	if encoded[0] != 7 {
		t.Errorf("destination byte: got %d, want 7", encoded[0])
	}
	if !bytes.Equal(encoded[1:], payload) {
		t.Error("payload corrupted by route encoding")
	}

	// Empty payload produces the bare disconnect marker.
	if marker := EncodeRoute(12, nil); len(marker) != 1 || marker[0] != 12 {
		t.Errorf("disconnect marker: got %v, want [12]", marker)
	}
}
