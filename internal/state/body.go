// Package state implements the synchronized-field consumer that rides on
// top of the transport: one boolean (sleeping) and one 3-vector (velocity),
// published once per tick by the authoritative side and applied from pushed
// updates everywhere else. It takes no part in the relay protocol.
package state

import "sync"

// Vec3 is a plain 3-component vector.
type Vec3 struct {
	X, Y, Z float32
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Snapshot is one published or applied state sample.
type Snapshot struct {
	Sleeping bool
	Velocity Vec3

	// Angular is unmodeled on the wire contract; non-authoritative
	// observers may be configured to suppress it entirely.
	Angular Vec3
}

// Body mirrors the physics state of one replicated object.
type Body struct {
	mu              sync.Mutex
	authoritative   bool
	suppressAngular bool
	cur             Snapshot
}

// NewBody creates a Body. suppressAngular only affects the
// non-authoritative apply path.
func NewBody(authoritative, suppressAngular bool) *Body {
	return &Body{authoritative: authoritative, suppressAngular: suppressAngular}
}

// Authoritative reports whether this side owns the state.
func (b *Body) Authoritative() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authoritative
}

// Set records the locally simulated state. Only meaningful on the
// authoritative side; the next Publish picks it up.
func (b *Body) Set(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur = s
}

// Publish returns the current snapshot for transmission. ok is false on
// non-authoritative bodies, which never publish.
func (b *Body) Publish() (s Snapshot, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.authoritative {
		return Snapshot{}, false
	}
	return b.cur, true
}

// Apply installs an externally pushed update. ok is false on authoritative
// bodies, which ignore remote state. Angular state is zeroed when the body
// was configured to suppress it.
func (b *Body) Apply(s Snapshot) (ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.authoritative {
		return false
	}
	if b.suppressAngular {
		s.Angular = Vec3{}
	}
	b.cur = s
	return true
}

// Current returns the last set or applied snapshot.
func (b *Body) Current() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur
}
