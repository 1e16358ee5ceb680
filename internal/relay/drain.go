package relay

// Drain runs one bounded drain cycle: it pulls and dispatches at most the
// active role's per-tick budget of events from the link, stopping early
// when nothing is pending or when the transport is disabled mid-drain. The
// enabled flag is re-checked after every dispatched event, because a
// callback may itself shut the transport down.
//
// The returned count is the number of events dispatched this cycle. A
// non-nil error is fatal (the upstream relay session dropped while
// hosting); the transport has already disabled itself and the caller must
// not keep ticking it.
func (t *Transport) Drain() (int, error) {
	if !t.Active() {
		return 0, nil
	}

	budget := t.cfg.MaxReceivesPerTickClient
	if t.sess.role() == RoleHost {
		budget = t.cfg.MaxReceivesPerTickServer
	}

	dispatched := 0
	for dispatched < budget {
		if !t.enabled {
			break
		}
		sess := t.sess
		ev, ok := sess.link().Poll()
		if !ok {
			break
		}
		dispatched++
		if err := sess.dispatch(t, ev); err != nil {
			return dispatched, err
		}
	}
	return dispatched, nil
}
