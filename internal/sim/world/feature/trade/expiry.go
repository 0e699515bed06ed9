package trade

// ExpiryScheduler ages non-committing sessions once per sweep and cancels the
// ones that hit their limit. Aging is monotonic: negotiation activity does
// not reset it.
type ExpiryScheduler struct {
	reg *Registry
}

func NewExpiryScheduler(reg *Registry) *ExpiryScheduler {
	return &ExpiryScheduler{reg: reg}
}

// Sweep returns the sessions cancelled by this pass.
func (e *ExpiryScheduler) Sweep() []*Session {
	var cancelled []*Session
	for _, s := range e.reg.Snapshot() {
		if !s.Phase.expirable() {
			continue
		}
		s.AgeSweeps++
		if s.AgeSweeps < s.cfg.ExpiryCancelSweeps {
			continue
		}
		s.Cancel()
		e.reg.Evict(s)
		cancelled = append(cancelled, s)
	}
	return cancelled
}
