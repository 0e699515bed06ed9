package trade

// CommitCountdown advances Committing sessions once per sweep. The pulse
// callback is cosmetic feedback (the original rang a note at the parties each
// step) and stays out of the state transition.
type CommitCountdown struct {
	reg   *Registry
	pulse func(s *Session, remaining int)
}

func NewCommitCountdown(reg *Registry, pulse func(s *Session, remaining int)) *CommitCountdown {
	return &CommitCountdown{reg: reg, pulse: pulse}
}

// Sweep returns the sessions completed by this pass.
func (c *CommitCountdown) Sweep() []*Session {
	var completed []*Session
	for _, s := range c.reg.Snapshot() {
		if s.Phase != PhaseCommitting {
			continue
		}
		if s.Tick() {
			c.reg.Evict(s)
			completed = append(completed, s)
			continue
		}
		if c.pulse != nil {
			c.pulse(s, s.CountdownRemaining)
		}
	}
	return completed
}
