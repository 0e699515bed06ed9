package trade

type Phase string

const (
	PhaseAwaitingCounterparty Phase = "AWAITING_COUNTERPARTY"
	PhaseAwaitingAcceptance   Phase = "AWAITING_ACCEPTANCE"
	PhaseNegotiating          Phase = "NEGOTIATING"
	PhaseCommitting           Phase = "COMMITTING"
	PhaseCompleted            Phase = "COMPLETED"
	PhaseCancelled            Phase = "CANCELLED"
)

func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled
}

// expirable phases age under the expiry sweep. Committing sessions are left
// alone: the countdown owns their lifetime.
func (p Phase) expirable() bool {
	switch p {
	case PhaseAwaitingCounterparty, PhaseAwaitingAcceptance, PhaseNegotiating:
		return true
	}
	return false
}
