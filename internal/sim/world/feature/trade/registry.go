package trade

import (
	"fmt"
	"sort"
)

// Registry owns the live sessions and keeps a party-id index so lookups on
// the hot action path are O(1) instead of scanning every session. The index
// is maintained transactionally with Add/Remove; at most one session per
// party can ever be indexed.
type Registry struct {
	sessions map[string]*Session
	byParty  map[string]string // party id -> session id
	nextNum  uint64
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: map[string]*Session{},
		byParty:  map[string]string{},
	}
}

// Request validates and opens a new session. An empty counterparty opens the
// session in AwaitingCounterparty (to be resolved later); otherwise it starts
// in AwaitingAcceptance.
func (r *Registry) Request(initiator, counterparty string, nowTick uint64, cfg Config, ports Ports) (*Session, error) {
	if initiator == "" {
		return nil, ErrNotAuthorized
	}
	if counterparty != "" && counterparty == initiator {
		return nil, ErrSelfTrade
	}
	if _, ok := r.byParty[initiator]; ok {
		return nil, ErrAlreadyTrading
	}
	if counterparty != "" {
		if _, ok := r.byParty[counterparty]; ok {
			return nil, ErrAlreadyTrading
		}
	}

	cfg.applyDefaults()
	r.nextNum++
	s := &Session{
		ID:           fmt.Sprintf("TR%06d", r.nextNum),
		Initiator:    initiator,
		Counterparty: counterparty,
		Phase:        PhaseAwaitingAcceptance,
		CreatedTick:  nowTick,
		cfg:          cfg,
		ports:        ports,
	}
	if counterparty == "" {
		s.Phase = PhaseAwaitingCounterparty
	}
	if err := r.Add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Resolve attaches a counterparty to an AwaitingCounterparty session and
// moves it to AwaitingAcceptance.
func (r *Registry) Resolve(s *Session, counterparty string) error {
	if s == nil || r.sessions[s.ID] != s {
		return ErrNoSession
	}
	if s.Phase != PhaseAwaitingCounterparty {
		return ErrInvalidPhase
	}
	if counterparty == "" {
		return ErrNotAuthorized
	}
	if counterparty == s.Initiator {
		return ErrSelfTrade
	}
	if _, ok := r.byParty[counterparty]; ok {
		return ErrAlreadyTrading
	}
	s.Counterparty = counterparty
	s.Phase = PhaseAwaitingAcceptance
	r.byParty[counterparty] = s.ID
	return nil
}

func (r *Registry) Add(s *Session) error {
	if s == nil || s.ID == "" {
		return ErrNoSession
	}
	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("duplicate session id %s", s.ID)
	}
	if _, ok := r.byParty[s.Initiator]; ok {
		return ErrAlreadyTrading
	}
	if s.Counterparty != "" {
		if _, ok := r.byParty[s.Counterparty]; ok {
			return ErrAlreadyTrading
		}
	}
	r.sessions[s.ID] = s
	r.byParty[s.Initiator] = s.ID
	if s.Counterparty != "" {
		r.byParty[s.Counterparty] = s.ID
	}
	return nil
}

func (r *Registry) Remove(s *Session) {
	if s == nil {
		return
	}
	if r.sessions[s.ID] != s {
		return
	}
	delete(r.sessions, s.ID)
	if r.byParty[s.Initiator] == s.ID {
		delete(r.byParty, s.Initiator)
	}
	if s.Counterparty != "" && r.byParty[s.Counterparty] == s.ID {
		delete(r.byParty, s.Counterparty)
	}
}

// Evict removes the session only once it is terminal, and reports whether it
// was removed.
func (r *Registry) Evict(s *Session) bool {
	if s == nil || !s.Phase.Terminal() {
		return false
	}
	if r.sessions[s.ID] != s {
		return false
	}
	r.Remove(s)
	return true
}

func (r *Registry) Get(id string) *Session {
	return r.sessions[id]
}

func (r *Registry) FindByParty(partyID string) *Session {
	id, ok := r.byParty[partyID]
	if !ok {
		return nil
	}
	return r.sessions[id]
}

// IsTrading reports whether the party is in a session. With onlyAccepted the
// pending phases (awaiting counterparty/acceptance) do not count.
func (r *Registry) IsTrading(partyID string, onlyAccepted bool) bool {
	s := r.FindByParty(partyID)
	if s == nil {
		return false
	}
	if !onlyAccepted {
		return true
	}
	return s.Phase == PhaseNegotiating || s.Phase == PhaseCommitting
}

// Snapshot returns the sessions in a defensive sorted copy so sweeps can
// mutate the registry while iterating.
func (r *Registry) Snapshot() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int { return len(r.sessions) }
