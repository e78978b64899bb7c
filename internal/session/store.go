// Package session holds the process-lifetime conversational state that is
// deliberately NOT persisted: the operator → active-ticket routing table,
// the per-user registration progress, and the short-lived compose and
// admin-search sub-states.
//
// Everything here is lost on restart by design. An operator re-establishes
// their active ticket with an explicit claim/reply action (or implicitly,
// when a new message arrives on a ticket assigned to them); a user who was
// mid-registration starts the step again. Durable state lives in the repo
// layer only.
//
// The store is an injectable dependency rather than package-level globals
// so the dispatcher can be tested with a fresh instance per test. All
// methods are safe for concurrent use.
package session

import "sync"

// RegistrationStep is the user-side onboarding state machine.
//
//	AwaitingPhone → AwaitingSurname → AwaitingName → (cleared)
type RegistrationStep int

const (
	// StepNone means the user is not inside the onboarding flow.
	StepNone RegistrationStep = iota
	// StepAwaitingPhone waits for a contact share (not free text).
	StepAwaitingPhone
	// StepAwaitingSurname waits for the surname as free text.
	StepAwaitingSurname
	// StepAwaitingName waits for the given name as free text.
	StepAwaitingName
)

// Store keeps all transient keyed session state behind one mutex. The
// per-key cardinality is tiny (operators and currently-onboarding users),
// so a single RWMutex is plenty.
type Store struct {
	mu sync.RWMutex

	// operator ID → ticket ID the operator is tuned in to.
	active map[int64]string
	// user ID → onboarding step.
	reg map[int64]RegistrationStep
	// user ID → preselected service for the next message ("" = General).
	compose map[int64]string
	// operator ID → waiting for a ticket-ID search query.
	search map[int64]struct{}
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		active:  make(map[int64]string),
		reg:     make(map[int64]RegistrationStep),
		compose: make(map[int64]string),
		search:  make(map[int64]struct{}),
	}
}

// ActiveTicket returns the ticket the operator is currently bound to.
func (s *Store) ActiveTicket(operatorID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[operatorID]
	return id, ok
}

// BindTicket points the operator's next free-text message at ticketID.
// At most one active ticket per operator: a new binding replaces the old.
func (s *Store) BindTicket(operatorID int64, ticketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[operatorID] = ticketID
}

// Unbind clears the operator's active ticket and reports what it was.
func (s *Store) Unbind(operatorID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.active[operatorID]
	if ok {
		delete(s.active, operatorID)
	}
	return id, ok
}

// UnbindTicket releases every operator currently bound to ticketID and
// returns their IDs. Used when a ticket is closed so stale bindings cannot
// route further messages into a closed conversation.
func (s *Store) UnbindTicket(ticketID string) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var released []int64
	for op, id := range s.active {
		if id == ticketID {
			delete(s.active, op)
			released = append(released, op)
		}
	}
	return released
}

// RegistrationStep returns the user's onboarding step (StepNone when the
// user is not onboarding).
func (s *Store) RegistrationStep(userID int64) RegistrationStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg[userID]
}

// SetRegistrationStep moves the user to the given onboarding step.
func (s *Store) SetRegistrationStep(userID int64, step RegistrationStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step == StepNone {
		delete(s.reg, userID)
		return
	}
	s.reg[userID] = step
}

// ClearRegistration removes the user from the onboarding flow.
func (s *Store) ClearRegistration(userID int64) {
	s.SetRegistrationStep(userID, StepNone)
}

// BeginCompose arms the one-shot compose sub-state: the user's next
// free-text message becomes a ticket message for the given service.
func (s *Store) BeginCompose(userID int64, service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compose[userID] = service
}

// TakeCompose consumes the compose sub-state. The state is cleared
// unconditionally on read, even if the subsequent forwarding fails, so
// later messages fall through to plain transcript-append behavior instead
// of being swallowed.
func (s *Store) TakeCompose(userID int64) (service string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	service, ok = s.compose[userID]
	if ok {
		delete(s.compose, userID)
	}
	return service, ok
}

// BeginSearch arms the one-shot admin ticket-ID search sub-state.
func (s *Store) BeginSearch(operatorID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search[operatorID] = struct{}{}
}

// TakeSearch consumes the search sub-state, reporting whether it was set.
func (s *Store) TakeSearch(operatorID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.search[operatorID]
	if ok {
		delete(s.search, operatorID)
	}
	return ok
}
