package wizard

import (
	"sync"

	"github.com/wolfman30/cleanbook/internal/catalog"
	"github.com/wolfman30/cleanbook/internal/pricing"
)

// Store owns one wizard's state and applies actions atomically. Each wizard
// instance gets its own store; nothing is shared between sessions.
//
// After every dispatch the store compares the priced inputs to their
// previous values and, when they changed, recomputes the total cost through
// the pricing engine before Dispatch returns. The cost is therefore never
// stale by more than the action being applied, and setCost has exactly one
// producer.
type Store struct {
	mu      sync.Mutex
	pricing pricing.Config
	state   State
}

// NewStore creates a store with wizard defaults and no reference data.
func NewStore(cfg pricing.Config) *Store {
	s := &Store{pricing: cfg, state: initialState(nil)}
	s.recompute()
	return s
}

// NewStoreWithServices creates a store with reference data already loaded,
// defaulting the selection to the first service.
func NewStoreWithServices(cfg pricing.Config, services []catalog.Service) *Store {
	s := &Store{pricing: cfg, state: initialState(services)}
	s.recompute()
	return s
}

// NewStoreFrom restores a store from a persisted state snapshot. The cost is
// recomputed on restore so it can never drift from the priced inputs.
func NewStoreFrom(cfg pricing.Config, st State) *Store {
	if st.FieldErrors == nil {
		st.FieldErrors = map[string]ErrorKind{}
	}
	if st.Touched == nil {
		st.Touched = map[string]bool{}
	}
	s := &Store{pricing: cfg, state: st}
	s.recompute()
	return s
}

// Dispatch applies one action and runs the cost observer.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(a)
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// pricedInputs are the scalar fields the cost derives from. The service
// list is the remaining input; actions that replace it recompute
// unconditionally in apply.
type pricedInputs struct {
	serviceTypeID string
	propertyType  pricing.PropertyType
	roomCount     int
	durationHours int
	needsSupplies bool
}

func inputsOf(st State) pricedInputs {
	return pricedInputs{
		serviceTypeID: st.ServiceTypeID,
		propertyType:  st.PropertyType,
		roomCount:     st.RoomCount,
		durationHours: st.DurationHours,
		needsSupplies: st.NeedsSupplies,
	}
}

// apply must be called with the lock held. Reset and ServicesLoaded always
// recompute: reset zeroes the derived cost, and a reloaded service list can
// carry changed rates behind an unchanged length.
func (s *Store) apply(a Action) {
	before := inputsOf(s.state)
	s.state = reduce(s.state, a)
	switch a.(type) {
	case Reset, ServicesLoaded:
		s.recomputeLocked()
	default:
		if inputsOf(s.state) != before {
			s.recomputeLocked()
		}
	}
}

func (s *Store) recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

func (s *Store) recomputeLocked() {
	svc := resolveService(s.state.Services, s.state.ServiceTypeID)
	cost := s.pricing.Quote(svc, s.state.PropertyType, s.state.RoomCount, s.state.DurationHours, s.state.NeedsSupplies)
	s.state = reduce(s.state, setCost{Cost: cost})
}

// Breakdown itemizes the current quote for display.
func (s *Store) Breakdown() pricing.Breakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc := resolveService(s.state.Services, s.state.ServiceTypeID)
	return s.pricing.Itemize(svc, s.state.PropertyType, s.state.RoomCount, s.state.DurationHours, s.state.NeedsSupplies)
}

// Advance validates the current step, marks its fields touched, replaces the
// error map, and moves forward when validation passes. The contact step is
// the submission trigger: it validates but only the submitter moves the
// wizard to confirmation. Navigation is ignored while a submission is in
// flight or after the wizard reached its terminal step.
func (s *Store) Advance() (bool, map[string]ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Submission.Status == SubmitInFlight || s.state.Step == StepConfirmation {
		return false, cloneErrors(s.state.FieldErrors)
	}

	errs, ok := s.validateCurrentLocked()
	if ok && s.state.Step < StepContact {
		s.state.Step++
	}
	return ok, errs
}

// Back moves one step backwards. It never validates and never leaves the
// terminal step.
func (s *Store) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Submission.Status == SubmitInFlight {
		return false
	}
	if s.state.Step <= StepService || s.state.Step == StepConfirmation {
		return false
	}
	s.state.Step--
	return true
}

// validateCurrentLocked runs the current step's validator and records its
// outcome: covered fields become touched regardless of result and the error
// map is replaced, clearing stale errors from earlier runs.
func (s *Store) validateCurrentLocked() (map[string]ErrorKind, bool) {
	errs, ok := validateStep(s.state, s.state.Step)
	s.apply(TouchFields{Fields: stepFields(s.state.Step)})
	s.apply(SetErrors{Errors: errs})
	return errs, ok
}

// submitGate is the outcome of the guarded entry into submission.
type submitGate int

const (
	gateEntered submitGate = iota
	gateInFlight
	gateAlreadySucceeded
	gateWrongStep
	gateInvalidFields
)

// beginSubmit guards entry to the submission pipeline. Exactly one caller
// can move the wizard into SubmitInFlight; repeats while in flight or after
// success are refused, and the contact step must validate. Entering clears
// any previous failure message.
func (s *Store) beginSubmit() submitGate {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Submission.Status {
	case SubmitInFlight:
		return gateInFlight
	case SubmitSucceeded:
		return gateAlreadySucceeded
	}
	if s.state.Step != StepContact {
		return gateWrongStep
	}
	if _, ok := s.validateCurrentLocked(); !ok {
		return gateInvalidFields
	}
	s.state.Submission = Submission{Status: SubmitInFlight}
	return gateEntered
}

// completeSubmit records a confirmed remote creation and advances the
// wizard to its terminal step.
func (s *Store) completeSubmit(bookingRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Submission = Submission{Status: SubmitSucceeded, BookingRef: bookingRef}
	s.state.Step = StepConfirmation
}

// failSubmit records the single user-facing failure message and returns the
// wizard to a recoverable state on the contact step.
func (s *Store) failSubmit(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Submission = Submission{Status: SubmitFailed, FailureMessage: message}
}

func (s *Store) snapshotLocked() State {
	st := s.state
	st.FieldErrors = cloneErrors(s.state.FieldErrors)
	st.Touched = cloneTouched(s.state.Touched)
	if s.state.Coordinates != nil {
		c := *s.state.Coordinates
		st.Coordinates = &c
	}
	return st
}
