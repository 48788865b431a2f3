package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/cleanbook/internal/catalog"
	"github.com/wolfman30/cleanbook/internal/observability/metrics"
	"github.com/wolfman30/cleanbook/internal/strapi"
	"github.com/wolfman30/cleanbook/pkg/logging"
)

// Sentinel errors returned by Submit for conditions the HTTP layer maps to
// distinct statuses. Remote failures are returned as *SubmitError instead.
var (
	ErrSubmissionInFlight = errors.New("wizard: submission already in flight")
	ErrAlreadySubmitted   = errors.New("wizard: booking already submitted")
	ErrNotReadyToSubmit   = errors.New("wizard: wizard has not reached the contact step")
	ErrInvalidFields      = errors.New("wizard: contact details failed validation")
)

// SubmitError carries the single user-facing message for a failed
// submission pipeline run.
type SubmitError struct {
	Message string
	cause   error
}

func (e *SubmitError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *SubmitError) Unwrap() error { return e.cause }

// Gateway is the slice of the data service client the submitter needs.
type Gateway interface {
	FindCustomerByEmail(ctx context.Context, email string) (*strapi.Customer, error)
	CreateCustomer(ctx context.Context, req strapi.CreateCustomerRequest) (*strapi.Customer, error)
	CreateBooking(ctx context.Context, payload strapi.BookingPayload) (*strapi.Booking, error)
}

// ServiceResolver resolves the selected serviceTypeId against loaded
// reference data.
type ServiceResolver interface {
	ResolveService(serviceTypeID string) (*catalog.Service, bool)
}

// statusSubmitted is the fixed initial status on every created booking.
const statusSubmitted = "submitted"

// Submitter runs the submission pipeline: find-or-create customer, resolve
// service, normalize the scheduled timestamp, create the booking. It is the
// sole translator from gateway errors to the user-facing failure message.
type Submitter struct {
	gw       Gateway
	resolver ServiceResolver
	loc      *time.Location
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithLocation sets the timezone booking date/time input is interpreted in.
func WithLocation(loc *time.Location) SubmitterOption {
	return func(s *Submitter) {
		s.loc = loc
	}
}

// WithMetrics attaches submission metrics.
func WithMetrics(m *metrics.BookingMetrics) SubmitterOption {
	return func(s *Submitter) {
		s.metrics = m
	}
}

// NewSubmitter creates a submission pipeline bound to a gateway and loaded
// reference data.
func NewSubmitter(gw Gateway, resolver ServiceResolver, logger *logging.Logger, opts ...SubmitterOption) *Submitter {
	if gw == nil {
		panic("wizard: gateway required")
	}
	if resolver == nil {
		panic("wizard: service resolver required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Submitter{gw: gw, resolver: resolver, loc: time.UTC, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs the pipeline against the store's current state. Entry is
// guarded: a wizard already submitting (or already succeeded) is refused
// without touching remote state. On success the store holds the booking
// identifier and the wizard sits on its terminal step; on failure the store
// carries the failure message and stays recoverable on the contact step. An
// orphaned customer created by a failed run is benign: the lookup step makes
// retries idempotent from the user's perspective.
func (s *Submitter) Submit(ctx context.Context, store *Store) (string, error) {
	switch store.beginSubmit() {
	case gateInFlight:
		s.metrics.ObserveSubmission("rejected", -1)
		return "", ErrSubmissionInFlight
	case gateAlreadySucceeded:
		s.metrics.ObserveSubmission("rejected", -1)
		return "", ErrAlreadySubmitted
	case gateWrongStep:
		s.metrics.ObserveSubmission("rejected", -1)
		return "", ErrNotReadyToSubmit
	case gateInvalidFields:
		s.metrics.ObserveSubmission("rejected", -1)
		return "", ErrInvalidFields
	}

	start := time.Now()
	ref, err := s.run(ctx, store.State())
	if err != nil {
		store.failSubmit(err.Message)
		s.metrics.ObserveSubmission("failed", time.Since(start).Seconds())
		s.logger.Error("booking submission failed", "error", err)
		return "", err
	}

	store.completeSubmit(ref)
	s.metrics.ObserveSubmission("succeeded", time.Since(start).Seconds())
	s.logger.Info("booking submitted", "booking_ref", ref)
	return ref, nil
}

// run executes the pipeline steps in strict order; the first failure aborts
// the rest. The scheduled timestamp is normalized before any remote call so
// bad date/time input never reaches the network.
func (s *Submitter) run(ctx context.Context, st State) (string, *SubmitError) {
	scheduledAt, err := s.normalizeDateTime(st.BookingDate, st.BookingTime)
	if err != nil {
		return "", &SubmitError{Message: "invalid booking date or time", cause: err}
	}

	customerRef, err := s.resolveCustomer(ctx, st)
	if err != nil {
		return "", &SubmitError{Message: "failed to resolve customer", cause: err}
	}

	svc, ok := s.resolver.ResolveService(st.ServiceTypeID)
	if !ok {
		return "", &SubmitError{Message: "selected service not found"}
	}

	payload := strapi.BookingPayload{
		ScheduledDateTime:     scheduledAt.Format(time.RFC3339),
		Address:               st.Address,
		BookingStatus:         statusSubmitted,
		PropertyType:          string(st.PropertyType),
		NumberOfRooms:         st.RoomCount,
		DurationHours:         st.DurationHours,
		NeedsCleaningSupplies: st.NeedsSupplies,
		CalculatedCost:        st.TotalCost,
		Notes:                 st.Instructions,
		Customer:              customerRef,
		Service:               svc.Ref,
	}
	if st.Coordinates != nil {
		payload.Latitude = st.Coordinates.Latitude
		payload.Longitude = st.Coordinates.Longitude
	}

	booking, berr := s.gw.CreateBooking(ctx, payload)
	if berr != nil {
		return "", &SubmitError{Message: "failed to create booking", cause: berr}
	}
	return booking.Ref(), nil
}

// resolveCustomer reuses an existing customer matched by email or creates a
// new record. Either way the result must carry a usable identifier.
func (s *Submitter) resolveCustomer(ctx context.Context, st State) (string, error) {
	email := strings.TrimSpace(st.Email)

	existing, err := s.gw.FindCustomerByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.Ref() != "" {
		return existing.Ref(), nil
	}

	created, err := s.gw.CreateCustomer(ctx, strapi.CreateCustomerRequest{
		Name:        strings.TrimSpace(st.FullName),
		Email:       email,
		PhoneNumber: strings.TrimSpace(st.PhoneNumber),
	})
	if err != nil {
		return "", err
	}
	if created.Ref() == "" {
		return "", errors.New("created customer has no identifier")
	}
	return created.Ref(), nil
}

// normalizeDateTime combines the date and time-of-day fields into a single
// instant in the submitter's location.
func (s *Submitter) normalizeDateTime(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, errors.New("booking date and time are required")
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}
