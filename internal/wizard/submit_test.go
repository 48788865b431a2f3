package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/cleanbook/internal/catalog"
	"github.com/wolfman30/cleanbook/internal/strapi"
)

// fakeGateway records every remote call so tests can assert which pipeline
// steps ran and with what payloads.
type fakeGateway struct {
	mu sync.Mutex

	existing      *strapi.Customer
	findErr       error
	createCustErr error
	bookingErr    error
	bookingDelay  time.Duration

	findCalls    int
	createCalls  int
	bookingCalls int
	lastCreated  strapi.CreateCustomerRequest
	lastPayload  strapi.BookingPayload
}

func (f *fakeGateway) FindCustomerByEmail(ctx context.Context, email string) (*strapi.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.existing, nil
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, req strapi.CreateCustomerRequest) (*strapi.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreated = req
	if f.createCustErr != nil {
		return nil, f.createCustErr
	}
	return &strapi.Customer{DocumentID: "cust_doc_new", Name: req.Name, Email: req.Email}, nil
}

func (f *fakeGateway) CreateBooking(ctx context.Context, payload strapi.BookingPayload) (*strapi.Booking, error) {
	f.mu.Lock()
	delay := f.bookingDelay
	f.bookingCalls++
	f.lastPayload = payload
	err := f.bookingErr
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return &strapi.Booking{DocumentID: "bk_doc_1"}, nil
}

func (f *fakeGateway) calls() (find, create, booking int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findCalls, f.createCalls, f.bookingCalls
}

// staticResolver resolves serviceTypeIds against a fixed slice.
type staticResolver struct {
	services []catalog.Service
}

func (r staticResolver) ResolveService(serviceTypeID string) (*catalog.Service, bool) {
	for i := range r.services {
		if r.services[i].ServiceTypeID == serviceTypeID {
			svc := r.services[i]
			return &svc, true
		}
	}
	return nil, false
}

func newTestSubmitter(t *testing.T, gw *fakeGateway) *Submitter {
	t.Helper()
	return NewSubmitter(gw, staticResolver{services: testServices()}, nil)
}

func TestSubmitCreatesCustomerWhenLookupMisses(t *testing.T) {
	gw := &fakeGateway{} // no existing customer
	sub := newTestSubmitter(t, gw)
	s := storeAtContact(t)
	cost := s.State().TotalCost

	ref, err := sub.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "bk_doc_1", ref)

	find, create, booking := gw.calls()
	assert.Equal(t, 1, find)
	assert.Equal(t, 1, create)
	assert.Equal(t, 1, booking)

	assert.Equal(t, "Ada Lovelace", gw.lastCreated.Name)
	assert.Equal(t, "ada@example.com", gw.lastCreated.Email)

	// The booking relates to the customer created in this run.
	assert.Equal(t, "cust_doc_new", gw.lastPayload.Customer)
	assert.Equal(t, "svc_doc_1", gw.lastPayload.Service)
	assert.Equal(t, "2026-05-01T10:00:00Z", gw.lastPayload.ScheduledDateTime)
	assert.Equal(t, "submitted", gw.lastPayload.BookingStatus)
	assert.Equal(t, cost, gw.lastPayload.CalculatedCost)

	st := s.State()
	assert.Equal(t, SubmitSucceeded, st.Submission.Status)
	assert.Equal(t, "bk_doc_1", st.Submission.BookingRef)
	assert.Equal(t, StepConfirmation, st.Step)
}

func TestSubmitReusesExistingCustomer(t *testing.T) {
	gw := &fakeGateway{existing: &strapi.Customer{DocumentID: "cust_doc_7", Email: "ada@example.com"}}
	sub := newTestSubmitter(t, gw)
	s := storeAtContact(t)

	_, err := sub.Submit(context.Background(), s)
	require.NoError(t, err)

	_, create, _ := gw.calls()
	assert.Zero(t, create)
	assert.Equal(t, "cust_doc_7", gw.lastPayload.Customer)
}

func TestSubmitEmptyTimeAbortsBeforeAnyRemoteCall(t *testing.T) {
	gw := &fakeGateway{}
	sub := newTestSubmitter(t, gw)
	s := storeAtContact(t)
	s.Dispatch(SetBookingTime{Time: ""})

	_, err := sub.Submit(context.Background(), s)
	var subErr *SubmitError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "invalid booking date or time", subErr.Message)

	find, create, booking := gw.calls()
	assert.Zero(t, find)
	assert.Zero(t, create)
	assert.Zero(t, booking)

	st := s.State()
	assert.Equal(t, SubmitFailed, st.Submission.Status)
	assert.Equal(t, "invalid booking date or time", st.Submission.FailureMessage)
	assert.Equal(t, StepContact, st.Step)
}

func TestSubmitFailureIsRecoverable(t *testing.T) {
	gw := &fakeGateway{bookingErr: errors.New("status 502")}
	sub := newTestSubmitter(t, gw)
	s := storeAtContact(t)

	_, err := sub.Submit(context.Background(), s)
	var subErr *SubmitError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "failed to create booking", subErr.Message)

	st := s.State()
	assert.Equal(t, SubmitFailed, st.Submission.Status)
	assert.Empty(t, st.Submission.BookingRef)
	assert.Equal(t, StepContact, st.Step)

	// The remote recovers; a retry from the same state succeeds.
	gw.mu.Lock()
	gw.bookingErr = nil
	gw.mu.Unlock()

	ref, err := sub.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "bk_doc_1", ref)
	assert.Equal(t, SubmitSucceeded, s.State().Submission.Status)
}

func TestSubmitRefusedBeforeContactStep(t *testing.T) {
	gw := &fakeGateway{}
	sub := newTestSubmitter(t, gw)
	s := newTestStore(t)

	_, err := sub.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrNotReadyToSubmit)
	_, _, booking := gw.calls()
	assert.Zero(t, booking)
}

func TestSubmitRefusedOnInvalidContact(t *testing.T) {
	gw := &fakeGateway{}
	sub := newTestSubmitter(t, gw)
	s := storeAtContact(t)
	s.Dispatch(SetEmail{Email: "not-an-email"})

	_, err := sub.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrInvalidFields)
	assert.Equal(t, ErrInvalidFormat, s.State().FieldErrors[FieldEmail])

	find, _, _ := gw.calls()
	assert.Zero(t, find)
}

func TestSubmitRefusedAfterSuccess(t *testing.T) {
	gw := &fakeGateway{}
	sub := newTestSubmitter(t, gw)
	s := storeAtContact(t)

	_, err := sub.Submit(context.Background(), s)
	require.NoError(t, err)

	_, err = sub.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	_, _, booking := gw.calls()
	assert.Equal(t, 1, booking)
}

func TestConcurrentSubmitsCreateExactlyOneBooking(t *testing.T) {
	gw := &fakeGateway{bookingDelay: 20 * time.Millisecond}
	sub := newTestSubmitter(t, gw)
	s := storeAtContact(t)

	const attempts = 5
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sub.Submit(context.Background(), s)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, refused int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSubmissionInFlight), errors.Is(err, ErrAlreadySubmitted):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, refused)

	_, _, booking := gw.calls()
	assert.Equal(t, 1, booking)
}
