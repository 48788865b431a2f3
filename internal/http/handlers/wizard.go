package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/cleanbook/internal/catalog"
	"github.com/wolfman30/cleanbook/internal/observability/metrics"
	"github.com/wolfman30/cleanbook/internal/pricing"
	"github.com/wolfman30/cleanbook/internal/session"
	"github.com/wolfman30/cleanbook/internal/strapi"
	"github.com/wolfman30/cleanbook/internal/wizard"
	"github.com/wolfman30/cleanbook/pkg/logging"
)

// BookingsReader is the gateway slice behind the bookings lookup endpoint.
type BookingsReader interface {
	FindCustomerByEmail(ctx context.Context, email string) (*strapi.Customer, error)
	ListBookingsByCustomer(ctx context.Context, customerRef string) ([]strapi.Booking, error)
}

// WizardHandler exposes wizard sessions over HTTP. Each request loads the
// session snapshot, replays it into a store, applies the operation, and
// persists the result.
type WizardHandler struct {
	sessions  session.Store
	catalog   *catalog.Catalog
	submitter *wizard.Submitter
	reader    BookingsReader
	pricing   pricing.Config
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger

	// Sessions with an operation in flight; guards against duplicate
	// concurrent submissions from repeated clicks.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// WizardHandlerConfig wires a WizardHandler.
type WizardHandlerConfig struct {
	Sessions  session.Store
	Catalog   *catalog.Catalog
	Submitter *wizard.Submitter
	Reader    BookingsReader
	Pricing   pricing.Config
	Metrics   *metrics.BookingMetrics
	Logger    *logging.Logger
}

// NewWizardHandler creates the wizard HTTP handler.
func NewWizardHandler(cfg WizardHandlerConfig) *WizardHandler {
	if cfg.Sessions == nil {
		panic("handlers: session store required")
	}
	if cfg.Catalog == nil {
		panic("handlers: catalog required")
	}
	if cfg.Submitter == nil {
		panic("handlers: submitter required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &WizardHandler{
		sessions:  cfg.Sessions,
		catalog:   cfg.Catalog,
		submitter: cfg.Submitter,
		reader:    cfg.Reader,
		pricing:   cfg.Pricing,
		metrics:   cfg.Metrics,
		logger:    logger,
		inflight:  make(map[string]struct{}),
	}
}

type sessionResponse struct {
	ID        string            `json:"id"`
	Step      string            `json:"step"`
	State     wizard.State      `json:"state"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// updateRequest carries partial field updates. Every present field maps to
// exactly one typed action; unknown fields are rejected at decode time.
type updateRequest struct {
	ServiceTypeID *string         `json:"serviceTypeId"`
	PropertyType  *string         `json:"propertyType"`
	RoomCount     *int            `json:"roomCount"`
	BookingDate   *string         `json:"bookingDate"`
	BookingTime   *string         `json:"bookingTime"`
	DurationHours *int            `json:"durationHours"`
	Instructions  *string         `json:"instructions"`
	NeedsSupplies *bool           `json:"needsSupplies"`
	FullName      *string         `json:"fullName"`
	Email         *string         `json:"email"`
	PhoneNumber   *string         `json:"phoneNumber"`
	Location      *locationUpdate `json:"location"`
}

// locationUpdate replaces address and coordinates together.
type locationUpdate struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (u updateRequest) actions() []wizard.Action {
	var acts []wizard.Action
	if u.ServiceTypeID != nil {
		acts = append(acts, wizard.SetServiceType{ServiceTypeID: *u.ServiceTypeID})
	}
	if u.PropertyType != nil {
		acts = append(acts, wizard.SetPropertyType{PropertyType: pricing.PropertyType(*u.PropertyType)})
	}
	if u.RoomCount != nil {
		acts = append(acts, wizard.SetRoomCount{RoomCount: *u.RoomCount})
	}
	if u.BookingDate != nil {
		acts = append(acts, wizard.SetBookingDate{Date: *u.BookingDate})
	}
	if u.BookingTime != nil {
		acts = append(acts, wizard.SetBookingTime{Time: *u.BookingTime})
	}
	if u.DurationHours != nil {
		acts = append(acts, wizard.SetDuration{Hours: *u.DurationHours})
	}
	if u.Instructions != nil {
		acts = append(acts, wizard.SetInstructions{Text: *u.Instructions})
	}
	if u.NeedsSupplies != nil {
		acts = append(acts, wizard.SetNeedsSupplies{Needs: *u.NeedsSupplies})
	}
	if u.FullName != nil {
		acts = append(acts, wizard.SetFullName{Name: *u.FullName})
	}
	if u.Email != nil {
		acts = append(acts, wizard.SetEmail{Email: *u.Email})
	}
	if u.PhoneNumber != nil {
		acts = append(acts, wizard.SetPhoneNumber{Phone: *u.PhoneNumber})
	}
	if u.Location != nil {
		loc := wizard.SetLocation{Address: u.Location.Address}
		if u.Location.Latitude != nil && u.Location.Longitude != nil {
			loc.Coordinates = &wizard.Coordinates{
				Latitude:  *u.Location.Latitude,
				Longitude: *u.Location.Longitude,
			}
		}
		acts = append(acts, loc)
	}
	return acts
}

// CreateSession handles POST /sessions. A session opened before the catalog
// loads starts with the services-loading flag set; the next load() on that
// session picks the list up once a refresh lands.
func (h *WizardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	store := wizard.NewStoreWithServices(h.pricing, h.catalog.Services())
	sess := session.New(store.State())
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveSessionCreated()
	h.logger.Info("wizard session created", "session_id", sess.ID)
	h.writeSession(w, http.StatusCreated, sess, store)
}

// GetSession handles GET /sessions/{id}.
func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, store, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeSession(w, http.StatusOK, sess, store)
}

// UpdateSession handles PATCH /sessions/{id}: field updates dispatched as
// typed actions. The cost observer runs inside the store on each dispatch.
func (h *WizardHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.acquire(id) {
		http.Error(w, "operation already in progress", http.StatusConflict)
		return
	}
	defer h.release(id)

	sess, store, ok := h.load(w, r)
	if !ok {
		return
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req updateRequest
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	acts := req.actions()
	if len(acts) == 0 {
		http.Error(w, "no fields to update", http.StatusBadRequest)
		return
	}
	for _, a := range acts {
		store.Dispatch(a)
	}

	if !h.persist(w, r, sess, store) {
		return
	}
	h.writeSession(w, http.StatusOK, sess, store)
}

type advanceResponse struct {
	Advanced bool                        `json:"advanced"`
	Step     string                      `json:"step"`
	Errors   map[string]wizard.ErrorKind `json:"errors,omitempty"`
}

// Advance handles POST /sessions/{id}/advance.
func (h *WizardHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.acquire(id) {
		http.Error(w, "operation already in progress", http.StatusConflict)
		return
	}
	defer h.release(id)

	sess, store, ok := h.load(w, r)
	if !ok {
		return
	}

	passed, errs := store.Advance()
	if !h.persist(w, r, sess, store) {
		return
	}

	status := http.StatusOK
	if !passed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, advanceResponse{
		Advanced: passed,
		Step:     store.State().Step.String(),
		Errors:   errs,
	})
}

// Back handles POST /sessions/{id}/back.
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.acquire(id) {
		http.Error(w, "operation already in progress", http.StatusConflict)
		return
	}
	defer h.release(id)

	sess, store, ok := h.load(w, r)
	if !ok {
		return
	}

	moved := store.Back()
	if !h.persist(w, r, sess, store) {
		return
	}
	writeJSON(w, http.StatusOK, advanceResponse{Advanced: moved, Step: store.State().Step.String()})
}

// Reset handles POST /sessions/{id}/reset: "book another" restores defaults
// but keeps the loaded reference data.
func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.acquire(id) {
		http.Error(w, "operation already in progress", http.StatusConflict)
		return
	}
	defer h.release(id)

	sess, store, ok := h.load(w, r)
	if !ok {
		return
	}

	store.Dispatch(wizard.Reset{})
	if !h.persist(w, r, sess, store) {
		return
	}
	h.writeSession(w, http.StatusOK, sess, store)
}

type submitResponse struct {
	BookingRef string `json:"bookingRef,omitempty"`
	Step       string `json:"step"`
	Error      string `json:"error,omitempty"`
}

// Submit handles POST /sessions/{id}/submit. The in-flight set plus the
// store's own guard means two rapid submits produce exactly one
// create-booking call; the loser gets 409.
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.acquire(id) {
		http.Error(w, "submission already in progress", http.StatusConflict)
		return
	}
	defer h.release(id)

	sess, store, ok := h.load(w, r)
	if !ok {
		return
	}

	ref, err := h.submitter.Submit(r.Context(), store)

	sess.State = store.State()
	if saveErr := h.sessions.Save(r.Context(), sess); saveErr != nil {
		h.logger.Error("failed to save session", "error", saveErr, "session_id", sess.ID)
		// The booking may already exist upstream. Return the ref so the
		// caller does not retry into a duplicate.
		writeJSON(w, http.StatusInternalServerError, submitResponse{
			BookingRef: ref,
			Step:       store.State().Step.String(),
			Error:      "failed to save session",
		})
		return
	}

	if err != nil {
		h.writeSubmitError(w, store, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{BookingRef: ref, Step: store.State().Step.String()})
}

func (h *WizardHandler) writeSubmitError(w http.ResponseWriter, store *wizard.Store, err error) {
	var subErr *wizard.SubmitError
	switch {
	case errors.Is(err, wizard.ErrSubmissionInFlight),
		errors.Is(err, wizard.ErrAlreadySubmitted),
		errors.Is(err, wizard.ErrNotReadyToSubmit):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, wizard.ErrInvalidFields):
		writeJSON(w, http.StatusUnprocessableEntity, advanceResponse{
			Advanced: false,
			Step:     store.State().Step.String(),
			Errors:   store.State().FieldErrors,
		})
	case errors.As(err, &subErr):
		writeJSON(w, http.StatusBadGateway, submitResponse{
			Step:  store.State().Step.String(),
			Error: subErr.Message,
		})
	default:
		http.Error(w, "submission failed", http.StatusInternalServerError)
	}
}

// ListServices handles GET /services.
func (h *WizardHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Loaded() {
		http.Error(w, "reference data not loaded yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": h.catalog.Services()})
}

// ListSlots handles GET /slots.
func (h *WizardHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Loaded() {
		http.Error(w, "reference data not loaded yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": h.catalog.Slots()})
}

type bookingSummary struct {
	Ref               string `json:"ref"`
	ScheduledDateTime string `json:"scheduledDateTime"`
	Address           string `json:"address"`
	BookingStatus     string `json:"bookingStatus"`
	DurationHours     int    `json:"durationHours"`
	CalculatedCost    int    `json:"calculatedCost"`
	Notes             string `json:"notes,omitempty"`
	ServiceName       string `json:"serviceName,omitempty"`
	CustomerName      string `json:"customerName,omitempty"`
	CustomerEmail     string `json:"customerEmail,omitempty"`
}

// CustomerBookings handles GET /customers/bookings?email=: the lookup page's
// read path.
func (h *WizardHandler) CustomerBookings(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		http.Error(w, "bookings lookup not configured", http.StatusNotImplemented)
		return
	}
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	cust, err := h.reader.FindCustomerByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("customer lookup failed", "error", err)
		http.Error(w, "customer lookup failed", http.StatusBadGateway)
		return
	}
	if cust == nil {
		http.Error(w, "no customer for that email", http.StatusNotFound)
		return
	}

	bookings, err := h.reader.ListBookingsByCustomer(r.Context(), cust.Ref())
	if err != nil {
		h.logger.Error("bookings lookup failed", "error", err)
		http.Error(w, "bookings lookup failed", http.StatusBadGateway)
		return
	}

	out := make([]bookingSummary, 0, len(bookings))
	for _, b := range bookings {
		summary := bookingSummary{
			Ref:               b.Ref(),
			ScheduledDateTime: b.ScheduledDateTime,
			Address:           b.Address,
			BookingStatus:     b.BookingStatus,
			DurationHours:     b.DurationHours,
			CalculatedCost:    b.CalculatedCost,
			Notes:             b.Notes,
		}
		if b.Service != nil {
			summary.ServiceName = b.Service.DisplayName
		}
		if b.Customer != nil {
			summary.CustomerName = b.Customer.Name
			summary.CustomerEmail = b.Customer.Email
		}
		out = append(out, summary)
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out, "count": len(out)})
}

// HealthCheck handles GET /health.
func (h *WizardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WizardHandler) load(w http.ResponseWriter, r *http.Request) (*session.Session, *wizard.Store, bool) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
		} else {
			h.logger.Error("failed to load session", "error", err, "session_id", id)
			http.Error(w, "failed to load session", http.StatusInternalServerError)
		}
		return nil, nil, false
	}
	store := wizard.NewStoreFrom(h.pricing, sess.State)
	if sess.State.ServicesLoading && h.catalog.Loaded() {
		store.Dispatch(wizard.ServicesLoaded{Services: h.catalog.Services()})
	}
	return sess, store, true
}

func (h *WizardHandler) persist(w http.ResponseWriter, r *http.Request, sess *session.Session, store *wizard.Store) bool {
	sess.State = store.State()
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sess.ID)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *WizardHandler) writeSession(w http.ResponseWriter, status int, sess *session.Session, store *wizard.Store) {
	writeJSON(w, status, sessionResponse{
		ID:        sess.ID,
		Step:      store.State().Step.String(),
		State:     store.State(),
		Breakdown: store.Breakdown(),
	})
}

func (h *WizardHandler) acquire(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inflight[id]; busy {
		return false
	}
	h.inflight[id] = struct{}{}
	return true
}

func (h *WizardHandler) release(id string) {
	h.mu.Lock()
	delete(h.inflight, id)
	h.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
