// Package wizard implements the booking wizard: a reducer-managed state
// store with typed actions, per-step validators, and the submission
// pipeline that persists a finished booking against the data service.
package wizard

import (
	"github.com/wolfman30/cleanbook/internal/catalog"
	"github.com/wolfman30/cleanbook/internal/pricing"
)

// Step is the wizard's position. Steps advance only past validation.
type Step int

const (
	StepService Step = iota
	StepProperty
	StepSchedule
	StepLocation
	StepContact
	StepConfirmation
)

// String returns the wire name of the step.
func (s Step) String() string {
	switch s {
	case StepService:
		return "service"
	case StepProperty:
		return "property"
	case StepSchedule:
		return "schedule"
	case StepLocation:
		return "location"
	case StepContact:
		return "contact"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// ErrorKind classifies a field validation failure.
type ErrorKind string

const (
	ErrRequired      ErrorKind = "required"
	ErrInvalidFormat ErrorKind = "invalidFormat"
)

// SubmitStatus is the submission pipeline's state.
type SubmitStatus string

const (
	SubmitIdle      SubmitStatus = "idle"
	SubmitInFlight  SubmitStatus = "submitting"
	SubmitSucceeded SubmitStatus = "succeeded"
	SubmitFailed    SubmitStatus = "failed"
)

// Coordinates is an optional lat/lng pair produced by the map widget. It is
// only ever set together with the address it belongs to.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Submission holds the outcome of the submission pipeline. BookingRef is set
// only after a confirmed successful remote creation; it is never populated
// alongside a failure message.
type Submission struct {
	Status         SubmitStatus `json:"status"`
	BookingRef     string       `json:"bookingRef,omitempty"`
	FailureMessage string       `json:"failureMessage,omitempty"`
}

// State is the wizard's aggregate root. All mutation goes through the
// store's Dispatch; TotalCost is derived and never set by callers.
type State struct {
	Step Step `json:"step"`

	ServiceTypeID string               `json:"serviceTypeId"`
	PropertyType  pricing.PropertyType `json:"propertyType"`
	RoomCount     int                  `json:"roomCount"`
	BookingDate   string               `json:"bookingDate"` // "2006-01-02"
	BookingTime   string               `json:"bookingTime"` // "15:04"
	DurationHours int                  `json:"durationHours"`
	Address       string               `json:"address"`
	Coordinates   *Coordinates         `json:"coordinates,omitempty"`
	Instructions  string               `json:"instructions"`
	NeedsSupplies bool                 `json:"needsSupplies"`

	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`

	TotalCost int `json:"totalCost"`

	FieldErrors map[string]ErrorKind `json:"fieldErrors"`
	Touched     map[string]bool      `json:"touched"`

	Services        []catalog.Service `json:"services"`
	ServicesLoading bool              `json:"servicesLoading"`

	Submission Submission `json:"submission"`
}

const (
	minRoomCount     = 1
	minDurationHours = 2

	defaultRoomCount     = 2
	defaultDurationHours = 2
)

// initialState builds the wizard defaults. Loaded reference data, when
// present, selects the first service.
func initialState(services []catalog.Service) State {
	serviceTypeID := "regular"
	if len(services) > 0 {
		serviceTypeID = services[0].ServiceTypeID
	}
	return State{
		Step:            StepService,
		ServiceTypeID:   serviceTypeID,
		PropertyType:    pricing.PropertyHouse,
		RoomCount:       defaultRoomCount,
		DurationHours:   defaultDurationHours,
		FieldErrors:     map[string]ErrorKind{},
		Touched:         map[string]bool{},
		Services:        services,
		ServicesLoading: len(services) == 0,
		Submission:      Submission{Status: SubmitIdle},
	}
}

// resolveService finds the loaded definition for a serviceTypeId, nil when
// reference data has not loaded or no definition matches.
func resolveService(services []catalog.Service, serviceTypeID string) *catalog.Service {
	for i := range services {
		if services[i].ServiceTypeID == serviceTypeID {
			svc := services[i]
			return &svc
		}
	}
	return nil
}
