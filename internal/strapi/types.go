package strapi

import "encoding/json"

// Service is a remote-configured pricing/description record for a cleaning
// service offering. Loaded once per process and treated as read-only.
type Service struct {
	ID                 json.Number `json:"id"`
	DocumentID         string      `json:"documentId"`
	ServiceTypeID      string      `json:"serviceTypeId"`
	DisplayName        string      `json:"displayName"`
	Description        string      `json:"description,omitempty"`
	BasePrice          float64     `json:"basePrice"`
	BaseRoomsIncluded  int         `json:"baseRoomsIncluded"`
	BaseDurationHours  int         `json:"baseDurationHours"`
	AdditionalRoomCost float64     `json:"additionalRoomCost"`
	AdditionalHourCost float64     `json:"additionalHourCost"`
}

// Ref returns the identifier used for relations in create payloads. The
// backend accepts either documentId or the numeric id; documentId is
// preferred when present.
func (s Service) Ref() string {
	if s.DocumentID != "" {
		return s.DocumentID
	}
	return s.ID.String()
}

// SlotDefinition is a selectable start-time window.
type SlotDefinition struct {
	ID         json.Number `json:"id"`
	Identifier string      `json:"identifier"`
	StartTime  string      `json:"startTime"` // "08:00:00.000"
	EndTime    string      `json:"endTime"`
}

// Customer is a customer record on the data service.
type Customer struct {
	ID          json.Number `json:"id"`
	DocumentID  string      `json:"documentId"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	PhoneNumber string      `json:"phoneNumber,omitempty"`
}

// Ref returns the relation identifier for the customer.
func (c Customer) Ref() string {
	if c.DocumentID != "" {
		return c.DocumentID
	}
	return c.ID.String()
}

// CreateCustomerRequest is the body for POST /api/customers.
type CreateCustomerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// BookingPayload is the body for POST /api/bookings.
type BookingPayload struct {
	ScheduledDateTime     string  `json:"scheduledDateTime"` // ISO 8601
	Address               string  `json:"address"`
	BookingStatus         string  `json:"bookingStatus"`
	PropertyType          string  `json:"propertyType"`
	NumberOfRooms         int     `json:"numberOfRooms"`
	DurationHours         int     `json:"durationHours"`
	NeedsCleaningSupplies bool    `json:"needsCleaningSupplies"`
	CalculatedCost        int     `json:"calculatedCost"`
	Notes                 string  `json:"notes,omitempty"`
	Customer              string  `json:"customer"`
	Service               string  `json:"service"`
	Latitude              float64 `json:"latitude,omitempty"`
	Longitude             float64 `json:"longitude,omitempty"`
}

// Booking is a booking record returned by the data service. Relation fields
// are populated only on the read path.
type Booking struct {
	ID                    json.Number `json:"id"`
	DocumentID            string      `json:"documentId"`
	ScheduledDateTime     string      `json:"scheduledDateTime"`
	Address               string      `json:"address"`
	BookingStatus         string      `json:"bookingStatus"`
	PropertyType          string      `json:"propertyType,omitempty"`
	NumberOfRooms         int         `json:"numberOfRooms,omitempty"`
	DurationHours         int         `json:"durationHours"`
	NeedsCleaningSupplies bool        `json:"needsCleaningSupplies,omitempty"`
	CalculatedCost        int         `json:"calculatedCost"`
	Notes                 string      `json:"notes,omitempty"`
	Customer              *Customer   `json:"customer,omitempty"`
	Service               *Service    `json:"service,omitempty"`
}

// Ref returns the booking's opaque identifier.
func (b Booking) Ref() string {
	if b.DocumentID != "" {
		return b.DocumentID
	}
	return b.ID.String()
}

// envelope is the standard response wrapper: {"data": ..., "error": {...}}.
type envelope[T any] struct {
	Data  T         `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// dataWrapper wraps create payloads the way the API expects: {"data": {...}}.
type dataWrapper[T any] struct {
	Data T `json:"data"`
}

type apiError struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}
