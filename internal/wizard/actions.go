package wizard

import (
	"github.com/wolfman30/cleanbook/internal/catalog"
	"github.com/wolfman30/cleanbook/internal/pricing"
)

// Action is the closed set of state mutations. One variant per field keeps
// invalid field/value pairs unrepresentable.
type Action interface {
	isAction()
}

// SetServiceType selects a cleaning service by serviceTypeId.
type SetServiceType struct{ ServiceTypeID string }

// SetPropertyType selects house or flat.
type SetPropertyType struct{ PropertyType pricing.PropertyType }

// SetRoomCount sets the number of rooms; values below the minimum clamp.
type SetRoomCount struct{ RoomCount int }

// SetBookingDate sets the calendar date ("2006-01-02").
type SetBookingDate struct{ Date string }

// SetBookingTime sets the time of day ("15:04").
type SetBookingTime struct{ Time string }

// SetDuration sets the duration in hours; values below the minimum clamp.
type SetDuration struct{ Hours int }

// SetInstructions sets the freeform instructions text.
type SetInstructions struct{ Text string }

// SetNeedsSupplies toggles the cleaning-supplies add-on.
type SetNeedsSupplies struct{ Needs bool }

// SetFullName sets the contact name.
type SetFullName struct{ Name string }

// SetEmail sets the contact email.
type SetEmail struct{ Email string }

// SetPhoneNumber sets the contact phone number.
type SetPhoneNumber struct{ Phone string }

// SetLocation replaces the address and its coordinates as a unit, so
// coordinates can never go stale relative to the address.
type SetLocation struct {
	Address     string
	Coordinates *Coordinates
}

// SetErrors replaces the field-error map with the most recent validator run.
type SetErrors struct{ Errors map[string]ErrorKind }

// TouchFields marks fields as interacted-with so their errors render.
type TouchFields struct{ Fields []string }

// ServicesLoaded installs the fetched service definitions and clears the
// loading flag.
type ServicesLoaded struct{ Services []catalog.Service }

// Reset restores selection, contact, and validation state to defaults while
// keeping already-loaded reference data.
type Reset struct{}

// setCost is produced exclusively by the store's recompute observer; nothing
// outside this package can dispatch it.
type setCost struct{ Cost int }

func (SetServiceType) isAction()   {}
func (SetPropertyType) isAction()  {}
func (SetRoomCount) isAction()     {}
func (SetBookingDate) isAction()   {}
func (SetBookingTime) isAction()   {}
func (SetDuration) isAction()      {}
func (SetInstructions) isAction()  {}
func (SetNeedsSupplies) isAction() {}
func (SetFullName) isAction()      {}
func (SetEmail) isAction()         {}
func (SetPhoneNumber) isAction()   {}
func (SetLocation) isAction()      {}
func (SetErrors) isAction()        {}
func (TouchFields) isAction()      {}
func (ServicesLoaded) isAction()   {}
func (Reset) isAction()            {}
func (setCost) isAction()          {}

// reduce applies a single action atomically and returns the next state.
// Total over its inputs: unknown actions return the state unchanged.
func reduce(st State, a Action) State {
	switch act := a.(type) {
	case SetServiceType:
		st.ServiceTypeID = act.ServiceTypeID
	case SetPropertyType:
		st.PropertyType = act.PropertyType
	case SetRoomCount:
		st.RoomCount = max(minRoomCount, act.RoomCount)
	case SetBookingDate:
		st.BookingDate = act.Date
	case SetBookingTime:
		st.BookingTime = act.Time
	case SetDuration:
		st.DurationHours = max(minDurationHours, act.Hours)
	case SetInstructions:
		st.Instructions = act.Text
	case SetNeedsSupplies:
		st.NeedsSupplies = act.Needs
	case SetFullName:
		st.FullName = act.Name
	case SetEmail:
		st.Email = act.Email
	case SetPhoneNumber:
		st.PhoneNumber = act.Phone
	case SetLocation:
		st.Address = act.Address
		st.Coordinates = act.Coordinates
	case SetErrors:
		st.FieldErrors = cloneErrors(act.Errors)
	case TouchFields:
		touched := cloneTouched(st.Touched)
		for _, f := range act.Fields {
			touched[f] = true
		}
		st.Touched = touched
	case ServicesLoaded:
		st.Services = act.Services
		st.ServicesLoading = false
	case Reset:
		st = initialState(st.Services)
	case setCost:
		st.TotalCost = act.Cost
	}
	return st
}

func cloneErrors(m map[string]ErrorKind) map[string]ErrorKind {
	out := make(map[string]ErrorKind, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneTouched(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
