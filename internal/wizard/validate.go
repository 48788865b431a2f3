package wizard

import (
	"regexp"
	"strings"
)

// Field names shared by validators, the error map, and the HTTP layer.
const (
	FieldBookingDate = "bookingDate"
	FieldBookingTime = "bookingTime"
	FieldAddress     = "address"
	FieldFullName    = "fullName"
	FieldEmail       = "email"
	FieldPhoneNumber = "phoneNumber"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Digits, spaces, parentheses, hyphens, optional leading + or 00.
	phonePattern = regexp.MustCompile(`^(\+|00)?[0-9\s()\-]+$`)
)

// validateStep runs the validator for one step. Validators are pure: they
// inspect the state and return the error map for the fields they cover plus
// a pass/fail flag. Recording errors and touched flags is the caller's job.
func validateStep(st State, step Step) (map[string]ErrorKind, bool) {
	errs := map[string]ErrorKind{}
	switch step {
	case StepService, StepProperty:
		// Every value on these steps has a safe default.
	case StepSchedule:
		if strings.TrimSpace(st.BookingDate) == "" {
			errs[FieldBookingDate] = ErrRequired
		}
		if strings.TrimSpace(st.BookingTime) == "" {
			errs[FieldBookingTime] = ErrRequired
		}
	case StepLocation:
		if strings.TrimSpace(st.Address) == "" {
			errs[FieldAddress] = ErrRequired
		}
	case StepContact:
		if strings.TrimSpace(st.FullName) == "" {
			errs[FieldFullName] = ErrRequired
		}
		switch {
		case strings.TrimSpace(st.Email) == "":
			errs[FieldEmail] = ErrRequired
		case !emailPattern.MatchString(strings.TrimSpace(st.Email)):
			errs[FieldEmail] = ErrInvalidFormat
		}
		switch {
		case strings.TrimSpace(st.PhoneNumber) == "":
			errs[FieldPhoneNumber] = ErrRequired
		case !validPhone(st.PhoneNumber):
			errs[FieldPhoneNumber] = ErrInvalidFormat
		}
	}
	return errs, len(errs) == 0
}

// stepFields lists the fields a step's validator covers; the caller marks
// them touched so errors become visible immediately.
func stepFields(step Step) []string {
	switch step {
	case StepSchedule:
		return []string{FieldBookingDate, FieldBookingTime}
	case StepLocation:
		return []string{FieldAddress}
	case StepContact:
		return []string{FieldFullName, FieldEmail, FieldPhoneNumber}
	default:
		return nil
	}
}

// validPhone accepts permissive international phone input: digits, spaces,
// parentheses, hyphens, an optional leading + or 00, and 8 to 20 significant
// digits (an international-prefix 00 does not count).
func validPhone(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if !phonePattern.MatchString(trimmed) {
		return false
	}
	digits := 0
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if strings.HasPrefix(trimmed, "00") {
		digits -= 2
	}
	return digits >= 8 && digits <= 20
}
