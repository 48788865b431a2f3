package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateContact(t *testing.T) {
	base := State{
		FullName:    "Ada Lovelace",
		Email:       "ada@example.com",
		PhoneNumber: "+44 20 7946 0958",
	}

	tests := []struct {
		name   string
		mutate func(*State)
		want   map[string]ErrorKind
	}{
		{
			name:   "all valid",
			mutate: func(*State) {},
			want:   map[string]ErrorKind{},
		},
		{
			name:   "blank name",
			mutate: func(st *State) { st.FullName = "   " },
			want:   map[string]ErrorKind{FieldFullName: ErrRequired},
		},
		{
			name:   "missing email",
			mutate: func(st *State) { st.Email = "" },
			want:   map[string]ErrorKind{FieldEmail: ErrRequired},
		},
		{
			name:   "malformed email",
			mutate: func(st *State) { st.Email = "not-an-email" },
			want:   map[string]ErrorKind{FieldEmail: ErrInvalidFormat},
		},
		{
			name:   "email with spaces",
			mutate: func(st *State) { st.Email = "ada lovelace@example.com" },
			want:   map[string]ErrorKind{FieldEmail: ErrInvalidFormat},
		},
		{
			name:   "missing phone",
			mutate: func(st *State) { st.PhoneNumber = "" },
			want:   map[string]ErrorKind{FieldPhoneNumber: ErrRequired},
		},
		{
			name:   "phone with letters",
			mutate: func(st *State) { st.PhoneNumber = "call me maybe" },
			want:   map[string]ErrorKind{FieldPhoneNumber: ErrInvalidFormat},
		},
		{
			name: "everything wrong at once",
			mutate: func(st *State) {
				st.FullName = ""
				st.Email = "nope"
				st.PhoneNumber = "123"
			},
			want: map[string]ErrorKind{
				FieldFullName:    ErrRequired,
				FieldEmail:       ErrInvalidFormat,
				FieldPhoneNumber: ErrInvalidFormat,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := base
			tt.mutate(&st)
			errs, ok := validateStep(st, StepContact)
			assert.Equal(t, tt.want, errs)
			assert.Equal(t, len(tt.want) == 0, ok)
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	errs, ok := validateStep(State{}, StepSchedule)
	assert.False(t, ok)
	assert.Equal(t, ErrRequired, errs[FieldBookingDate])
	assert.Equal(t, ErrRequired, errs[FieldBookingTime])

	errs, ok = validateStep(State{BookingDate: "2026-05-01", BookingTime: "10:00"}, StepSchedule)
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateLocation(t *testing.T) {
	errs, ok := validateStep(State{Address: "  "}, StepLocation)
	assert.False(t, ok)
	assert.Equal(t, ErrRequired, errs[FieldAddress])

	_, ok = validateStep(State{Address: "12 Baker Street"}, StepLocation)
	assert.True(t, ok)
}

func TestSelectionStepsAlwaysPass(t *testing.T) {
	for _, step := range []Step{StepService, StepProperty} {
		errs, ok := validateStep(State{}, step)
		assert.True(t, ok, step.String())
		assert.Empty(t, errs)
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+44 20 7946 0958", true},
		{"(555) 123-4567", true},
		{"07911123456", true},
		{"0044 20 7946 0958", true},
		{"+1-800-555-0199", true},
		{"12345", false},          // too few digits
		{"00 12 34 56", false},    // prefix does not count
		{"555-CALL-NOW", false},   // letters
		{"+44 20 7946 0958 x12", false},
		{"123456789012345678901", false}, // too many digits
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validPhone(tt.phone), tt.phone)
	}
}
