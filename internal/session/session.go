// Package session keeps the per-sender booking dialogue state.
package session

import (
	"errors"
	"time"

	"github.com/wolfman30/citas-assistant/internal/availability"
)

// Step is the sender's position in the booking dialogue.
type Step string

const (
	StepStart             Step = "start"
	StepAwaitStartConfirm Step = "await_start_confirm"
	StepServiceChoice     Step = "service_choice"
	StepDateChoice        Step = "date_choice"
	StepSlotChoice        Step = "slot_choice"
)

// ErrInvalidStep is returned when a session carries a step outside the enumeration.
var ErrInvalidStep = errors.New("session: invalid step")

// ErrCorrupt is returned by Get when the stored value cannot be decoded.
// Callers start over with New(); the next Put replaces the bad value.
var ErrCorrupt = errors.New("session: corrupt stored value")

// Valid reports whether s is one of the known steps.
func (s Step) Valid() bool {
	switch s {
	case StepStart, StepAwaitStartConfirm, StepServiceChoice, StepDateChoice, StepSlotChoice:
		return true
	}
	return false
}

func (s Step) String() string {
	return string(s)
}

// Session is the dialogue state of one sender. The option lists hold exactly
// what was last presented so numeric replies resolve against the same list.
type Session struct {
	Step            Step                `json:"step"`
	Service         string              `json:"service,omitempty"`
	DoctorID        string              `json:"doctor_id,omitempty"`
	Date            string              `json:"date,omitempty"`
	ServiceOptions  []string            `json:"service_options,omitempty"`
	DateOptions     []string            `json:"date_options,omitempty"`
	SlotOptions     []availability.Slot `json:"slot_options,omitempty"`
	InvalidAttempts int                 `json:"invalid_attempts,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// New returns a session at the start of the dialogue.
func New() *Session {
	return &Session{Step: StepStart}
}

// Reset returns the session to START and clears every optional field.
func (s *Session) Reset() {
	*s = Session{Step: StepStart, UpdatedAt: s.UpdatedAt}
}

// SelectService records the chosen service and its staff member. Any
// previously chosen date no longer applies.
func (s *Session) SelectService(name, doctorID string) {
	s.Service = name
	s.DoctorID = doctorID
	s.Date = ""
	s.SlotOptions = nil
}

// SelectDate records the chosen date. A date without a service is rejected.
func (s *Session) SelectDate(date string) error {
	if s.Service == "" || s.DoctorID == "" {
		return errors.New("session: date selected before service")
	}
	s.Date = date
	return nil
}

// Advance moves to next and clears the invalid-attempt counter.
func (s *Session) Advance(next Step) {
	s.Step = next
	s.InvalidAttempts = 0
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.ServiceOptions = append([]string(nil), s.ServiceOptions...)
	out.DateOptions = append([]string(nil), s.DateOptions...)
	out.SlotOptions = append([]availability.Slot(nil), s.SlotOptions...)
	return &out
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 || s.UpdatedAt.IsZero() {
		return false
	}
	return now.Sub(s.UpdatedAt) > ttl
}
