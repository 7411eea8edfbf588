package availability

import (
	"regexp"
	"sort"
)

// Slot is an open interval for a staff member. Start and End keep the
// provider's full date-time strings.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Day groups the open slots of one calendar date (YYYY-MM-DD).
type Day struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

var clockPattern = regexp.MustCompile(`\d{2}:\d{2}`)

// StartClock returns the HH:MM portion of the start timestamp.
func (s Slot) StartClock() string {
	return clock(s.Start)
}

// EndClock returns the HH:MM portion of the end timestamp.
func (s Slot) EndClock() string {
	return clock(s.End)
}

// Same reports whether both slots cover the same interval.
func (s Slot) Same(other Slot) bool {
	return s.Start == other.Start && s.End == other.End
}

func clock(ts string) string {
	if m := clockPattern.FindString(ts); m != "" {
		return m
	}
	return ts
}

// FindDay returns the entry for date, if the provider listed it.
func FindDay(days []Day, date string) (Day, bool) {
	for _, d := range days {
		if d.Date == date {
			return d, true
		}
	}
	return Day{}, false
}

// SortedSlots returns a deduplicated copy of slots ordered by start then end.
// Numbered lists are rendered from this order so the same index resolves to
// the same slot.
func SortedSlots(slots []Slot) []Slot {
	seen := make(map[Slot]struct{}, len(slots))
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// Contains reports whether slot is present in slots.
func Contains(slots []Slot, slot Slot) bool {
	for _, s := range slots {
		if s.Same(slot) {
			return true
		}
	}
	return false
}
