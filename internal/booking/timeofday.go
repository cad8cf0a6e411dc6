package booking

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// TimeOfDay is a clock time expressed as minutes since midnight.
// Bookings and working hours travel over the wire as "HH:mm" strings;
// parsing them into minutes makes interval arithmetic trivial.
type TimeOfDay int

// ParseTimeOfDay parses a strict zero-padded "HH:mm" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("time %q must be HH:mm", s)
	}
	hh, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("time %q must be HH:mm", s)
	}
	mm, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("time %q must be HH:mm", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return TimeOfDay(hh*60 + mm), nil
}

// String returns the zero-padded "HH:mm" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns the time shifted forward by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// MarshalJSON encodes the time as its "HH:mm" string form.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an "HH:mm" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Slot is a discrete bookable interval within a practitioner's working
// hours. The interval is half-open: [From, To).
type Slot struct {
	From TimeOfDay `json:"from"`
	To   TimeOfDay `json:"to"`
}

// GenerateSlots splits the working window [from, to) into consecutive
// duration-sized slots. A trailing remainder shorter than the duration
// is dropped, so the last slot's To never exceeds the window end.
// Returns nil when the window is empty or the duration is not positive.
func GenerateSlots(from, to TimeOfDay, durationMinutes int) []Slot {
	if durationMinutes <= 0 || from >= to {
		return nil
	}
	var slots []Slot
	for cursor := from; cursor.Add(durationMinutes) <= to; cursor = cursor.Add(durationMinutes) {
		slots = append(slots, Slot{From: cursor, To: cursor.Add(durationMinutes)})
	}
	return slots
}

// Overlaps reports whether the half-open intervals [aFrom, aTo) and
// [bFrom, bTo) intersect. Back-to-back intervals touching at a
// boundary do not overlap.
func Overlaps(aFrom, aTo, bFrom, bTo TimeOfDay) bool {
	return aFrom < bTo && aTo > bFrom
}
