// Package slotclock computes the canonical reservation day and validates
// hour-of-day slots. Sessions are always booked for the calendar day after
// the booking instant, one hour per slot.
package slotclock

import (
	"errors"
	"time"
)

const (
	FirstSlot = 0
	LastSlot  = 23
)

var ErrTimeSlotOutOfRange = errors.New("time slot must be between 0 and 23")

// NormalizedBookingDate returns midnight of the day after now, in now's location.
func NormalizedBookingDate(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// Today returns midnight of now's calendar day.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// IsFutureDay reports whether date falls on a calendar day strictly after now's.
func IsFutureDay(date, now time.Time) bool {
	y, m, d := date.In(now.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).After(Today(now))
}

func ValidateTimeSlot(slot int) error {
	if slot < FirstSlot || slot > LastSlot {
		return ErrTimeSlotOutOfRange
	}
	return nil
}

// SlotStart is the instant a slot begins on the given day.
func SlotStart(date time.Time, slot int) time.Time {
	return Today(date).Add(time.Duration(slot) * time.Hour)
}
