// Package calendar holds the booking grid: 30-minute slots from 09:00 to 17:30 on a calendar
// day, plus the date and time rules that surround it.
package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	DateLayout = "2006-01-02"

	OpeningMinute  = 9 * 60
	LastSlotMinute = 17*60 + 30
	SlotLength     = 30 * time.Minute

	// CancellationCutoff is how long before the start an appointment stops being cancellable.
	CancellationCutoff = time.Hour
)

var (
	ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidTime = errors.New("invalid time format, use HH:MM")
	ErrOffGrid     = errors.New("time must be within business hours (09:00-17:30) in 30-minute intervals")
)

var (
	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRegex = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)
)

// Slot is one bookable start time.
type Slot struct {
	ID        string `json:"id"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Slots returns the full grid for a day, every slot marked available.
func Slots() []Slot {
	slots := make([]Slot, 0, (LastSlotMinute-OpeningMinute)/30+1)
	for m := OpeningMinute; m <= LastSlotMinute; m += 30 {
		t := formatMinute(m)
		slots = append(slots, Slot{ID: t, Time: t, Available: true})
	}

	return slots
}

// ParseDate parses a YYYY-MM-DD calendar day as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if !dateRegex.MatchString(s) {
		return time.Time{}, ErrInvalidDate
	}

	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}

	return d, nil
}

// FormatDate renders a stored day back to YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.UTC().Format(DateLayout)
}

// ParseTime validates an "H:MM" or "HH:MM" string and returns its minute of day.
func ParseTime(s string) (int, error) {
	match := timeRegex.FindStringSubmatch(s)
	if match == nil {
		return 0, ErrInvalidTime
	}

	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])

	return hours*60 + minutes, nil
}

// NormalizeSlot validates s against the grid and returns it in canonical "HH:MM" form.
// Format errors return ErrInvalidTime, well-formed times outside the grid return ErrOffGrid.
func NormalizeSlot(s string) (string, error) {
	minute, err := ParseTime(s)
	if err != nil {
		return "", err
	}

	if minute < OpeningMinute || minute > LastSlotMinute || minute%30 != 0 {
		return "", ErrOffGrid
	}

	return formatMinute(minute), nil
}

// IsPastDay reports whether day lies before today in loc.
// day is a stored calendar day (midnight UTC); only its year, month and day are compared.
func IsPastDay(day time.Time, now time.Time, loc *time.Location) bool {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	return day.UTC().Before(today)
}

// StartTime combines a stored day and slot time into an instant in loc.
func StartTime(day time.Time, slot string, loc *time.Location) (time.Time, error) {
	minute, err := ParseTime(slot)
	if err != nil {
		return time.Time{}, err
	}

	d := day.UTC()

	return time.Date(d.Year(), d.Month(), d.Day(), minute/60, minute%60, 0, 0, loc), nil
}

// CanCancel reports whether an appointment at (day, slot) may still be cancelled at now.
// Cancellation closes at CancellationCutoff before the start.
func CanCancel(day time.Time, slot string, loc *time.Location, now time.Time) (bool, error) {
	start, err := StartTime(day, slot, loc)
	if err != nil {
		return false, err
	}

	return now.Before(start.Add(-CancellationCutoff)), nil
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
