package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

const juryDateLayout = "2006-01-02"

// timeRange is a half-open [Start, End) span in minutes since midnight.
type timeRange struct {
	Start int
	End   int
}

func (r timeRange) overlaps(other timeRange) bool {
	return r.Start < other.End && other.Start < r.End
}

func (r timeRange) within(other timeRange) bool {
	return other.Start <= r.Start && r.End <= other.End
}

// candidateSlot is one trial (date, start, end) for a jury.
type candidateSlot struct {
	Date  time.Time
	Range timeRange
}

func (c candidateSlot) key() slotKey {
	return slotKey{Date: c.Date.Format(juryDateLayout), Start: c.Range.Start}
}

func (c candidateSlot) StartLabel() string { return formatClock(c.Range.Start) }

func (c candidateSlot) EndLabel() string { return formatClock(c.Range.End) }

// dayTemplate is the fixed set of slots offered on every working day.
type dayTemplate struct {
	start       int
	end         int
	slotMinutes int
}

// newDayTemplate builds slots of slotMinutes starting at dayStart; the last slot ends at or before dayEnd.
func newDayTemplate(dayStart, dayEnd string, slotMinutes int) (dayTemplate, error) {
	start, err := parseClock(dayStart)
	if err != nil {
		return dayTemplate{}, fmt.Errorf("day start: %w", err)
	}
	end, err := parseClock(dayEnd)
	if err != nil {
		return dayTemplate{}, fmt.Errorf("day end: %w", err)
	}
	if slotMinutes <= 0 {
		return dayTemplate{}, fmt.Errorf("slot length must be positive, got %d", slotMinutes)
	}
	if end-start < slotMinutes {
		return dayTemplate{}, fmt.Errorf("day %s-%s cannot hold a %d minute slot", dayStart, dayEnd, slotMinutes)
	}
	return dayTemplate{start: start, end: end, slotMinutes: slotMinutes}, nil
}

func (t dayTemplate) slotsPerDay() int {
	return (t.end - t.start) / t.slotMinutes
}

func (t dayTemplate) ranges() []timeRange {
	ranges := make([]timeRange, 0, t.slotsPerDay())
	for begin := t.start; begin+t.slotMinutes <= t.end; begin += t.slotMinutes {
		ranges = append(ranges, timeRange{Start: begin, End: begin + t.slotMinutes})
	}
	return ranges
}

// workingDays returns count weekdays strictly after start, in order.
func workingDays(start time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}
	first := truncateDate(start).AddDate(0, 0, 1)
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Count:     count,
		Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
		Dtstart:   first,
	})
	if err != nil {
		return nil, fmt.Errorf("build weekday rule: %w", err)
	}
	return rule.All(), nil
}

// buildCandidateSlots sizes the calendar to ceil(pending/slotsPerDay)+1 weekdays after start and
// returns every slot ordered by date, then start time.
func buildCandidateSlots(start time.Time, pending int, tpl dayTemplate) ([]candidateSlot, error) {
	if pending <= 0 {
		return nil, nil
	}
	perDay := tpl.slotsPerDay()
	dayCount := (pending+perDay-1)/perDay + 1

	days, err := workingDays(start, dayCount)
	if err != nil {
		return nil, err
	}
	ranges := tpl.ranges()
	slots := make([]candidateSlot, 0, len(days)*len(ranges))
	for _, day := range days {
		for _, r := range ranges {
			slots = append(slots, candidateSlot{Date: day, Range: r})
		}
	}
	return slots, nil
}

// parseClock accepts HH:MM or HH:MM:SS and returns minutes since midnight.
func parseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	total := hours*60 + minutes
	if total > 24*60 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	return total, nil
}

func parseClockRange(start, end string) (timeRange, error) {
	from, err := parseClock(start)
	if err != nil {
		return timeRange{}, err
	}
	to, err := parseClock(end)
	if err != nil {
		return timeRange{}, err
	}
	if to <= from {
		return timeRange{}, fmt.Errorf("time range %s-%s is empty", start, end)
	}
	return timeRange{Start: from, End: to}, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
