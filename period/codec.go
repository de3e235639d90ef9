package period

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// View identifies a calendar granularity, named after the grid views the
// scheduling UI requests.
type View string

const (
	VIEW_YEAR  View = "multiMonthYear"
	VIEW_MONTH View = "dayGridMonth"
	VIEW_WEEK  View = "timeGridWeek"
	VIEW_DAY   View = "timeGridDay"
)

// now is swapped out by tests.
var now = time.Now

// Range is the concrete time span covered by a period key. End is
// inclusive through 23:59:59.999 of the last covered day.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range (inclusive ends).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Key shape patterns, most specific first: a day key would also satisfy a
// looser month/year rule, so Parse must check in this order.
var (
	dayKeyPattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	weekKeyPattern  = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)
	monthKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	yearKeyPattern  = regexp.MustCompile(`^(\d{4})$`)
)

// Encode returns the canonical key for the period containing d at the
// given granularity. Time-of-day is ignored.
//
// Week keys are Saturday-anchored: the week runs Saturday through Friday,
// week 1 starts at the first Saturday on/before Jan 1, and the key's year
// is the week-start's year (not the query date's) so weeks crossing a
// year boundary stay stable.
func Encode(view View, d time.Time) string {
	switch view {
	case VIEW_YEAR:
		return fmt.Sprintf("%04d", d.Year())
	case VIEW_WEEK:
		ws := WeekStart(d)
		return fmt.Sprintf("%04d-W%02d", ws.Year(), weekNumber(ws))
	case VIEW_DAY:
		return d.Format("2006-01-02")
	default:
		return d.Format("2006-01")
	}
}

// Decode maps a key back to its concrete range for the given granularity.
// Malformed keys fall back to the current month so downstream rendering
// never has to deal with a hard failure.
func Decode(view View, key string) Range {
	switch view {
	case VIEW_YEAR:
		if m := yearKeyPattern.FindStringSubmatch(key); m != nil {
			y, _ := strconv.Atoi(m[1])
			return yearRange(y)
		}
	case VIEW_WEEK:
		if m := weekKeyPattern.FindStringSubmatch(key); m != nil {
			y, _ := strconv.Atoi(m[1])
			wn, _ := strconv.Atoi(m[2])
			return weekRange(y, wn)
		}
	case VIEW_DAY:
		if d, err := time.ParseInLocation("2006-01-02", key, time.Local); err == nil {
			return dayRange(d)
		}
	default:
		if d, err := time.ParseInLocation("2006-01", key, time.Local); err == nil {
			return monthRange(d.Year(), d.Month())
		}
	}
	return currentMonthRange()
}

// RangeOf decodes a key using its string shape alone, without a
// caller-supplied view. The second return is false for unrecognized keys.
func RangeOf(key string) (Range, bool) {
	switch {
	case dayKeyPattern.MatchString(key):
		return Decode(VIEW_DAY, key), true
	case weekKeyPattern.MatchString(key):
		return Decode(VIEW_WEEK, key), true
	case monthKeyPattern.MatchString(key):
		return Decode(VIEW_MONTH, key), true
	case yearKeyPattern.MatchString(key):
		return Decode(VIEW_YEAR, key), true
	}
	return Range{}, false
}

// Parse infers granularity from the key's shape and returns the period's
// start date. Used by eviction ordering and sort comparisons.
func Parse(key string) (time.Time, bool) {
	r, ok := RangeOf(key)
	if !ok {
		return time.Time{}, false
	}
	return r.Start, true
}

// OldestKey returns the key with the earliest start among keys whose shape
// parses; false on empty or all-malformed input.
func OldestKey(keys []string) (string, bool) {
	return pickKey(keys, func(candidate, best time.Time) bool { return candidate.Before(best) })
}

// NewestKey is the mirror of OldestKey.
func NewestKey(keys []string) (string, bool) {
	return pickKey(keys, func(candidate, best time.Time) bool { return candidate.After(best) })
}

func pickKey(keys []string, better func(candidate, best time.Time) bool) (string, bool) {
	var bestKey string
	var bestStart time.Time
	found := false
	for _, k := range keys {
		start, ok := Parse(k)
		if !ok {
			continue
		}
		if !found || better(start, bestStart) {
			bestKey, bestStart = k, start
			found = true
		}
	}
	return bestKey, found
}

// WeekStart returns the Saturday on/before d, at midnight.
func WeekStart(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	back := (int(day.Weekday()) + 1) % 7
	return day.AddDate(0, 0, -back)
}

// weekNumber numbers Saturday-anchored weeks from the first Saturday
// on/before Jan 1 of the week-start's year.
func weekNumber(ws time.Time) int {
	jan1 := time.Date(ws.Year(), time.January, 1, 0, 0, 0, 0, ws.Location())
	return daysBetween(WeekStart(jan1), ws)/7 + 1
}

// daysBetween counts calendar days from a to b, DST-proof by comparing in UTC.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

func yearRange(y int) Range {
	start := time.Date(y, time.January, 1, 0, 0, 0, 0, time.Local)
	return Range{Start: start, End: EndOfDay(time.Date(y, time.December, 31, 0, 0, 0, 0, time.Local))}
}

func monthRange(y int, m time.Month) Range {
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
	lastDay := start.AddDate(0, 1, -1)
	return Range{Start: start, End: EndOfDay(lastDay)}
}

func weekRange(y, wn int) Range {
	jan1 := time.Date(y, time.January, 1, 0, 0, 0, 0, time.Local)
	start := WeekStart(jan1).AddDate(0, 0, (wn-1)*7)
	return Range{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
}

func dayRange(d time.Time) Range {
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
	return Range{Start: start, End: EndOfDay(start)}
}

func currentMonthRange() Range {
	n := now()
	return monthRange(n.Year(), n.Month())
}

// EndOfDay returns 23:59:59.999 of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StartOfDay returns midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
