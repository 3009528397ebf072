// Package dates resolves free-text date expressions ("next weekend",
// "January 20-27", "in 3 days") into concrete calendar ranges. The parser is
// pure: every resolution is computed against an injected reference date and
// never reads the system clock.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISO is the wire format for calendar dates throughout the concierge.
const ISO = "2006-01-02"

// defaultWindowDays extends a single requested date into an inclusive 7-day
// window, which is what the availability backend expects for open-ended
// requests.
const defaultWindowDays = 6

// ErrPastDate marks input that resolved to a start date before the reference
// date. Checked after year inference, so "December 20" asked in January still
// lands in the current year.
var ErrPastDate = errors.New("that date is in the past")

// Range is an inclusive calendar span. Start and End carry no time component
// and Start <= End always holds for a Range returned by Parse.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) String() string {
	return r.Start.Format(ISO) + " to " + r.End.Format(ISO)
}

// Days returns the inclusive length of the range in days.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

var (
	reRelativeDays = regexp.MustCompile(`^(?:in\s+(\d+)\s+days?|(\d+)\s+days?\s+from\s+(?:now|today))$`)
	reISORange     = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*(?:to|through|until|-|–)\s*(\d{4}-\d{2}-\d{2})$`)
	reISOSingle    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reSlashRange   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\s*(?:-|–|to|through|until)\s*(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	reSlashSingle  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	reMonthFor     = regexp.MustCompile(`^([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\s+for\s+(\d+)\s+(?:days?|nights?)$`)
	reMonthRange   = regexp.MustCompile(`^([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\s*(?:-|–|to|through|until)\s*(?:([a-z]+)\.?\s+)?(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?$`)
	reMonthSingle  = regexp.MustCompile(`^([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?$`)
	reSpaces       = regexp.MustCompile(`\s+`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Parse resolves a natural-language date expression against ref. ref is
// truncated to midnight in its own location before any resolution.
func Parse(input string, ref time.Time) (Range, error) {
	ref = midnight(ref)

	text := strings.ToLower(strings.TrimSpace(input))
	text = reSpaces.ReplaceAllString(text, " ")
	if text == "" {
		return Range{}, errors.New("no dates given")
	}

	r, ok, err := resolve(text, ref)
	if err != nil {
		return Range{}, err
	}
	if !ok {
		return Range{}, fmt.Errorf("could not understand %q, try something like \"March 12\", \"next weekend\" or \"2026-03-12 to 2026-03-15\"", input)
	}

	if r.Start.Before(ref) {
		return Range{}, fmt.Errorf("%w: %s", ErrPastDate, r.Start.Format(ISO))
	}
	if r.End.Before(r.Start) {
		return Range{}, fmt.Errorf("end date %s falls before start date %s", r.End.Format(ISO), r.Start.Format(ISO))
	}
	return r, nil
}

// resolve tries each recognized family in order. ok=false means no family
// matched; err is reserved for matched-but-invalid input (bad month name,
// impossible day of month).
func resolve(text string, ref time.Time) (Range, bool, error) {
	switch text {
	case "today", "now", "asap":
		return window(ref), true, nil
	case "tomorrow":
		return window(ref.AddDate(0, 0, 1)), true, nil
	case "this week":
		start := ref
		if monday := startOfWeek(ref); monday.After(start) {
			start = monday
		}
		return Range{Start: start, End: startOfWeek(ref).AddDate(0, 0, 6)}, true, nil
	case "next week":
		monday := startOfWeek(ref).AddDate(0, 0, 7)
		return Range{Start: monday, End: monday.AddDate(0, 0, 6)}, true, nil
	case "this weekend", "weekend":
		sat := nextSaturday(ref)
		return Range{Start: sat, End: sat.AddDate(0, 0, 1)}, true, nil
	case "next weekend":
		sat := nextSaturday(ref).AddDate(0, 0, 7)
		return Range{Start: sat, End: sat.AddDate(0, 0, 1)}, true, nil
	}

	if m := reRelativeDays.FindStringSubmatch(text); m != nil {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			return Range{}, false, fmt.Errorf("bad day count %q", digits)
		}
		return window(ref.AddDate(0, 0, n)), true, nil
	}

	if m := reISORange.FindStringSubmatch(text); m != nil {
		start, err := parseISO(m[1], ref.Location())
		if err != nil {
			return Range{}, false, err
		}
		end, err := parseISO(m[2], ref.Location())
		if err != nil {
			return Range{}, false, err
		}
		return Range{Start: start, End: end}, true, nil
	}

	if reISOSingle.MatchString(text) {
		start, err := parseISO(text, ref.Location())
		if err != nil {
			return Range{}, false, err
		}
		return window(start), true, nil
	}

	if m := reSlashRange.FindStringSubmatch(text); m != nil {
		start, err := numericDate(m[1], m[2], m[3], ref)
		if err != nil {
			return Range{}, false, err
		}
		end, err := numericDate(m[4], m[5], m[6], ref)
		if err != nil {
			return Range{}, false, err
		}
		return Range{Start: start, End: end}, true, nil
	}

	if m := reSlashSingle.FindStringSubmatch(text); m != nil {
		start, err := numericDate(m[1], m[2], m[3], ref)
		if err != nil {
			return Range{}, false, err
		}
		return window(start), true, nil
	}

	if m := reMonthFor.FindStringSubmatch(text); m != nil {
		month, ok := monthNames[m[1]]
		if !ok {
			return Range{}, false, fmt.Errorf("unknown month %q", m[1])
		}
		start, err := namedDate(month, m[2], m[3], ref)
		if err != nil {
			return Range{}, false, err
		}
		n, err := strconv.Atoi(m[4])
		if err != nil || n < 1 {
			return Range{}, false, fmt.Errorf("bad day count %q", m[4])
		}
		return Range{Start: start, End: start.AddDate(0, 0, n-1)}, true, nil
	}

	if m := reMonthRange.FindStringSubmatch(text); m != nil {
		startMonth, ok := monthNames[m[1]]
		if !ok {
			return Range{}, false, fmt.Errorf("unknown month %q", m[1])
		}
		endMonth := startMonth
		if m[3] != "" {
			if endMonth, ok = monthNames[m[3]]; !ok {
				return Range{}, false, fmt.Errorf("unknown month %q", m[3])
			}
		}
		start, err := namedDate(startMonth, m[2], m[5], ref)
		if err != nil {
			return Range{}, false, err
		}
		end, err := namedDate(endMonth, m[4], m[5], ref)
		if err != nil {
			return Range{}, false, err
		}
		return Range{Start: start, End: end}, true, nil
	}

	if m := reMonthSingle.FindStringSubmatch(text); m != nil {
		month, ok := monthNames[m[1]]
		if !ok {
			return Range{}, false, fmt.Errorf("unknown month %q", m[1])
		}
		start, err := namedDate(month, m[2], m[3], ref)
		if err != nil {
			return Range{}, false, err
		}
		return window(start), true, nil
	}

	return Range{}, false, nil
}

// window extends a single date to the default 7-day inclusive span.
func window(start time.Time) Range {
	return Range{Start: start, End: start.AddDate(0, 0, defaultWindowDays)}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday of the ISO week containing t.
func startOfWeek(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return t.AddDate(0, 0, 1-wd)
}

// nextSaturday returns t itself when t is a Saturday.
func nextSaturday(t time.Time) time.Time {
	days := (int(time.Saturday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, days)
}

func parseISO(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(ISO, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a valid date", s)
	}
	return t, nil
}

// namedDate builds a date from a month name match. yearText may be empty, in
// which case the year is inferred: current year unless that already passed,
// then next year.
func namedDate(month time.Month, dayText, yearText string, ref time.Time) (time.Time, error) {
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad day %q", dayText)
	}
	if yearText != "" {
		year, err := strconv.Atoi(yearText)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad year %q", yearText)
		}
		return exactDate(year, month, day, ref.Location())
	}
	return inferYear(month, day, ref)
}

// numericDate builds a date from M/D[/Y] digits with the same year inference
// as namedDate. Two-digit years are taken as 20xx.
func numericDate(monthText, dayText, yearText string, ref time.Time) (time.Time, error) {
	monthNum, err := strconv.Atoi(monthText)
	if err != nil || monthNum < 1 || monthNum > 12 {
		return time.Time{}, fmt.Errorf("bad month %q", monthText)
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad day %q", dayText)
	}
	if yearText != "" {
		year, err := strconv.Atoi(yearText)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad year %q", yearText)
		}
		if year < 100 {
			year += 2000
		}
		return exactDate(year, time.Month(monthNum), day, ref.Location())
	}
	return inferYear(time.Month(monthNum), day, ref)
}

func inferYear(month time.Month, day int, ref time.Time) (time.Time, error) {
	t, err := exactDate(ref.Year(), month, day, ref.Location())
	if err != nil {
		return time.Time{}, err
	}
	if t.Before(ref) {
		return exactDate(ref.Year()+1, month, day, ref.Location())
	}
	return t, nil
}

// exactDate rejects impossible days (February 30) instead of letting
// time.Date normalize them into the next month.
func exactDate(year int, month time.Month, day int, loc *time.Location) (time.Time, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%s %d is not a real date", month, day)
	}
	return t, nil
}
