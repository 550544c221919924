package store

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yugr/gaplan/pkg/eta"
	"github.com/yugr/gaplan/pkg/interval"
)

// Hours per duration unit. Months and years are in working hours.
var unitHours = map[byte]float64{
	'h': 1,
	'd': 8,
	'w': 40,
	'm': 176,
	'y': 2112,
}

var (
	durationRe = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*([hdwmy])$`)
	effortRe   = regexp.MustCompile(`^([^()]*?)\s*(?:\(([^()]*)\))?$`)
)

// ParseDuration converts a duration literal like "3d" to hours, rounded to
// whole hours.
func ParseDuration(s string) (float64, error) {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return math.Round(n * unitHours[m[2][0]]), nil
}

// ParseEffort parses an effort literal. Accepted forms are "8h", "1d-2w",
// "1d-2d (3d)" and "(3d)" where the parenthesized part is the actual effort
// spent so far.
func ParseEffort(s string) (eta.ETA, error) {
	var e eta.ETA
	m := effortRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || (m[1] == "" && m[2] == "") {
		return e, fmt.Errorf("invalid effort %q", s)
	}

	if est := strings.TrimSpace(m[1]); est != "" {
		lo, hi, isRange := strings.Cut(est, "-")
		minH, err := ParseDuration(lo)
		if err != nil {
			return e, err
		}
		e.Min = eta.Hours(minH)
		if isRange {
			maxH, err := ParseDuration(hi)
			if err != nil {
				return e, err
			}
			if maxH < minH {
				return e, fmt.Errorf("invalid effort %q: upper bound below lower bound", s)
			}
			e.Max = eta.Hours(maxH)
		}
	}

	if spent := strings.TrimSpace(m[2]); spent != "" {
		h, err := ParseDuration(spent)
		if err != nil {
			return e, err
		}
		e.Real = eta.Hours(h)
	}
	return e, nil
}

// ParseDate parses "YYYY-MM-DD" or "YYYY-MM", the latter meaning the first
// day of the month.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseDateRange parses a single date or "A - B". Both ends are inclusive.
func ParseDateRange(s string) (interval.Interval, error) {
	lo, hi, isRange := strings.Cut(s, " - ")
	start, err := ParseDate(lo)
	if err != nil {
		return interval.Interval{}, err
	}
	finish := start
	if isRange {
		if finish, err = ParseDate(hi); err != nil {
			return interval.Interval{}, err
		}
	}
	iv, err := interval.Closed(start, finish)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("invalid date range %q: %w", s, err)
	}
	return iv, nil
}

// ParseParallel parses a parallelism value: a positive number or "max".
func ParseParallel(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "max" {
		return math.MaxInt, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid parallelism %q", s)
	}
	return n, nil
}

// ParseFraction parses "60%" or "0.6".
func ParseFraction(s string) (float64, error) {
	s = strings.TrimSpace(s)
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = 100
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fraction %q", s)
	}
	f /= scale
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("fraction %q out of range", s)
	}
	return f, nil
}
