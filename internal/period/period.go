// Package period builds the half-open calendar ranges that reports aggregate
// over. Bounds are ISO YYYY-MM-DD strings so they compare lexicographically
// against stored record dates.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Range is [Start, End).
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r Range) Contains(date string) bool {
	return date >= r.Start && date < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}

// Month parses a YYYY-MM label.
func Month(label string) (Range, error) {
	label = strings.TrimSpace(label)
	parts := strings.Split(label, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Range{}, fmt.Errorf("%w: month must be YYYY-MM, got %q", ErrInvalidPeriod, label)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Range{}, fmt.Errorf("%w: bad year in %q", ErrInvalidPeriod, label)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Range{}, fmt.Errorf("%w: bad month in %q", ErrInvalidPeriod, label)
	}
	return MonthOf(year, month)
}

func MonthOf(year int, month int) (Range, error) {
	if err := checkYear(year); err != nil {
		return Range{}, err
	}
	if month < 1 || month > 12 {
		return Range{}, fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, month)
	}
	nextYear, nextMonth := year, month+1
	if month == 12 {
		nextYear, nextMonth = year+1, 1
	}
	return Range{
		Start: fmt.Sprintf("%04d-%02d-01", year, month),
		End:   fmt.Sprintf("%04d-%02d-01", nextYear, nextMonth),
	}, nil
}

func Year(year int) (Range, error) {
	if err := checkYear(year); err != nil {
		return Range{}, err
	}
	return Range{
		Start: fmt.Sprintf("%04d-01-01", year),
		End:   fmt.Sprintf("%04d-01-01", year+1),
	}, nil
}

// MonthLabel formats year/month as YYYY-MM.
func MonthLabel(year int, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// DefaultMonth is the calendar month before now.
func DefaultMonth(now time.Time) string {
	if now.Month() == time.January {
		return MonthLabel(now.Year()-1, 12)
	}
	return MonthLabel(now.Year(), int(now.Month())-1)
}

// ValidDate reports whether s is a real calendar day in YYYY-MM-DD form.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func Today(now time.Time) string {
	return now.Format(DateLayout)
}

func checkYear(year int) error {
	// keep the range within four digits so string comparison stays valid
	if year < 1 || year > 9998 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, year)
	}
	return nil
}
