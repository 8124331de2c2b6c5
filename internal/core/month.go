package core

import (
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month, stored as the first day of the month in UTC.
type Month struct {
	t time.Time
}

const monthLayout = "2006-01"

var monthLayouts = []string{
	"2006-01",
	"2006-1",
	"2006-01-02",
	"2006.01",
	"2006.01.02",
	"2006.1",
	"2006/01",
	"2006/01/02",
	"2006/1",
	"200601",
	"20060102",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006년 01월",
	"2006년 1월",
}

// NewMonth returns the month containing year and month.
func NewMonth(year int, month time.Month) Month {
	return Month{t: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// ParseMonth buckets a date-like string to its calendar month.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Month{}, fmt.Errorf("%w: empty", ErrInvalidMonth)
	}
	s = strings.TrimSuffix(s, ".")
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewMonth(t.Year(), t.Month()), nil
		}
	}
	return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
}

// MustParseMonth is ParseMonth for constants in tests and defaults.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Month) Time() time.Time       { return m.t }
func (m Month) IsZero() bool          { return m.t.IsZero() }
func (m Month) Before(o Month) bool   { return m.t.Before(o.t) }
func (m Month) Equal(o Month) bool    { return m.t.Equal(o.t) }
func (m Month) String() string        { return m.t.Format(monthLayout) }
func (m Month) AddMonths(n int) Month { return Month{t: m.t.AddDate(0, n, 0)} }

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	v, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
