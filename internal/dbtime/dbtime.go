// Package dbtime centralizes the string date formats used at the storage
// boundary. SQLite columns hold ISO-8601-style strings; everything that
// parses or formats them goes through here.
package dbtime

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the canonical date column format (rides.date).
	DateLayout = "2006-01-02"
	// DateTimeLayout is the canonical datetime column format
	// (created_at, last_used_at, deleted_at, ...).
	DateTimeLayout = "2006-01-02 15:04:05"
)

// FormatDate renders t as a date column value.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a date column value.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// FormatDateTime renders t as a datetime column value. Sub-second precision
// is dropped; the schema never stores it.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// ParseDateTime parses a datetime column value.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing datetime %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatNullableDateTime renders an optional datetime column value.
func FormatNullableDateTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatDateTime(*t)
	return &s
}

// ParseNullableDateTime parses an optional datetime column value.
func ParseNullableDateTime(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := ParseDateTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Date is a day-precision timestamp that marshals to and from the canonical
// date format in JSON.
type Date struct {
	time.Time
}

// NewDate truncates t to day precision.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// String returns the canonical date form.
func (d Date) String() string {
	return d.Format(DateLayout)
}
