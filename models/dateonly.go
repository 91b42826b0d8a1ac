package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateOnly wraps time.Time so calendar dates (planting date, harvest date,
// recommendation date) travel as "YYYY-MM-DD" in JSON and as DATE in SQL,
// with no time-of-day or timezone component to drift.
type DateOnly time.Time

// NewDateOnly truncates t to midnight UTC.
func NewDateOnly(t time.Time) DateOnly {
	return DateOnly(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

// Time returns the underlying midnight-UTC time.
func (d DateOnly) Time() time.Time {
	return time.Time(d)
}

func (d DateOnly) String() string {
	return time.Time(d).Format(dateLayout)
}

// UnmarshalJSON accepts "2006-01-02" and, for tolerance with older
// clients, full RFC3339 timestamps (the time part is dropped).
func (d *DateOnly) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = DateOnly(t)
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = NewDateOnly(t)
		return nil
	}
	return fmt.Errorf("DateOnly.UnmarshalJSON: cannot parse %q as a date", s)
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Value implements driver.Valuer so the date is stored as a plain
// "YYYY-MM-DD" DATE parameter.
func (d DateOnly) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for DATE columns coming back as time.Time,
// []byte or string depending on the driver.
func (d *DateOnly) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = DateOnly(time.Time{})
		return nil
	case time.Time:
		*d = NewDateOnly(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("DateOnly.Scan: unsupported type %T", src)
	}
}

func (d *DateOnly) scanString(s string) error {
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = DateOnly(t)
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*d = NewDateOnly(t)
		return nil
	}
	return fmt.Errorf("DateOnly.Scan: cannot parse %q", s)
}
