package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format the backend uses for transaction dates.
const DateLayout = "2006-01-02"

// Date is a calendar date that decodes from either "2006-01-02" or a full
// RFC 3339 timestamp and always encodes as "2006-01-02".
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t.UTC()
	return nil
}
