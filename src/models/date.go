package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Location is the zone calendar dates are interpreted in. It is set once at startup.
var Location = time.Local

// Date is a calendar date with an optional time of day.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, Location)}
}

func DateOf(t time.Time) Date {
	return Date{t.In(Location)}
}

// ParseDate accepts a bare calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	if t, err := time.ParseInLocation(DateLayout, s, Location); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return Date{t.In(Location)}, nil
}

func (d Date) hasClock() bool {
	h, m, s := d.Clock()
	return h != 0 || m != 0 || s != 0 || d.Nanosecond() != 0
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	if d.hasClock() {
		return d.Format(time.RFC3339Nano)
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
