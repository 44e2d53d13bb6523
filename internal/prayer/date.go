package prayer

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is YYYY-MM-DD.
const DateLayout = time.DateOnly

// Date is a calendar day. The zero Date means "no date".
type Date struct {
	time.Time
}

// NewDate returns the calendar day of t in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("unable to parse date '%s': expected YYYY-MM-DD format", value)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
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
	var value *string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value == nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
