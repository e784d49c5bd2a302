package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the layout used by the Auto Export app.
const DateLayout = "2006-01-02 15:04:05 -0700"

// DayLayout identifies the calendar day a sleep record belongs to.
const DayLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	DayLayout,
}

// Timestamp accepts the Auto Export layout, RFC 3339 strings (as returned by
// the health API) and numeric seconds since the Unix epoch.
type Timestamp struct {
	t time.Time
}

func (st *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	if len(b) > 0 && b[0] != '"' {
		var v float64
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		sec := int64(v)
		nsec := int64((v - float64(sec)) * float64(time.Second))
		st.t = time.Unix(sec, nsec).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	t, err := ParseTime(s)
	if err != nil {
		return err
	}
	st.t = t
	return nil
}

func (st *Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(st.t.Format(DateLayout))
}

func (st *Timestamp) ToTime() time.Time {
	return st.t
}

// Day returns the calendar day of the timestamp in its own offset.
func (st *Timestamp) Day() string {
	return st.t.Format(DayLayout)
}

func (st *Timestamp) String() string {
	return st.t.Format(DateLayout)
}

// ParseTime tries each supported layout in turn.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// TimeRange bounds a health API query.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// LastDays returns the range ending at end and starting days*24h before it.
func LastDays(end time.Time, days int) TimeRange {
	return TimeRange{Start: end.Add(-time.Duration(days) * 24 * time.Hour), End: end}
}
