package request

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampFormats(t *testing.T) {

	var TestCases = []struct {
		description string
		input       string
		expected    time.Time
	}{
		{"auto export layout", `"2024-03-01 08:00:00 -0700"`, time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)},
		{"rfc3339", `"2024-03-01T15:00:00Z"`, time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)},
		{"rfc3339 with fraction", `"2024-03-01T15:00:00.250+00:00"`, time.Date(2024, 3, 1, 15, 0, 0, 250000000, time.UTC)},
		{"naive iso", `"2024-03-01T15:00:00.5"`, time.Date(2024, 3, 1, 15, 0, 0, 500000000, time.UTC)},
		{"day only", `"2024-03-01"`, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"unix seconds", `1709305200`, time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)},
	}

	for _, tc := range TestCases {
		var ts Timestamp
		if err := json.Unmarshal([]byte(tc.input), &ts); err != nil {
			t.Errorf("%s: %v", tc.description, err)
			continue
		}
		if !ts.ToTime().Equal(tc.expected) {
			t.Errorf("%s: expected %s, got %s", tc.description, tc.expected, ts.ToTime())
		}
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"not a date"`), &ts); err == nil {
		t.Error("expected an error")
	}
}

func TestLastDays(t *testing.T) {
	end := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	timeRange := LastDays(end, 3)

	if !timeRange.End.Equal(end) {
		t.Errorf("end changed: %s", timeRange.End)
	}
	if got := timeRange.End.Sub(timeRange.Start); got != 72*time.Hour {
		t.Errorf("expected 72h window, got %s", got)
	}
}
