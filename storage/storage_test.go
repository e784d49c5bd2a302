package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/joeecarter/respondr-server/request"
)

func sample(t *testing.T, raw string) *request.Sample {
	t.Helper()
	var s request.Sample
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("invalid sample: %v", err)
	}
	return &s
}

func TestSampleTime(t *testing.T) {
	now := time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)

	if got := SampleTime(sample(t, `{"qty":1}`), now); !got.Equal(now) {
		t.Errorf("expected now for a sample without a date, got %s", got)
	}
	if got := SampleTime(sample(t, `{"date":"2024-03-01 08:00:00 +0000"}`), now); !got.Equal(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected sample time %s", got)
	}
}

func TestSleepDay(t *testing.T) {
	now := time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)

	var TestCases = []struct {
		description string
		raw         string
		expected    string
	}{
		{"date", `{"date":"2024-03-01"}`, "2024-03-01"},
		{"sleep start only", `{"sleepStart":"2024-02-29 23:30:00 +0000"}`, "2024-02-29"},
		{"local offset kept", `{"date":"2024-03-01 00:30:00 +0200"}`, "2024-03-01"},
		{"no timestamp", `{"asleep":7}`, "2024-05-05"},
	}

	for _, tc := range TestCases {
		if got := SleepDay(sample(t, tc.raw), now); got != tc.expected {
			t.Errorf("%s: expected %s, got %s", tc.description, tc.expected, got)
		}
	}
}

func TestSleepDate(t *testing.T) {
	now := time.Date(2024, 5, 5, 23, 5, 5, 0, time.FixedZone("", -5*3600))

	got := SleepDate(sample(t, `{"date":"2024-03-01 00:30:00 +0200"}`), now)
	if !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected 2024-03-01 UTC midnight, got %s", got)
	}

	got = SleepDate(sample(t, `{"asleep":7}`), now)
	if !got.Equal(time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected the local day of now, got %s", got)
	}
}

func TestLatestPerDay(t *testing.T) {
	now := time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)
	samples := []request.Sample{
		*sample(t, `{"date":"2024-03-01","asleep":6}`),
		*sample(t, `{"date":"2024-03-02","asleep":7}`),
		*sample(t, `{"sleepStart":"2024-03-01 23:10:00 +0000","asleep":6.5}`),
	}

	latest := LatestPerDay(samples, now)
	if len(latest) != 2 {
		t.Fatalf("expected 2 days, got %d", len(latest))
	}
	if latest[0].Asleep != 6.5 || latest[1].Asleep != 7 {
		t.Errorf("expected the last sample per day in first-seen order, got %v and %v", latest[0].Asleep, latest[1].Asleep)
	}
	if len(LatestPerDay(nil, now)) != 0 {
		t.Error("expected no samples")
	}
}

func TestRaw(t *testing.T) {
	raw := `{"qty":3,"unknown_field":"kept"}`
	if got := Raw(sample(t, raw)); got != raw {
		t.Errorf("expected %s, got %s", raw, got)
	}
}
