package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joeecarter/respondr-server/request"
)

func newTestScheduled(store *fakeStore, fetcher *fakeFetcher, config ScheduleConfig, now time.Time) *ScheduledIngester {
	s := NewScheduledIngester(NewIngester(store, nil), fetcher, config, nil)
	s.now = func() time.Time { return now }
	return s
}

func TestScheduledIngestAllEmpty(t *testing.T) {
	store := newFakeStore()
	fetcher := newFakeFetcher()

	result := newTestScheduled(store, fetcher, ScheduleConfig{}, time.Now()).Ingest(context.Background(), testUser)

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Inserted != 0 {
		t.Errorf("expected 0 inserted, got %d", result.Inserted)
	}
	if result.Details == nil || len(result.Details) != 0 {
		t.Errorf("expected empty non-nil details, got %#v", result.Details)
	}
	if len(fetcher.calls) != 8 {
		t.Errorf("expected 8 fetches, got %d", len(fetcher.calls))
	}
	if len(store.calls) != 0 {
		t.Errorf("expected no store calls, got %d", len(store.calls))
	}
}

func TestScheduledIngestRoutesByDescriptor(t *testing.T) {
	store := newFakeStore()
	fetcher := newFakeFetcher()
	fetcher.samples["/heart-rate"] = samples(4)
	fetcher.samples["/hrv"] = samples(2)
	fetcher.samples["/sleep-analysis"] = samples(1)

	result := newTestScheduled(store, fetcher, ScheduleConfig{}, time.Now()).Ingest(context.Background(), testUser)

	if !result.Success || result.Inserted != 7 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Message != "Successfully ingested 7 records from API" {
		t.Errorf("unexpected message %q", result.Message)
	}

	expectedDetails := []Detail{
		{Metric: "heart_rate", Inserted: 4},
		{Metric: "heart_rate_variability", Inserted: 2},
		{Metric: "sleep_analysis", Inserted: 1},
	}
	if len(result.Details) != len(expectedDetails) {
		t.Fatalf("expected %d details, got %+v", len(expectedDetails), result.Details)
	}
	for i, detail := range expectedDetails {
		if result.Details[i] != detail {
			t.Errorf("detail %d: expected %+v, got %+v", i, detail, result.Details[i])
		}
	}

	expectedCalls := []storeCall{
		{Kind: request.Realtime, UserID: testUser, Metric: "heart_rate", Samples: 4},
		{Kind: request.Aggregated, UserID: testUser, Metric: "heart_rate_variability", Units: "ms", Samples: 2},
		{Kind: request.Sleep, UserID: testUser, Metric: "sleep_analysis", Samples: 1},
	}
	for i, call := range expectedCalls {
		if store.calls[i] != call {
			t.Errorf("call %d: expected %+v, got %+v", i, call, store.calls[i])
		}
	}
}

func TestScheduledIngestPassesUnits(t *testing.T) {
	fetcher := newFakeFetcher()
	newTestScheduled(newFakeStore(), fetcher, ScheduleConfig{}, time.Now()).Ingest(context.Background(), testUser)

	for i, endpoint := range request.Endpoints() {
		if fetcher.calls[i].Endpoint != endpoint.Path || fetcher.calls[i].Units != endpoint.Units {
			t.Errorf("fetch %d: expected %s [%s], got %+v", i, endpoint.Path, endpoint.Units, fetcher.calls[i])
		}
	}
}

func TestScheduledIngestDaysBack(t *testing.T) {
	now := time.Date(2024, 3, 31, 1, 30, 0, 0, time.UTC)

	var TestCases = []struct {
		description string
		config      ScheduleConfig
		expected    time.Duration
	}{
		{"default", ScheduleConfig{}, 7 * 24 * time.Hour},
		{"three days", ScheduleConfig{DaysBack: 3}, 3 * 24 * time.Hour},
		{"negative falls back", ScheduleConfig{DaysBack: -2}, 7 * 24 * time.Hour},
	}

	for _, tc := range TestCases {
		fetcher := newFakeFetcher()
		newTestScheduled(newFakeStore(), fetcher, tc.config, now).Ingest(context.Background(), testUser)

		for _, call := range fetcher.calls {
			if !call.TimeRange.End.Equal(now) {
				t.Errorf("%s: expected end %s, got %s", tc.description, now, call.TimeRange.End)
			}
			if got := call.TimeRange.End.Sub(call.TimeRange.Start); got != tc.expected {
				t.Errorf("%s: expected window %s, got %s", tc.description, tc.expected, got)
			}
		}
	}
}

func TestScheduledIngestStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failOn["step_count"] = errors.New("table is read only")
	fetcher := newFakeFetcher()
	fetcher.samples["/heart-rate"] = samples(2)
	fetcher.samples["/steps"] = samples(2)
	fetcher.samples["/hrv"] = samples(2)

	result := newTestScheduled(store, fetcher, ScheduleConfig{}, time.Now()).Ingest(context.Background(), testUser)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Message != "table is read only" {
		t.Errorf("expected raw error text, got %q", result.Message)
	}
	if result.ErrorKind != KindStore {
		t.Errorf("expected kind %q, got %q", KindStore, result.ErrorKind)
	}
	if result.Details != nil || result.Inserted != 0 {
		t.Errorf("partial results must be discarded, got %+v", result)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("expected the loop to stop after the failing endpoint, got %d fetches", len(fetcher.calls))
	}
}

func TestScheduledIngestFetchFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.failOn["/active-energy"] = errors.New("health api /active-energy returned 502")

	result := newTestScheduled(newFakeStore(), fetcher, ScheduleConfig{}, time.Now()).Ingest(context.Background(), testUser)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.ErrorKind != KindFetch {
		t.Errorf("expected kind %q, got %q", KindFetch, result.ErrorKind)
	}
	if result.Message != "health api /active-energy returned 502" {
		t.Errorf("unexpected message %q", result.Message)
	}
}
