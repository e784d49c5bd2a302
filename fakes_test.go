package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/joeecarter/respondr-server/auth"
	"github.com/joeecarter/respondr-server/request"
)

type storeCall struct {
	Kind    request.MetricType
	UserID  uuid.UUID
	Metric  string
	Units   string
	Samples int
}

// fakeStore records every write and reports len(samples) as inserted unless
// inserted is set for the metric.
type fakeStore struct {
	mu       sync.Mutex
	calls    []storeCall
	batches  [][]request.Sample
	inserted map[string]int
	failOn   map[string]error
	profiles map[uuid.UUID]*Profile
	profErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		inserted: map[string]int{},
		failOn:   map[string]error{},
		profiles: map[uuid.UUID]*Profile{},
	}
}

func (s *fakeStore) Name() string { return "fake" }

func (s *fakeStore) record(kind request.MetricType, userID uuid.UUID, metric, units string, samples []request.Sample) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, storeCall{Kind: kind, UserID: userID, Metric: metric, Units: units, Samples: len(samples)})
	s.batches = append(s.batches, samples)
	if err, ok := s.failOn[metric]; ok {
		return 0, err
	}
	if n, ok := s.inserted[metric]; ok {
		return n, nil
	}
	return len(samples), nil
}

func (s *fakeStore) InsertRealtime(ctx context.Context, userID uuid.UUID, metricName string, samples []request.Sample) (int, error) {
	return s.record(request.Realtime, userID, metricName, "", samples)
}

func (s *fakeStore) InsertAggregated(ctx context.Context, userID uuid.UUID, metricName string, samples []request.Sample, units string) (int, error) {
	return s.record(request.Aggregated, userID, metricName, units, samples)
}

func (s *fakeStore) UpsertSleep(ctx context.Context, userID uuid.UUID, samples []request.Sample) (int, error) {
	return s.record(request.Sleep, userID, "sleep_analysis", "", samples)
}

func (s *fakeStore) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	if s.profErr != nil {
		return nil, s.profErr
	}
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *fakeStore) Close() error { return nil }

type fetchCall struct {
	Endpoint  string
	TimeRange request.TimeRange
	Units     string
}

type fakeFetcher struct {
	calls   []fetchCall
	samples map[string][]request.Sample
	failOn  map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{samples: map[string][]request.Sample{}, failOn: map[string]error{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, endpoint string, timeRange request.TimeRange, units string) ([]request.Sample, error) {
	f.calls = append(f.calls, fetchCall{Endpoint: endpoint, TimeRange: timeRange, Units: units})
	if err, ok := f.failOn[endpoint]; ok {
		return nil, err
	}
	return f.samples[endpoint], nil
}

// fakeIdentity accepts the single token it was built with.
type fakeIdentity struct {
	token string
	user  *auth.User
}

func (id fakeIdentity) Authenticate(r *http.Request) (*auth.User, error) {
	if r.Header.Get("Authorization") != "Bearer "+id.token {
		return nil, auth.ErrMissingToken
	}
	return id.user, nil
}

func samples(n int) []request.Sample {
	out := make([]request.Sample, n)
	for i := range out {
		out[i] = request.Sample{Qty: float64(i)}
	}
	return out
}
