package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/joeecarter/respondr-server/request"
	"github.com/joeecarter/respondr-server/storage"
)

var ErrProfileNotFound = storage.ErrProfileNotFound

type Profile = storage.Profile

// MetricStore encapsulates a storage backend for the samples ingested from the
// client application and the health API. Each write runs in its own
// transaction and returns the number of records written.
type MetricStore interface {
	Name() string
	InsertRealtime(ctx context.Context, userID uuid.UUID, metricName string, samples []request.Sample) (int, error)
	InsertAggregated(ctx context.Context, userID uuid.UUID, metricName string, samples []request.Sample, units string) (int, error)
	// UpsertSleep replaces any existing sleep record for the same user and day.
	UpsertSleep(ctx context.Context, userID uuid.UUID, samples []request.Sample) (int, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Close() error
}
