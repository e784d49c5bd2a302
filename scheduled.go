package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/joeecarter/respondr-server/request"
	"go.uber.org/zap"
)

const DefaultDaysBack = 7

// MetricFetcher retrieves one metric's samples from the health API. An empty
// result means the API had no data for the range.
type MetricFetcher interface {
	Fetch(ctx context.Context, endpoint string, timeRange request.TimeRange, units string) ([]request.Sample, error)
}

type ScheduleConfig struct {
	// DaysBack is the lookback window in days. Zero means DefaultDaysBack.
	DaysBack int
}

// ScheduledIngester polls every known health API endpoint and stores what
// it returns.
type ScheduledIngester struct {
	ingester *Ingester
	fetcher  MetricFetcher
	daysBack int
	now      func() time.Time
	logger   *zap.Logger
}

func NewScheduledIngester(ingester *Ingester, fetcher MetricFetcher, config ScheduleConfig, logger *zap.Logger) *ScheduledIngester {
	if logger == nil {
		logger = zap.NewNop()
	}
	daysBack := config.DaysBack
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	return &ScheduledIngester{
		ingester: ingester,
		fetcher:  fetcher,
		daysBack: daysBack,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *ScheduledIngester) Ingest(ctx context.Context, userID uuid.UUID) Result {
	result := s.ingest(ctx, userID)
	observeOutcome("scheduled", result)
	return result
}

func (s *ScheduledIngester) ingest(ctx context.Context, userID uuid.UUID) Result {
	timeRange := request.LastDays(s.now(), s.daysBack)
	s.logger.Info("starting scheduled ingest",
		zap.Stringer("user_id", userID),
		zap.Time("start", timeRange.Start),
		zap.Time("end", timeRange.End))

	total := 0
	details := make([]Detail, 0)
	for _, endpoint := range request.Endpoints() {
		started := time.Now()
		samples, err := s.fetcher.Fetch(ctx, endpoint.Path, timeRange, endpoint.Units)
		fetchDurationSeconds.WithLabelValues(endpoint.Path).Observe(time.Since(started).Seconds())
		if err != nil {
			s.logger.Error("fetch failed", zap.String("endpoint", endpoint.Path), zap.Error(err))
			return failure(&IngestError{Kind: KindFetch, Metric: endpoint.Metric, Err: err})
		}
		if len(samples) == 0 {
			continue
		}

		inserted, err := s.ingester.write(ctx, userID, endpoint.Metric, endpoint.Type, samples, endpoint.Units)
		if err != nil {
			return failure(err)
		}
		total += inserted
		details = append(details, Detail{Metric: endpoint.Metric, Inserted: inserted})
	}

	return success("Successfully ingested %d records from API", total, details)
}
