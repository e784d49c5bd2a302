package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/joeecarter/respondr-server/request"
	"go.uber.org/zap"
)

// Ingester routes classified samples to the matching MetricStore write.
type Ingester struct {
	store  MetricStore
	logger *zap.Logger
}

func NewIngester(store MetricStore, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{store: store, logger: logger}
}

// IngestExport processes a client export body. Metrics without samples are
// skipped without touching the store. The first error aborts the batch and
// rows already written stay committed.
func (in *Ingester) IngestExport(ctx context.Context, userID uuid.UUID, body []byte) Result {
	result := in.ingestExport(ctx, userID, body)
	observeOutcome("export", result)
	return result
}

func (in *Ingester) ingestExport(ctx context.Context, userID uuid.UUID, body []byte) Result {
	export, err := request.Parse(body)
	if err != nil {
		in.logger.Warn("failed to parse export", zap.Error(err))
		return failure(&IngestError{Kind: KindInvalidPayload, Err: err})
	}

	if len(export.Metrics) == 0 {
		return noMetrics()
	}

	in.logger.Info("received export",
		zap.Stringer("user_id", userID),
		zap.Int("metrics", len(export.Metrics)),
		zap.Int("populated", len(export.PopulatedMetrics())),
		zap.Int("samples", export.TotalSamples()))

	total := 0
	for _, metric := range export.PopulatedMetrics() {
		metricType := request.LookupMetricType(metric.Name)
		if !request.IsKnownMetric(metric.Name) {
			unclassifiedMetrics.Inc()
			in.logger.Debug("unclassified metric stored as aggregated", zap.String("metric", metric.Name))
		}

		inserted, err := in.write(ctx, userID, metric.Name, metricType, metric.Samples, metric.Unit)
		if err != nil {
			return failure(err)
		}
		total += inserted
	}

	return success("Successfully ingested %d records", total, nil)
}

func (in *Ingester) write(ctx context.Context, userID uuid.UUID, name string, metricType request.MetricType, samples []request.Sample, units string) (int, error) {
	var (
		inserted int
		err      error
	)
	switch metricType {
	case request.Realtime:
		inserted, err = in.store.InsertRealtime(ctx, userID, name, samples)
	case request.Sleep:
		inserted, err = in.store.UpsertSleep(ctx, userID, samples)
	default:
		inserted, err = in.store.InsertAggregated(ctx, userID, name, samples, units)
	}
	if err != nil {
		in.logger.Error("store write failed",
			zap.String("store", in.store.Name()),
			zap.String("metric", name),
			zap.String("type", string(metricType)),
			zap.Error(err))
		return 0, &IngestError{Kind: KindStore, Metric: name, Err: err}
	}

	recordsInserted.WithLabelValues(metricLabel(name), string(metricType)).Add(float64(inserted))
	in.logger.Debug("stored metric",
		zap.String("metric", name),
		zap.String("type", string(metricType)),
		zap.Int("inserted", inserted))
	return inserted, nil
}
