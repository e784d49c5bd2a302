package request

// MetricType selects which store write a metric is routed to.
type MetricType string

const (
	Realtime   MetricType = "realtime"
	Aggregated MetricType = "aggregated"
	Sleep      MetricType = "sleep"
)

var realtimeMetrics = map[string]struct{}{
	"heart_rate":       {},
	"step_count":       {},
	"active_energy":    {},
	"respiratory_rate": {},
}

// LookupMetricType classifies a metric posted by the client. Sleep is only
// ever assigned through an Endpoint; anything that is not a known realtime
// metric is treated as aggregated.
func LookupMetricType(name string) MetricType {
	if _, ok := realtimeMetrics[name]; ok {
		return Realtime
	}
	return Aggregated
}

// IsKnownMetric reports whether name appears in the realtime set or the
// endpoint table. Unknown names still classify as aggregated.
func IsKnownMetric(name string) bool {
	if _, ok := realtimeMetrics[name]; ok {
		return true
	}
	for _, endpoint := range endpoints {
		if endpoint.Metric == name {
			return true
		}
	}
	return false
}
