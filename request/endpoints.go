package request

// Endpoint describes one health API path polled by the scheduled ingest.
type Endpoint struct {
	Path   string
	Metric string
	Type   MetricType
	Units  string
}

var endpoints = []Endpoint{
	{Path: "/heart-rate", Metric: "heart_rate", Type: Realtime, Units: "count/min"},
	{Path: "/steps", Metric: "step_count", Type: Realtime, Units: "count"},
	{Path: "/active-energy", Metric: "active_energy", Type: Realtime, Units: "kcal"},
	{Path: "/respiratory-rate", Metric: "respiratory_rate", Type: Realtime, Units: "count/min"},
	{Path: "/exercise-time", Metric: "apple_exercise_time", Type: Aggregated, Units: "min"},
	{Path: "/time-in-daylight", Metric: "time_in_daylight", Type: Aggregated, Units: "min"},
	{Path: "/hrv", Metric: "heart_rate_variability", Type: Aggregated, Units: "ms"},
	{Path: "/sleep-analysis", Metric: "sleep_analysis", Type: Sleep, Units: "hr"},
}

// Endpoints returns a copy of the fixed endpoint table in polling order.
func Endpoints() []Endpoint {
	out := make([]Endpoint, len(endpoints))
	copy(out, endpoints)
	return out
}
