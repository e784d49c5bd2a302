package request

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Export is the body posted by the client application.
type Export struct {
	Metrics []Metric
}

type exportBody struct {
	Data struct {
		Metrics []Metric `json:"metrics"`
	} `json:"data"`
}

// Parse decodes a client export. A missing data or metrics key yields an
// export with no metrics rather than an error.
func Parse(b []byte) (*Export, error) {
	var body exportBody
	if err := json.Unmarshal(b, &body); err != nil {
		return nil, err
	}
	return &Export{Metrics: body.Data.Metrics}, nil
}

// PopulatedMetrics returns the metrics that carry at least one sample.
func (export *Export) PopulatedMetrics() []Metric {
	populated := make([]Metric, 0, len(export.Metrics))
	for _, metric := range export.Metrics {
		if len(metric.Samples) > 0 {
			populated = append(populated, metric)
		}
	}
	return populated
}

func (export *Export) TotalSamples() int {
	total := 0
	for _, metric := range export.Metrics {
		total += len(metric.Samples)
	}
	return total
}

type Metric struct {
	Name    string   `json:"name"`
	Unit    string   `json:"units"`
	Samples []Sample `json:"data"`
}

// Sample is one raw sample record. Raw holds the original JSON object and is
// what gets persisted; the typed fields are the ones the stores index on.
type Sample struct {
	Raw json.RawMessage `json:"-"`

	Date   *Timestamp `json:"date"`
	Source string     `json:"source"`

	Qty float64 `json:"qty"`
	Min float64 `json:"Min"`
	Avg float64 `json:"Avg"`
	Max float64 `json:"Max"`

	Asleep     float64    `json:"asleep"`
	InBed      float64    `json:"inBed"`
	Core       float64    `json:"core"`
	Deep       float64    `json:"deep"`
	REM        float64    `json:"rem"`
	Awake      float64    `json:"awake"`
	TotalSleep float64    `json:"totalSleep"`
	SleepStart *Timestamp `json:"sleepStart"`
	SleepEnd   *Timestamp `json:"sleepEnd"`
	InBedStart *Timestamp `json:"inBedStart"`
	InBedEnd   *Timestamp `json:"inBedEnd"`
}

// UnmarshalJSON never rejects a sample. Raw always holds the record as
// received; typed fields are filled where the value has the expected shape
// and left zero otherwise. Records that are not objects keep only Raw.
func (s *Sample) UnmarshalJSON(data []byte) error {
	*s = Sample{Raw: append(json.RawMessage(nil), data...)}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return nil
	}
	fields := make(map[string]json.RawMessage, len(object))
	for key, value := range object {
		lower := strings.ToLower(key)
		if _, exists := fields[lower]; exists && key != lower {
			continue
		}
		fields[lower] = value
	}

	s.Date = timestampField(fields["date"])
	s.Source = stringField(fields["source"])

	s.Qty = numberField(fields["qty"])
	s.Min = numberField(fields["min"])
	s.Avg = numberField(fields["avg"])
	s.Max = numberField(fields["max"])

	s.Asleep = numberField(fields["asleep"])
	s.InBed = numberField(fields["inbed"])
	s.Core = numberField(fields["core"])
	s.Deep = numberField(fields["deep"])
	s.REM = numberField(fields["rem"])
	s.Awake = numberField(fields["awake"])
	s.TotalSleep = numberField(fields["totalsleep"])
	s.SleepStart = timestampField(fields["sleepstart"])
	s.SleepEnd = timestampField(fields["sleepend"])
	s.InBedStart = timestampField(fields["inbedstart"])
	s.InBedEnd = timestampField(fields["inbedend"])
	return nil
}

func numberField(raw json.RawMessage) float64 {
	var v float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return 0
	}
	return v
}

func stringField(raw json.RawMessage) string {
	var v string
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return v
}

func timestampField(raw json.RawMessage) *Timestamp {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var ts Timestamp
	if json.Unmarshal(raw, &ts) != nil {
		return nil
	}
	return &ts
}

// MarshalJSON writes the sample back exactly as it was received.
func (s Sample) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	type sampleAlias Sample
	return json.Marshal(sampleAlias(s))
}

// GetTimestamp returns the sample date, falling back to the start of sleep
// for sleep records that only carry sleepStart.
func (s *Sample) GetTimestamp() *Timestamp {
	if s.Date != nil {
		return s.Date
	}
	if s.SleepStart != nil {
		return s.SleepStart
	}
	return s.InBedStart
}
