package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind tags why an ingestion did not succeed.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindNoMetrics      ErrorKind = "no_metrics"
	KindInvalidPayload ErrorKind = "invalid_payload"
	KindStore          ErrorKind = "store"
	KindFetch          ErrorKind = "fetch"
)

const noMetricsMessage = "No metrics found in request"

// Result is the envelope returned by both ingestion endpoints. Details is
// written only when non-nil, so an empty scheduled run still reports
// "details": [] while the body ingest omits the key.
type Result struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Inserted  int       `json:"inserted"`
	Details   []Detail  `json:"-"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

type resultAlias Result

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Details == nil {
		return json.Marshal(resultAlias(r))
	}
	return json.Marshal(struct {
		resultAlias
		Details []Detail `json:"details"`
	}{resultAlias(r), r.Details})
}

func (r *Result) UnmarshalJSON(b []byte) error {
	aux := struct {
		*resultAlias
		Details []Detail `json:"details"`
	}{resultAlias: (*resultAlias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.Details = aux.Details
	return nil
}

type Detail struct {
	Metric   string `json:"metric"`
	Inserted int    `json:"inserted"`
}

// IngestError carries the failure category alongside the underlying error.
// Error returns the underlying text unchanged so it can be surfaced as is.
type IngestError struct {
	Kind   ErrorKind
	Metric string
	Err    error
}

func (err *IngestError) Error() string {
	return err.Err.Error()
}

func (err *IngestError) Unwrap() error {
	return err.Err
}

func failure(err error) Result {
	kind := KindStore
	var ingestErr *IngestError
	if errors.As(err, &ingestErr) {
		kind = ingestErr.Kind
	}
	return Result{Success: false, Message: err.Error(), ErrorKind: kind}
}

func noMetrics() Result {
	return Result{Success: false, Message: noMetricsMessage, ErrorKind: KindNoMetrics}
}

func success(format string, inserted int, details []Detail) Result {
	return Result{
		Success:  true,
		Message:  fmt.Sprintf(format, inserted),
		Inserted: inserted,
		Details:  details,
	}
}
