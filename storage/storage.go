// Package storage holds the row types shared by the metric store backends.
package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/joeecarter/respondr-server/request"
)

// ErrProfileNotFound is returned by GetProfile when the user has no profile row.
var ErrProfileNotFound = errors.New("profile not found")

// Profile is a row of the profiles table.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SampleTime returns the sample timestamp, or now when the sample has none.
func SampleTime(sample *request.Sample, now time.Time) time.Time {
	if ts := sample.GetTimestamp(); ts != nil {
		return ts.ToTime()
	}
	return now
}

// SleepDate is the upsert key of a sleep record: midnight UTC of the day the
// sample falls on in its own offset.
func SleepDate(sample *request.Sample, now time.Time) time.Time {
	t := SampleTime(sample, now)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SleepDay is SleepDate formatted with request.DayLayout.
func SleepDay(sample *request.Sample, now time.Time) string {
	return SleepDate(sample, now).Format(request.DayLayout)
}

// LatestPerDay collapses sleep samples sharing a SleepDate, keeping the last
// one for each day in order of the day's first appearance. The result length
// is the number of rows an upsert of samples touches.
func LatestPerDay(samples []request.Sample, now time.Time) []request.Sample {
	index := make(map[time.Time]int, len(samples))
	latest := make([]request.Sample, 0, len(samples))
	for _, sample := range samples {
		day := SleepDate(&sample, now)
		if i, ok := index[day]; ok {
			latest[i] = sample
			continue
		}
		index[day] = len(latest)
		latest = append(latest, sample)
	}
	return latest
}

// Raw returns the JSON the sample arrived as.
func Raw(sample *request.Sample) string {
	b, err := sample.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}
