package service

import (
	"time"

	"github.com/dmarsh/strava-calendar/internal/strava"
)

// AggregateDaily reduces a batch of activities to one normalized level per
// calendar date. Dates are taken from each activity's start time in UTC;
// moving times on the same date are summed in hours, then every date is
// divided by the largest daily total in the batch (fraction-of-batch-max
// policy), so the busiest date in any non-empty batch maps to 1.0. An empty
// batch yields an empty map.
func AggregateDaily(activities []strava.Activity) map[time.Time]float64 {
	totals := make(map[time.Time]float64)
	for _, activity := range activities {
		day := dateOf(activity.StartDate)
		totals[day] += float64(activity.MovingTime) / 3600.0
	}

	var max float64
	for _, hours := range totals {
		if hours > max {
			max = hours
		}
	}

	levels := make(map[time.Time]float64, len(totals))
	for day, hours := range totals {
		if max == 0 {
			levels[day] = 0
			continue
		}
		levels[day] = hours / max
	}
	return levels
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
