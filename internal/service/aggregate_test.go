package service_test

import (
	"testing"
	"time"

	"github.com/dmarsh/strava-calendar/internal/service"
	"github.com/dmarsh/strava-calendar/internal/strava"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return t
}

func activity(start string, movingSeconds int64) strava.Activity {
	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		panic(err)
	}
	return strava.Activity{
		StartDate:  startTime,
		MovingTime: movingSeconds,
	}
}

func TestAggregateDaily(t *testing.T) {
	tests := []struct {
		name       string
		activities []strava.Activity
		want       map[time.Time]float64
	}{
		{
			name:       "empty batch yields empty map",
			activities: nil,
			want:       map[time.Time]float64{},
		},
		{
			name: "busiest date normalizes to 1.0",
			activities: []strava.Activity{
				activity("2024-01-01T08:00:00Z", 2*3600),
				activity("2024-01-02T08:00:00Z", 4*3600),
			},
			want: map[time.Time]float64{
				day("2024-01-01"): 0.5,
				day("2024-01-02"): 1.0,
			},
		},
		{
			name: "same-date activities sum before normalizing",
			activities: []strava.Activity{
				activity("2024-01-01T06:00:00Z", 3600),
				activity("2024-01-01T18:00:00Z", 3600),
				activity("2024-01-02T08:00:00Z", 4*3600),
			},
			want: map[time.Time]float64{
				day("2024-01-01"): 0.5,
				day("2024-01-02"): 1.0,
			},
		},
		{
			name: "single date maps to 1.0",
			activities: []strava.Activity{
				activity("2024-03-15T10:00:00Z", 1800),
			},
			want: map[time.Time]float64{
				day("2024-03-15"): 1.0,
			},
		},
		{
			name: "grouping uses the UTC calendar date",
			activities: []strava.Activity{
				// 23:30 UTC-5 is 04:30 UTC the next day
				{StartDate: mustParse("2024-01-01T23:30:00-05:00"), MovingTime: 3600},
				{StartDate: mustParse("2024-01-02T08:00:00Z"), MovingTime: 3600},
			},
			want: map[time.Time]float64{
				day("2024-01-02"): 1.0,
			},
		},
		{
			name: "zero moving time yields zero levels",
			activities: []strava.Activity{
				activity("2024-01-01T08:00:00Z", 0),
			},
			want: map[time.Time]float64{
				day("2024-01-01"): 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.AggregateDaily(tt.activities)

			require.Len(t, got, len(tt.want))
			for date, level := range tt.want {
				assert.InDelta(t, level, got[date], 1e-9, "level for %s", date.Format("2006-01-02"))
			}
		})
	}
}

func mustParse(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}
