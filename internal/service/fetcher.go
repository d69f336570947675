package service

import (
	"context"
	"errors"
	"time"

	"github.com/dmarsh/strava-calendar/internal/strava"
	"github.com/google/uuid"
)

// ActivityFetcher retrieves remote activities with a valid token, retrying at
// most once when the remote rejects a token that looked fresh locally.
type ActivityFetcher struct {
	tokens *TokenService
	client *strava.Client
}

func NewActivityFetcher(tokens *TokenService, client *strava.Client) *ActivityFetcher {
	return &ActivityFetcher{
		tokens: tokens,
		client: client,
	}
}

// Fetch lists one page of activities in the given window (nil bounds mean the
// remote default window). On a 401 it forces one token refresh and retries
// exactly once; a second 401 propagates as strava.ErrUnauthorized. Any other
// failure propagates immediately with no retry.
func (f *ActivityFetcher) Fetch(ctx context.Context, userID uuid.UUID, after, before *time.Time) ([]strava.Activity, error) {
	token, err := f.tokens.EnsureValid(ctx, userID)
	if err != nil {
		return nil, err
	}

	opts := strava.ListOptions{After: after, Before: before}
	for attempt := 0; ; attempt++ {
		activities, err := f.client.ListActivities(ctx, token, opts)
		if err == nil {
			return activities, nil
		}
		if !errors.Is(err, strava.ErrUnauthorized) || attempt > 0 {
			return nil, err
		}

		token, err = f.tokens.ForceRefresh(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
}
