package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dmarsh/strava-calendar/internal/domain"
	"github.com/dmarsh/strava-calendar/internal/repository"
	"github.com/dmarsh/strava-calendar/internal/strava"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAuthFailed  = errors.New("strava authorization failed")
	ErrFetchFailed = errors.New("failed to fetch strava activities")
)

// SyncService orchestrates a sync pass: valid token, fetch, aggregate, upsert.
// It never retries a failed pass; the caller (scheduler or handler) decides.
type SyncService struct {
	fetcher      *ActivityFetcher
	activityRepo repository.DailyActivityRepository
}

func NewSyncService(fetcher *ActivityFetcher, activityRepo repository.DailyActivityRepository) *SyncService {
	return &SyncService{
		fetcher:      fetcher,
		activityRepo: activityRepo,
	}
}

// Run syncs the remote default window and returns the number of dates written.
// An empty remote result is a successful no-op. Each date is an independent
// idempotent upsert: a pass failing partway leaves earlier dates committed,
// and re-running converges to the same rows.
func (s *SyncService) Run(ctx context.Context, userID uuid.UUID) (int, error) {
	activities, err := s.fetcher.Fetch(ctx, userID, nil, nil)
	if err != nil {
		return 0, classifyFetchErr(err)
	}

	levels := AggregateDaily(activities)
	written := 0
	for date, level := range levels {
		record := &domain.DailyActivity{
			ID:            uuid.New(),
			UserID:        userID,
			Date:          date,
			ActivityLevel: level,
		}
		if err := s.activityRepo.Upsert(ctx, record); err != nil {
			return written, fmt.Errorf("upserting daily activity for %s: %w", date.Format("2006-01-02"), err)
		}
		written++
	}

	log.Printf("INFO [sync.Run] userID=%s activities=%d dates=%d", userID, len(activities), written)
	return written, nil
}

// ActivityLevel looks up the stored level for one date. The second return
// value reports whether a row exists.
func (s *SyncService) ActivityLevel(ctx context.Context, userID uuid.UUID, date time.Time) (float64, bool, error) {
	record, err := s.activityRepo.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return record.ActivityLevel, true, nil
}

// CalendarData returns every stored date mapped to its level, keyed by ISO
// date string for the calendar view.
func (s *SyncService) CalendarData(ctx context.Context, userID uuid.UUID) (map[string]float64, error) {
	records, err := s.activityRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	data := make(map[string]float64, len(records))
	for _, record := range records {
		data[record.Date.Format("2006-01-02")] = record.ActivityLevel
	}
	return data, nil
}

// DayDetail pairs a date's stored level with the activity type tags fetched
// live from the remote for that one-day window.
type DayDetail struct {
	ActivityLevel float64
	Activities    []string
}

// DayDetails returns details for one calendar date. A date with no stored row
// reports level 0 and no activities rather than an error.
func (s *SyncService) DayDetails(ctx context.Context, userID uuid.UUID, date time.Time) (*DayDetail, error) {
	level, found, err := s.ActivityLevel(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if !found {
		return &DayDetail{ActivityLevel: 0, Activities: []string{}}, nil
	}

	after := date
	before := date.AddDate(0, 0, 1)
	activities, err := s.fetcher.Fetch(ctx, userID, &after, &before)
	if err != nil {
		return nil, classifyFetchErr(err)
	}

	types := make([]string, 0, len(activities))
	for _, activity := range activities {
		types = append(types, activity.Type)
	}
	return &DayDetail{ActivityLevel: level, Activities: types}, nil
}

// classifyFetchErr folds fetcher failures into the sync taxonomy: credential
// problems become ErrAuthFailed, everything else ErrFetchFailed. The original
// cause stays on the chain for errors.Is.
func classifyFetchErr(err error) error {
	if errors.Is(err, ErrNotConnected) || errors.Is(err, strava.ErrRefreshFailed) {
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	return fmt.Errorf("%w: %w", ErrFetchFailed, err)
}
