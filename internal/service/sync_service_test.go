package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dmarsh/strava-calendar/internal/domain"
	"github.com/dmarsh/strava-calendar/internal/repository"
	"github.com/dmarsh/strava-calendar/internal/repository/postgres"
	"github.com/dmarsh/strava-calendar/internal/service"
	"github.com/dmarsh/strava-calendar/internal/strava"
	"github.com/dmarsh/strava-calendar/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	db    *testutil.TestDB
	fake  *testutil.FakeStrava
	repos *repository.Repositories
	sync  *service.SyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	fake := testutil.NewFakeStrava(t)
	repos := postgres.NewRepositories(testDB.DB)

	client := strava.NewClient(strava.Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost:8080/api/v1/strava/callback",
		BaseURL:      fake.URL(),
	})
	tokens := service.NewTokenService(repos.Credential, client)
	fetcher := service.NewActivityFetcher(tokens, client)

	return &syncFixture{
		db:    testDB,
		fake:  fake,
		repos: repos,
		sync:  service.NewSyncService(fetcher, repos.DailyActivity),
	}
}

func (f *syncFixture) connectedUser(t *testing.T) *domain.User {
	t.Helper()
	user, _ := testutil.NewUserBuilder().Build(t, f.db.DB)
	testutil.NewCredentialBuilder(user.ID).
		WithTokens(f.fake.AccessToken(), f.fake.RefreshToken()).
		Build(t, f.db.DB)
	return user
}

func (f *syncFixture) storedRows(t *testing.T, userID uuid.UUID) []*domain.DailyActivity {
	t.Helper()
	rows, err := f.repos.DailyActivity.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return rows
}

func TestSyncService_Run(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	user := f.connectedUser(t)

	f.fake.SetActivities(
		testutil.Activity(1, "Run", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), 2*3600),
		testutil.Activity(2, "Ride", time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), 4*3600),
	)

	count, err := f.sync.Run(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows := f.storedRows(t, user.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-01", rows[0].Date.Format("2006-01-02"))
	assert.InDelta(t, 0.5, rows[0].ActivityLevel, 1e-9)
	assert.Equal(t, "2024-01-02", rows[1].Date.Format("2006-01-02"))
	assert.InDelta(t, 1.0, rows[1].ActivityLevel, 1e-9)
}

func TestSyncService_Run_Idempotent(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	user := f.connectedUser(t)

	f.fake.SetActivities(
		testutil.Activity(1, "Run", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), 3600),
		testutil.Activity(2, "Ride", time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), 7200),
	)

	first, err := f.sync.Run(ctx, user.ID)
	require.NoError(t, err)
	firstRows := f.storedRows(t, user.ID)

	second, err := f.sync.Run(ctx, user.ID)
	require.NoError(t, err)
	secondRows := f.storedRows(t, user.ID)

	assert.Equal(t, first, second)
	require.Len(t, secondRows, len(firstRows))
	for i := range firstRows {
		assert.Equal(t, firstRows[i].ID, secondRows[i].ID, "re-sync must not create new rows")
		assert.Equal(t, firstRows[i].ActivityLevel, secondRows[i].ActivityLevel)
	}
}

func TestSyncService_Run_OverwritesExistingDate(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	user := f.connectedUser(t)

	testutil.NewDailyActivityBuilder(user.ID, "2024-01-01").
		WithLevel(0.3).
		Build(t, f.db.DB)

	f.fake.SetActivities(
		testutil.Activity(1, "Run", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), 3600),
	)

	count, err := f.sync.Run(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rows := f.storedRows(t, user.ID)
	require.Len(t, rows, 1, "no duplicate row for an already-stored date")
	assert.InDelta(t, 1.0, rows[0].ActivityLevel, 1e-9)
}

func TestSyncService_Run_EmptyFetch(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	user := f.connectedUser(t)

	count, err := f.sync.Run(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, f.storedRows(t, user.ID))
}

func TestSyncService_Run_NotConnected(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, f.db.DB)

	_, err := f.sync.Run(ctx, user.ID)
	assert.ErrorIs(t, err, service.ErrAuthFailed)
	assert.ErrorIs(t, err, service.ErrNotConnected)
}

func TestSyncService_Run_FetchFailure(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	user := f.connectedUser(t)

	f.fake.FailActivityRequests(500)

	_, err := f.sync.Run(ctx, user.ID)
	assert.ErrorIs(t, err, service.ErrFetchFailed)
	assert.Empty(t, f.storedRows(t, user.ID))
}

func TestSyncService_ActivityLevel(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	user, _ := testutil.NewUserBuilder().Build(t, f.db.DB)

	testutil.NewDailyActivityBuilder(user.ID, "2024-02-10").
		WithLevel(0.75).
		Build(t, f.db.DB)

	level, found, err := f.sync.ActivityLevel(ctx, user.ID, mustParse("2024-02-10T00:00:00Z"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 0.75, level, 1e-9)

	_, found, err = f.sync.ActivityLevel(ctx, user.ID, mustParse("2024-02-11T00:00:00Z"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSyncService_CalendarData(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	user, _ := testutil.NewUserBuilder().Build(t, f.db.DB)

	testutil.NewDailyActivityBuilder(user.ID, "2024-01-01").WithLevel(0.5).Build(t, f.db.DB)
	testutil.NewDailyActivityBuilder(user.ID, "2024-01-02").WithLevel(1.0).Build(t, f.db.DB)

	// Another user's rows stay invisible
	other, _ := testutil.NewUserBuilder().Build(t, f.db.DB)
	testutil.NewDailyActivityBuilder(other.ID, "2024-01-03").Build(t, f.db.DB)

	data, err := f.sync.CalendarData(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{
		"2024-01-01": 0.5,
		"2024-01-02": 1.0,
	}, data)
}

func TestSyncService_DayDetails(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	user := f.connectedUser(t)

	testutil.NewDailyActivityBuilder(user.ID, "2024-01-01").
		WithLevel(0.8).
		Build(t, f.db.DB)
	f.fake.SetActivities(
		testutil.Activity(1, "Run", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), 3600),
		testutil.Activity(2, "Swim", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), 1800),
	)

	detail, err := f.sync.DayDetails(ctx, user.ID, mustParse("2024-01-01T00:00:00Z"))
	require.NoError(t, err)
	assert.InDelta(t, 0.8, detail.ActivityLevel, 1e-9)
	assert.Equal(t, []string{"Run", "Swim"}, detail.Activities)
}

func TestSyncService_DayDetails_UnknownDate(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	user := f.connectedUser(t)

	detail, err := f.sync.DayDetails(ctx, user.ID, mustParse("2024-01-01T00:00:00Z"))
	require.NoError(t, err)
	assert.Zero(t, detail.ActivityLevel)
	assert.Empty(t, detail.Activities)
	assert.Equal(t, 0, f.fake.ActivityCalls(), "no remote call for an unknown date")
}
