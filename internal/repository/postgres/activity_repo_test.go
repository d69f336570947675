package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dmarsh/strava-calendar/internal/domain"
	"github.com/dmarsh/strava-calendar/internal/repository/postgres"
	"github.com/dmarsh/strava-calendar/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isoDate(date string) time.Time {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestDailyActivityRepository_Upsert(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewDailyActivityRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	require.NoError(t, repo.Upsert(ctx, &domain.DailyActivity{
		ID:            uuid.New(),
		UserID:        user.ID,
		Date:          isoDate("2024-01-01"),
		ActivityLevel: 0.3,
	}))

	// Same (user, date) again overwrites the level, no second row
	require.NoError(t, repo.Upsert(ctx, &domain.DailyActivity{
		ID:            uuid.New(),
		UserID:        user.ID,
		Date:          isoDate("2024-01-01"),
		ActivityLevel: 1.0,
	}))

	rows, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1.0, rows[0].ActivityLevel, 1e-9)

	// A different date for the same user is a separate row
	require.NoError(t, repo.Upsert(ctx, &domain.DailyActivity{
		ID:            uuid.New(),
		UserID:        user.ID,
		Date:          isoDate("2024-01-02"),
		ActivityLevel: 0.5,
	}))

	rows, err = repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDailyActivityRepository_SameDateDifferentUsers(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewDailyActivityRepository(testDB.DB)
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	bob, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	require.NoError(t, repo.Upsert(ctx, &domain.DailyActivity{
		ID: uuid.New(), UserID: alice.ID, Date: isoDate("2024-01-01"), ActivityLevel: 0.2,
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.DailyActivity{
		ID: uuid.New(), UserID: bob.ID, Date: isoDate("2024-01-01"), ActivityLevel: 0.9,
	}))

	aliceRow, err := repo.GetByUserAndDate(ctx, alice.ID, isoDate("2024-01-01"))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, aliceRow.ActivityLevel, 1e-9)

	bobRow, err := repo.GetByUserAndDate(ctx, bob.ID, isoDate("2024-01-01"))
	require.NoError(t, err)
	assert.InDelta(t, 0.9, bobRow.ActivityLevel, 1e-9)
}

func TestDailyActivityRepository_GetByUserID_OrderedByDate(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewDailyActivityRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	for _, date := range []string{"2024-03-01", "2024-01-15", "2024-02-10"} {
		require.NoError(t, repo.Upsert(ctx, &domain.DailyActivity{
			ID: uuid.New(), UserID: user.ID, Date: isoDate(date), ActivityLevel: 0.5,
		}))
	}

	rows, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-01-15", rows[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-02-10", rows[1].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-03-01", rows[2].Date.Format("2006-01-02"))
}
