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

func TestCredentialRepository_Upsert(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewCredentialRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	first := &domain.StravaCredential{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		AthleteID:    testutil.TestAthleteID,
	}
	require.NoError(t, repo.Upsert(ctx, first))

	stored, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-1", stored.AccessToken)

	// A second upsert for the same user replaces the row instead of
	// creating another credential.
	second := &domain.StravaCredential{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresAt:    time.Now().Add(2 * time.Hour),
		AthleteID:    testutil.TestAthleteID,
	}
	require.NoError(t, repo.Upsert(ctx, second))

	var count int64
	require.NoError(t, testDB.DB.Model(&domain.StravaCredential{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err = repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", stored.AccessToken)
	assert.Equal(t, "refresh-2", stored.RefreshToken)
	assert.Equal(t, first.ID, stored.ID, "the original row is updated in place")
}

func TestCredentialRepository_GetByUserID_NotFound(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewCredentialRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.GetByUserID(ctx, uuid.New())
	assert.Error(t, err)
}
