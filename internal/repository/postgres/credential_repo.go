package postgres

import (
	"context"

	"github.com/dmarsh/strava-calendar/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *credentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.StravaCredential, error) {
	var credential domain.StravaCredential
	err := r.db.WithContext(ctx).First(&credential, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

// Upsert replaces the user's credential as a single row write, keyed by
// user_id. Token fields never change independently of each other.
func (r *credentialRepository) Upsert(ctx context.Context, credential *domain.StravaCredential) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "expires_at", "athlete_id", "athlete", "updated_at",
		}),
	}).Create(credential).Error
}
