package postgres

import (
	"context"
	"time"

	"github.com/dmarsh/strava-calendar/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type dailyActivityRepository struct {
	db *gorm.DB
}

func NewDailyActivityRepository(db *gorm.DB) *dailyActivityRepository {
	return &dailyActivityRepository{db: db}
}

// Upsert inserts or overwrites the level for one (user, date) pair. Re-syncing
// the same window converges instead of accumulating duplicate rows.
func (r *dailyActivityRepository) Upsert(ctx context.Context, activity *domain.DailyActivity) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"activity_level", "updated_at",
		}),
	}).Create(activity).Error
}

func (r *dailyActivityRepository) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.DailyActivity, error) {
	var activity domain.DailyActivity
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date.Format("2006-01-02")).
		First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *dailyActivityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.DailyActivity, error) {
	var activities []*domain.DailyActivity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}
