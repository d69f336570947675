package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StravaCredential holds the single active token set for a user. It is
// overwritten as a whole row on every refresh; the token fields are only
// read and written through the token service.
type StravaCredential struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       uuid.UUID      `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	AccessToken  string         `json:"-" gorm:"not null"`
	RefreshToken string         `json:"-" gorm:"not null"`
	ExpiresAt    time.Time      `json:"expiresAt" gorm:"not null"`
	AthleteID    int64          `json:"athleteId"`
	Athlete      datatypes.JSON `json:"athlete,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Expired reports whether the access token must be refreshed before use.
// The boundary is strict: a token expiring exactly now is expired.
func (c *StravaCredential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// DailyActivity is one calendar day's normalized activity level for a user.
// At most one row exists per (user, date).
type DailyActivity struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID        uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_daily_activities_user_date"`
	Date          time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_daily_activities_user_date"`
	ActivityLevel float64   `json:"activityLevel" gorm:"not null"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
