package repository

import (
	"context"
	"time"

	"github.com/dmarsh/strava-calendar/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// CredentialRepository is the token store: one credential row per user,
// replaced as a unit. No caller observes a partially written credential.
type CredentialRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.StravaCredential, error)
	Upsert(ctx context.Context, credential *domain.StravaCredential) error
}

type DailyActivityRepository interface {
	Upsert(ctx context.Context, activity *domain.DailyActivity) error
	GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.DailyActivity, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.DailyActivity, error)
}

type Repositories struct {
	User          UserRepository
	Session       SessionRepository
	Credential    CredentialRepository
	DailyActivity DailyActivityRepository
}
