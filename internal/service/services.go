package service

import (
	"github.com/dmarsh/strava-calendar/internal/config"
	"github.com/dmarsh/strava-calendar/internal/repository"
	"github.com/dmarsh/strava-calendar/internal/strava"
)

type Services struct {
	Auth  *AuthService
	Token *TokenService
	Sync  *SyncService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	client := strava.NewClient(strava.Config{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		RedirectURL:  cfg.StravaRedirectURL,
		BaseURL:      cfg.StravaBaseURL,
		PerPage:      cfg.SyncPageSize,
	})

	tokens := NewTokenService(repos.Credential, client)
	fetcher := NewActivityFetcher(tokens, client)

	return &Services{
		Auth:  NewAuthService(repos.User, repos.Session, cfg),
		Token: tokens,
		Sync:  NewSyncService(fetcher, repos.DailyActivity),
	}
}
