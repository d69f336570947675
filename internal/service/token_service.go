package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmarsh/strava-calendar/internal/domain"
	"github.com/dmarsh/strava-calendar/internal/repository"
	"github.com/dmarsh/strava-calendar/internal/strava"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotConnected = errors.New("strava account not connected")

// TokenService owns the Strava credential lifecycle. It is the only component
// that reads or writes credential token fields: callers ask it for a valid
// access token and never touch the stored credential directly.
type TokenService struct {
	credentialRepo repository.CredentialRepository
	client         *strava.Client
	group          singleflight.Group
}

func NewTokenService(credentialRepo repository.CredentialRepository, client *strava.Client) *TokenService {
	return &TokenService{
		credentialRepo: credentialRepo,
		client:         client,
	}
}

// AuthorizationURL returns the consent URL for connecting the user's Strava
// account. The state parameter carries the user ID through the redirect.
func (s *TokenService) AuthorizationURL(userID uuid.UUID) string {
	return s.client.AuthorizationURL(userID.String())
}

// HandleCallback exchanges the authorization code and stores the resulting
// credential, overwriting any previous one for the user.
func (s *TokenService) HandleCallback(ctx context.Context, userID uuid.UUID, code string) error {
	token, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}
	return s.persist(ctx, userID, token, nil)
}

// EnsureValid returns an access token usable right now, refreshing and
// persisting first when the stored token has expired (strictly: when
// now >= expiresAt).
func (s *TokenService) EnsureValid(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.token(ctx, userID, false)
}

// ForceRefresh refreshes regardless of the stored expiry. Used when the remote
// service rejects a token that still looks unexpired locally (clock skew or
// server-side revocation).
func (s *TokenService) ForceRefresh(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.token(ctx, userID, true)
}

// token runs the load-check-refresh-persist sequence. Calls for the same user
// are collapsed into a single flight so that two concurrent sync passes cannot
// both refresh and invalidate each other's rotated refresh token; different
// users are not serialized against each other. A forced caller joining an
// in-flight plain check can receive the unrefreshed token; its follow-up
// request then fails authorization again and surfaces normally.
func (s *TokenService) token(ctx context.Context, userID uuid.UUID, force bool) (string, error) {
	result, err, _ := s.group.Do(userID.String(), func() (interface{}, error) {
		credential, err := s.credentialRepo.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotConnected
			}
			return nil, err
		}

		if !force && !credential.Expired(time.Now()) {
			return credential.AccessToken, nil
		}

		// Refresh failure leaves the stored credential untouched.
		token, err := s.client.Refresh(ctx, credential.RefreshToken)
		if err != nil {
			return nil, err
		}
		if err := s.persist(ctx, userID, token, credential); err != nil {
			return nil, fmt.Errorf("persisting refreshed credential: %w", err)
		}
		return token.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// persist writes the token response as the user's credential. Refresh
// responses omit the athlete payload, so previous athlete fields carry over.
func (s *TokenService) persist(ctx context.Context, userID uuid.UUID, token *strava.TokenResponse, previous *domain.StravaCredential) error {
	credential := &domain.StravaCredential{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry(),
		AthleteID:    token.AthleteID(),
		Athlete:      datatypes.JSON(token.Athlete),
	}
	if previous != nil && credential.AthleteID == 0 {
		credential.AthleteID = previous.AthleteID
		credential.Athlete = previous.Athlete
	}
	return s.credentialRepo.Upsert(ctx, credential)
}
