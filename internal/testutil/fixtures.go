package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dmarsh/strava-calendar/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	displayName string
	password    string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		displayName: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password:    "testpassword123",
	}
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		DisplayName:  b.displayName,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate creates a user via the API and returns its access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"displayName": b.displayName,
		"password":    b.password,
	})

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register returned status %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode auth response: %v", err)
	}

	userID, err := uuid.Parse(authResp.User.ID)
	if err != nil {
		t.Fatalf("failed to parse user ID: %v", err)
	}

	user, err := ts.Repos.User.GetByID(t.Context(), userID)
	if err != nil {
		t.Fatalf("failed to load registered user: %v", err)
	}

	return user, authResp.AccessToken
}

// CredentialBuilder creates stored Strava credentials for a user
type CredentialBuilder struct {
	userID       uuid.UUID
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	athleteID    int64
}

// NewCredentialBuilder creates a builder with an unexpired default credential
func NewCredentialBuilder(userID uuid.UUID) *CredentialBuilder {
	return &CredentialBuilder{
		userID:       userID,
		accessToken:  "access-0",
		refreshToken: "refresh-0",
		expiresAt:    time.Now().Add(time.Hour),
		athleteID:    TestAthleteID,
	}
}

// WithTokens sets the access and refresh tokens
func (b *CredentialBuilder) WithTokens(access, refresh string) *CredentialBuilder {
	b.accessToken = access
	b.refreshToken = refresh
	return b
}

// WithExpiresAt sets the absolute expiry instant
func (b *CredentialBuilder) WithExpiresAt(expiresAt time.Time) *CredentialBuilder {
	b.expiresAt = expiresAt
	return b
}

// Expired marks the credential as already expired
func (b *CredentialBuilder) Expired() *CredentialBuilder {
	b.expiresAt = time.Now().Add(-time.Minute)
	return b
}

// Build creates the credential in the database
func (b *CredentialBuilder) Build(t *testing.T, db *gorm.DB) *domain.StravaCredential {
	t.Helper()

	credential := &domain.StravaCredential{
		ID:           uuid.New(),
		UserID:       b.userID,
		AccessToken:  b.accessToken,
		RefreshToken: b.refreshToken,
		ExpiresAt:    b.expiresAt,
		AthleteID:    b.athleteID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(credential).Error; err != nil {
		t.Fatalf("failed to create credential: %v", err)
	}

	return credential
}

// DailyActivityBuilder creates stored daily activity rows
type DailyActivityBuilder struct {
	userID uuid.UUID
	date   time.Time
	level  float64
}

// NewDailyActivityBuilder creates a builder for the given user and ISO date
func NewDailyActivityBuilder(userID uuid.UUID, date string) *DailyActivityBuilder {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(fmt.Sprintf("invalid test date %q: %v", date, err))
	}
	return &DailyActivityBuilder{
		userID: userID,
		date:   parsed,
		level:  0.5,
	}
}

// WithLevel sets the activity level
func (b *DailyActivityBuilder) WithLevel(level float64) *DailyActivityBuilder {
	b.level = level
	return b
}

// Build creates the daily activity row in the database
func (b *DailyActivityBuilder) Build(t *testing.T, db *gorm.DB) *domain.DailyActivity {
	t.Helper()

	activity := &domain.DailyActivity{
		ID:            uuid.New(),
		UserID:        b.userID,
		Date:          b.date,
		ActivityLevel: b.level,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("failed to create daily activity: %v", err)
	}

	return activity
}
