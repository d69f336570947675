package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://www.strava.com"
	defaultPerPage  = 200
	requiredScope   = "read,activity:read_all"
	requestTimeout  = 30 * time.Second
	maxErrorBodyLen = 512
)

var (
	ErrExchangeFailed = errors.New("strava: authorization code exchange failed")
	ErrRefreshFailed  = errors.New("strava: token refresh failed")
	ErrUnauthorized   = errors.New("strava: unauthorized")
	ErrRequestFailed  = errors.New("strava: request failed")
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	BaseURL      string // optional override, used by tests
	PerPage      int
}

// Client talks to the Strava OAuth and activity endpoints. It performs no
// storage and no retries; callers own persistence and retry policy.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// TokenResponse is the token endpoint payload for both grant types.
// Strava reports expiry as an absolute epoch second, not a relative TTL.
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	Athlete      json.RawMessage `json:"athlete,omitempty"`
}

func (t *TokenResponse) Expiry() time.Time {
	return time.Unix(t.ExpiresAt, 0).UTC()
}

// AthleteID extracts the athlete identifier included in
// authorization-code exchange responses. Refresh responses omit it.
func (t *TokenResponse) AthleteID() int64 {
	if len(t.Athlete) == 0 {
		return 0
	}
	var athlete struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(t.Athlete, &athlete); err != nil {
		return 0
	}
	return athlete.ID
}

// AuthorizationURL builds the user-facing consent URL. Pure construction,
// no network I/O; state round-trips the principal through the redirect.
func (c *Client) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("approval_prompt", "auto")
	q.Set("scope", requiredScope)
	q.Set("state", state)
	return c.cfg.BaseURL + "/oauth/authorize?" + q.Encode()
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	return c.token(ctx, form, ErrExchangeFailed)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.token(ctx, form, ErrRefreshFailed)
}

func (c *Client) token(ctx context.Context, form url.Values, failure error) (*TokenResponse, error) {
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", failure, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", failure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", failure, resp.StatusCode, readErrorBody(resp.Body))
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", failure, err)
	}
	return &token, nil
}

// Activity is one remote activity record. Records are transient: fetched per
// sync pass, aggregated, and discarded.
type Activity struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	StartDate   time.Time `json:"start_date"`
	MovingTime  int64     `json:"moving_time"`
	ElapsedTime int64     `json:"elapsed_time"`
	Distance    float64   `json:"distance"`
}

type ListOptions struct {
	After  *time.Time // inclusive lower bound, epoch seconds on the wire
	Before *time.Time // exclusive upper bound
}

// ListActivities fetches one page of the athlete's activities. A 401 maps to
// ErrUnauthorized so callers can distinguish a rejected token from other
// failures; any other non-200 status maps to ErrRequestFailed.
func (c *Client) ListActivities(ctx context.Context, accessToken string, opts ListOptions) ([]Activity, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.cfg.PerPage))
	if opts.After != nil {
		q.Set("after", strconv.FormatInt(opts.After.Unix(), 10))
	}
	if opts.Before != nil {
		q.Set("before", strconv.FormatInt(opts.Before.Unix(), 10))
	}

	reqURL := c.cfg.BaseURL + "/api/v3/athlete/activities?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: status 401", ErrUnauthorized)
	default:
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, readErrorBody(resp.Body))
	}

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrRequestFailed, err)
	}
	return activities, nil
}

func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBodyLen))
	return strings.TrimSpace(string(body))
}
