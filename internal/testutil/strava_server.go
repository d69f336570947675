package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// TestAthleteID is the athlete identifier the fake token endpoint reports.
const TestAthleteID int64 = 24481497

// FakeStrava speaks enough of the Strava API for tests: the token endpoint
// for both grant types and the activity listing endpoint. Each token call
// rotates the accepted access and refresh tokens, matching Strava's rotation
// of refresh tokens on use.
type FakeStrava struct {
	server *httptest.Server

	mu            sync.Mutex
	accessToken   string
	refreshToken  string
	activities    []map[string]any
	rejectAll     bool
	failToken     bool
	failActivity  int
	tokenCalls    int
	activityCalls int
}

func NewFakeStrava(t *testing.T) *FakeStrava {
	t.Helper()

	f := &FakeStrava{
		accessToken:  "access-0",
		refreshToken: "refresh-0",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", f.handleToken)
	mux.HandleFunc("/api/v3/athlete/activities", f.handleActivities)
	f.server = httptest.NewServer(mux)

	t.Cleanup(f.server.Close)
	return f
}

func (f *FakeStrava) URL() string {
	return f.server.URL
}

// AccessToken returns the token the activity endpoint currently accepts.
func (f *FakeStrava) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accessToken
}

func (f *FakeStrava) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshToken
}

// SetActivities sets the payload the activity endpoint returns.
func (f *FakeStrava) SetActivities(activities ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = activities
}

// RejectAllTokens makes the activity endpoint return 401 regardless of token.
func (f *FakeStrava) RejectAllTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectAll = true
}

// FailActivityRequests makes the activity endpoint return the given status.
func (f *FakeStrava) FailActivityRequests(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failActivity = status
}

// FailTokenRequests makes the token endpoint return 400 for every grant.
func (f *FakeStrava) FailTokenRequests() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failToken = true
}

// TokenCalls reports how many token grants have been served.
func (f *FakeStrava) TokenCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls
}

// ActivityCalls reports how many activity listings have been served.
func (f *FakeStrava) ActivityCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activityCalls
}

// Activity builds an activity payload in the remote wire format.
func Activity(id int64, activityType string, start time.Time, movingSeconds int64) map[string]any {
	return map[string]any{
		"id":           id,
		"name":         fmt.Sprintf("%s %d", activityType, id),
		"type":         activityType,
		"start_date":   start.UTC().Format(time.RFC3339),
		"moving_time":  movingSeconds,
		"elapsed_time": movingSeconds,
		"distance":     float64(movingSeconds), // arbitrary but stable
	}
}

func (f *FakeStrava) handleToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if f.failToken {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Bad Request"})
		return
	}

	f.tokenCalls++
	f.accessToken = fmt.Sprintf("access-%d", f.tokenCalls)
	f.refreshToken = fmt.Sprintf("refresh-%d", f.tokenCalls)

	resp := map[string]any{
		"access_token":  f.accessToken,
		"refresh_token": f.refreshToken,
		"expires_at":    time.Now().Add(6 * time.Hour).Unix(),
	}
	if r.FormValue("grant_type") == "authorization_code" {
		resp["athlete"] = map[string]any{
			"id":       TestAthleteID,
			"username": "testathlete",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (f *FakeStrava) handleActivities(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.activityCalls++

	if f.failActivity != 0 {
		w.WriteHeader(f.failActivity)
		json.NewEncoder(w).Encode(map[string]string{"message": "Server Error"})
		return
	}
	if f.rejectAll || r.Header.Get("Authorization") != "Bearer "+f.accessToken {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Authorization Error"})
		return
	}

	activities := f.activities
	if activities == nil {
		activities = []map[string]any{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(activities)
}
