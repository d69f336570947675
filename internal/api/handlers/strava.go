package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/dmarsh/strava-calendar/internal/api/middleware"
	"github.com/dmarsh/strava-calendar/internal/service"
	"github.com/google/uuid"
)

type StravaHandler struct {
	tokenService *service.TokenService
}

func NewStravaHandler(tokenService *service.TokenService) *StravaHandler {
	return &StravaHandler{tokenService: tokenService}
}

type ConnectResponse struct {
	URL string `json:"url"`
}

// Connect returns the Strava consent URL for the authenticated user.
func (h *StravaHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	resp := ConnectResponse{URL: h.tokenService.AuthorizationURL(userID)}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Callback receives the OAuth redirect. Strava calls it without our bearer
// token, so the user is recovered from the state parameter set in Connect.
func (h *StravaHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "Missing code or state", http.StatusBadRequest)
		return
	}

	userID, err := uuid.Parse(state)
	if err != nil {
		log.Printf("ERROR [strava.Callback] invalid state: %v", err)
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return
	}

	if err := h.tokenService.HandleCallback(r.Context(), userID, code); err != nil {
		log.Printf("ERROR [strava.Callback] userID=%s: %v", userID, err)
		http.Error(w, "Failed to connect Strava account", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"connected": true})
}
