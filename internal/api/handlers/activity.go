package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dmarsh/strava-calendar/internal/api/middleware"
	"github.com/dmarsh/strava-calendar/internal/service"
	"github.com/go-chi/chi/v5"
)

type ActivityHandler struct {
	syncService *service.SyncService
}

func NewActivityHandler(syncService *service.SyncService) *ActivityHandler {
	return &ActivityHandler{syncService: syncService}
}

type SyncResponse struct {
	Synced int `json:"synced"`
}

type CalendarResponse struct {
	Dates map[string]float64 `json:"dates"`
}

type DayDetailResponse struct {
	ActivityLevel float64  `json:"activityLevel"`
	Activities    []string `json:"activities"`
}

func (h *ActivityHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.syncService.Run(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [activity.Sync] userID=%s: %v", userID, err)
		writeSyncError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SyncResponse{Synced: count})
}

func (h *ActivityHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	dates, err := h.syncService.CalendarData(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [activity.Calendar] userID=%s: %v", userID, err)
		http.Error(w, "Failed to load calendar", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CalendarResponse{Dates: dates})
}

func (h *ActivityHandler) DayDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		http.Error(w, "Invalid date format", http.StatusBadRequest)
		return
	}

	detail, err := h.syncService.DayDetails(r.Context(), userID, date)
	if err != nil {
		log.Printf("ERROR [activity.DayDetails] userID=%s date=%s: %v", userID, date.Format("2006-01-02"), err)
		writeSyncError(w, err)
		return
	}

	resp := DayDetailResponse{
		ActivityLevel: detail.ActivityLevel,
		Activities:    detail.Activities,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeSyncError maps the sync error taxonomy to HTTP statuses. Remote
// failures surface as responses, never as process faults.
func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotConnected):
		http.Error(w, "Strava account not connected", http.StatusConflict)
	case errors.Is(err, service.ErrAuthFailed):
		http.Error(w, "Strava authorization failed", http.StatusBadGateway)
	case errors.Is(err, service.ErrFetchFailed):
		http.Error(w, "Failed to fetch Strava activities", http.StatusBadGateway)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
