package handlers

import (
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"
)

// GenerateDailyRecommendation runs the daily trigger for one farm on
// demand. Regeneration for the same day overwrites the stored bundle and
// resets the viewed flag.
func GenerateDailyRecommendation(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}

	rec, err := recommendationSvc.GenerateDaily(r.Context(), farm.ID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, ErrFarmNotFound):
			respondError(w, http.StatusNotFound, "farm not found")
		case errors.Is(err, ErrFarmNotActive):
			respondError(w, http.StatusConflict, "farm is not active")
		default:
			respondError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func GetTodayRecommendation(w http.ResponseWriter, r *http.Request) {
	serveRecommendationForDate(w, r, time.Now())
}

// GetRecommendationByDate serves the bundle for ?date=YYYY-MM-DD.
func GetRecommendationByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		respondError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	serveRecommendationForDate(w, r, date)
}

func serveRecommendationForDate(w http.ResponseWriter, r *http.Request, date time.Time) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}

	rec, err := recommendationSvc.GetForDate(farm.ID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "no recommendation for that date")
			return
		}
		respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
