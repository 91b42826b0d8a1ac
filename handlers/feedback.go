package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"farmwise/config"
	"farmwise/models"
)

// SubmitFeedback applies one feedback event to the farm and returns the
// interpretation plus any immediate recommendations.
func SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}

	var req models.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := feedbackSvc.Apply(r.Context(), farm.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrFarmNotFound):
			respondError(w, http.StatusNotFound, "farm not found")
		case errors.Is(err, ErrFarmNotActive):
			respondError(w, http.StatusConflict, "farm is not active")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetFeedbackTrail lists the farm's recent feedback log, newest first.
func GetFeedbackTrail(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}

	var trail []models.FarmFeedback
	if err := config.DB.Where("farm_id = ?", farm.ID).
		Order("created_at DESC").Limit(50).Find(&trail).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, trail)
}
