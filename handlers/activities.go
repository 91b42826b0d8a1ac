package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"farmwise/config"
	"farmwise/models"
)

type logActivityReq struct {
	ActivityType     string  `json:"activityType"`
	Description      string  `json:"description,omitempty"`
	Status           string  `json:"status,omitempty"`
	Cost             float64 `json:"cost,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	RecommendationID string  `json:"recommendationId,omitempty"`
}

// LogActivity appends a manual activity entry. A positive cost feeds the
// farm's budget_spent the same way feedback-driven completions do.
func LogActivity(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}

	var req logActivityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.ActivityType == "" {
		respondError(w, http.StatusBadRequest, "activityType is required")
		return
	}
	if req.Cost < 0 {
		respondError(w, http.StatusBadRequest, "cost cannot be negative")
		return
	}
	status := req.Status
	if status == "" {
		status = models.ActivityStatusCompleted
	}
	if status != models.ActivityStatusCompleted && status != models.ActivityStatusSkipped {
		respondError(w, http.StatusBadRequest, "status must be completed or skipped")
		return
	}

	now := time.Now()
	activity := models.FarmActivity{
		FarmID:           farm.ID,
		RecommendationID: req.RecommendationID,
		ActivityType:     req.ActivityType,
		Description:      req.Description,
		Status:           status,
		Cost:             req.Cost,
		Notes:            req.Notes,
		CompletionDate:   &now,
	}
	if err := config.DB.Create(&activity).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}

	if req.Cost > 0 {
		if err := config.DB.Model(&models.Farm{}).Where("id = ?", farm.ID).
			UpdateColumn("budget_spent", gorm.Expr("budget_spent + ?", req.Cost)).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
			return
		}
	}
	respondJSON(w, http.StatusCreated, activity)
}

// GetActivities lists the farm's activity log, newest first.
func GetActivities(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}

	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}

	var activities []models.FarmActivity
	if err := config.DB.Where("farm_id = ?", farm.ID).
		Order("created_at DESC").Limit(limit).Find(&activities).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, activities)
}
