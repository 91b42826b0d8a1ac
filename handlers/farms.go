package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/datatypes"

	"farmwise/config"
	"farmwise/middleware"
	"farmwise/models"
	"farmwise/pkg/agronomy"
	"farmwise/utils"
)

type createFarmReq struct {
	Name         string          `json:"name"`
	Location     string          `json:"location,omitempty"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	SizeAcres    float64         `json:"sizeAcres,omitempty"`
	Crop         string          `json:"crop"`
	PlantingDate models.DateOnly `json:"plantingDate"`
	Budget       float64         `json:"budget,omitempty"`
	Boundary     json.RawMessage `json:"boundary,omitempty"`
}

type updateFarmReq struct {
	Name      *string         `json:"name,omitempty"`
	Location  *string         `json:"location,omitempty"`
	Latitude  *float64        `json:"latitude,omitempty"`
	Longitude *float64        `json:"longitude,omitempty"`
	SizeAcres *float64        `json:"sizeAcres,omitempty"`
	Budget    *float64        `json:"budget,omitempty"`
	Boundary  json.RawMessage `json:"boundary,omitempty"`
}

// loadOwnedFarm resolves {id} and scopes it to the authenticated owner.
// It writes the error response itself when the farm can't be served.
func loadOwnedFarm(w http.ResponseWriter, r *http.Request) (*models.Farm, bool) {
	vars := mux.Vars(r)
	farmID, err := uuid.Parse(vars["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid farm id")
		return nil, false
	}

	ownerID := middleware.GetUserID(r)
	if ownerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}

	var farm models.Farm
	if err := config.DB.Where("id = ? AND owner_id = ?", farmID, ownerID).First(&farm).Error; err != nil {
		respondError(w, http.StatusNotFound, "farm not found")
		return nil, false
	}
	return &farm, true
}

func CreateFarm(w http.ResponseWriter, r *http.Request) {
	var req createFarmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" || req.Crop == "" {
		respondError(w, http.StatusBadRequest, "name and crop are required")
		return
	}
	if req.PlantingDate.Time().IsZero() {
		respondError(w, http.StatusBadRequest, "plantingDate is required")
		return
	}
	if err := utils.ValidateBoundary(req.Boundary); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Boundary) > 0 && (req.Latitude != 0 || req.Longitude != 0) {
		inside, err := utils.BoundaryContains(req.Boundary, req.Latitude, req.Longitude)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !inside {
			respondError(w, http.StatusBadRequest, "farm coordinates must lie inside the boundary")
			return
		}
	}

	ownerID := middleware.GetUserID(r)
	if ownerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	planting := req.PlantingDate.Time()
	duration := agronomy.CropDuration(req.Crop)
	harvest := models.NewDateOnly(planting.AddDate(0, 0, duration))

	days := agronomy.DaysBetween(planting, models.NewDateOnly(time.Now()).Time())
	stage := PreplantingStage
	if days >= 0 {
		stage = agronomy.ResolveStage(req.Crop, days)
	}

	farm := models.Farm{
		OwnerID:             ownerID,
		Name:                req.Name,
		Location:            req.Location,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		SizeAcres:           req.SizeAcres,
		Crop:                req.Crop,
		PlantingDate:        req.PlantingDate,
		ExpectedHarvestDate: harvest,
		CurrentGrowthStage:  stage,
		Budget:              req.Budget,
		Status:              models.FarmStatusActive,
	}
	if len(req.Boundary) > 0 {
		farm.Boundary = datatypes.JSON(req.Boundary)
	}

	if err := config.DB.Create(&farm).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, farm)
}

func GetFarms(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r)
	if ownerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var farms []models.Farm
	if err := config.DB.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&farms).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, farms)
}

func GetFarm(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, farm)
}

// UpdateFarm changes mutable farm attributes. Crop and planting date are
// immutable once set; fields carrying them are ignored here.
func UpdateFarm(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}

	var req updateFarmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Boundary != nil {
		if err := utils.ValidateBoundary(req.Boundary); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if req.Name != nil {
		farm.Name = *req.Name
	}
	if req.Location != nil {
		farm.Location = *req.Location
	}
	if req.Latitude != nil {
		farm.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		farm.Longitude = *req.Longitude
	}
	if req.SizeAcres != nil {
		farm.SizeAcres = *req.SizeAcres
	}
	if req.Budget != nil {
		farm.Budget = *req.Budget
	}
	if req.Boundary != nil {
		farm.Boundary = datatypes.JSON(req.Boundary)
	}

	if err := config.DB.Save(farm).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, farm)
}

type farmStatusReq struct {
	Status string `json:"status"`
}

// UpdateFarmStatus is the soft lifecycle change; farms are never hard
// deleted. Anything but "active" excludes the farm from daily generation.
func UpdateFarmStatus(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}

	var req farmStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	switch req.Status {
	case models.FarmStatusActive, models.FarmStatusPaused, models.FarmStatusHarvested, models.FarmStatusArchived:
	default:
		respondError(w, http.StatusBadRequest, "unknown status "+req.Status)
		return
	}

	if err := config.DB.Model(farm).UpdateColumn("status", req.Status).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	farm.Status = req.Status
	respondJSON(w, http.StatusOK, farm)
}

// GetHarvestWindow returns the date-arithmetic harvest position for a
// farm, with the optimal window as absolute dates.
func GetHarvestWindow(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, recommendationSvc.HarvestWindow(farm, time.Now()))
}
