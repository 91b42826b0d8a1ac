package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"farmwise/config"
	"farmwise/models"
	"farmwise/pkg/agronomy"
	"farmwise/pkg/llm"
	"farmwise/pkg/weather"
)

var (
	ErrFarmNotFound  = errors.New("farm not found")
	ErrFarmNotActive = errors.New("farm is not active")
)

// PreplantingStage is reported when today is before the planting date;
// the stage resolver is never consulted with a negative day offset.
const PreplantingStage = "pre-planting"

// RecommendationService produces and persists the per-farm, per-day
// recommendation bundle.
type RecommendationService struct {
	db        *gorm.DB
	generator llm.TextGenerator
	weather   weather.Provider
	cfg       *config.Config
	logger    *zap.Logger
}

func NewRecommendationService(db *gorm.DB, generator llm.TextGenerator, provider weather.Provider,
	cfg *config.Config, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		db:        db,
		generator: generator,
		weather:   provider,
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateDaily runs the whole trigger for one farm: temporal position,
// weather and history context, text generation, normalisation and the
// (farm_id, date) upsert. A failed generation call fails the operation;
// unparseable content from a successful call degrades to a fallback
// briefing instead.
func (s *RecommendationService) GenerateDaily(ctx context.Context, farmID uuid.UUID, today time.Time) (*models.DailyRecommendation, error) {
	var farm models.Farm
	if err := s.db.First(&farm, "id = ?", farmID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFarmNotFound
		}
		return nil, fmt.Errorf("failed to load farm: %w", err)
	}
	if farm.Status != models.FarmStatusActive {
		return nil, ErrFarmNotActive
	}

	date := models.NewDateOnly(today)
	days := agronomy.DaysBetween(farm.PlantingDate.Time(), date.Time())
	stage := PreplantingStage
	if days >= 0 {
		stage = agronomy.ResolveStage(farm.Crop, days)
	}
	window := agronomy.ComputeHarvestWindow(farm.Crop, farm.PlantingDate.Time(), date.Time(), s.cfg.HarvestGraceDays)

	snapshot := s.fetchWeather(ctx, &farm)

	var activities []models.FarmActivity
	s.db.Where("farm_id = ?", farm.ID).Order("created_at DESC").Limit(10).Find(&activities)
	var feedback []models.FarmFeedback
	s.db.Where("farm_id = ?", farm.ID).Order("created_at DESC").Limit(5).Find(&feedback)

	prompt := buildDailyPrompt(&farm, days, stage, window, snapshot, activities, feedback)
	raw, err := s.generator.Generate(ctx, dailySystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("recommendation generation failed: %w", err)
	}

	payload, ok := parseDailyPayload(raw)
	if !ok {
		s.logger.Warn("Generator output was unparseable, writing fallback briefing",
			zap.String("farm_id", farm.ID.String()),
		)
		payload = fallbackDailyPayload(&farm, days, stage)
	}
	payload.Recommendations = normalizeRecommendations(payload.Recommendations)

	recsJSON, err := json.Marshal(payload.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recommendations: %w", err)
	}
	statusJSON, _ := json.Marshal(payload.FarmStatus)
	weatherJSON, _ := json.Marshal(snapshot)

	rec := &models.DailyRecommendation{
		FarmID:            farm.ID,
		Date:              date,
		DaysSincePlanting: days,
		CurrentStage:      stage,
		Recommendations:   recsJSON,
		Briefing:          payload.Briefing,
		FarmStatus:        statusJSON,
		Weather:           weatherJSON,
		UserViewed:        false,
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "farm_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"days_since_planting", "current_stage", "recommendations",
				"briefing", "farm_status", "weather", "user_viewed", "viewed_at", "updated_at",
			}),
		}).Create(rec).Error; err != nil {
			return fmt.Errorf("failed to upsert daily recommendation: %w", err)
		}

		return tx.Model(&models.Farm{}).Where("id = ?", farm.ID).
			Updates(map[string]interface{}{
				"current_growth_stage": stage,
				"last_activity_at":     now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	// Re-read by key: on a regeneration the stored row keeps its
	// original id.
	var saved models.DailyRecommendation
	if err := s.db.Where("farm_id = ? AND date = ?", farm.ID, date).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to reload daily recommendation: %w", err)
	}

	s.logger.Info("Daily recommendation generated",
		zap.String("farm_id", farm.ID.String()),
		zap.String("date", date.String()),
		zap.Int("days_since_planting", days),
		zap.String("stage", stage),
		zap.Int("recommendations", len(payload.Recommendations)),
	)
	return &saved, nil
}

// GetForDate returns the stored bundle for a date and marks it viewed on
// first read. The viewed flag is set at most once; the guarded update
// keeps concurrent first reads from moving viewed_at.
func (s *RecommendationService) GetForDate(farmID uuid.UUID, date time.Time) (*models.DailyRecommendation, error) {
	key := models.NewDateOnly(date)

	var rec models.DailyRecommendation
	if err := s.db.Where("farm_id = ? AND date = ?", farmID, key).First(&rec).Error; err != nil {
		return nil, err
	}

	if !rec.UserViewed {
		now := time.Now()
		res := s.db.Model(&models.DailyRecommendation{}).
			Where("id = ? AND user_viewed = ?", rec.ID, false).
			Updates(map[string]interface{}{"user_viewed": true, "viewed_at": now})
		if res.Error == nil && res.RowsAffected > 0 {
			rec.UserViewed = true
			rec.ViewedAt = &now
		}
	}
	return &rec, nil
}

// HarvestWindow computes the harvest position for a farm using the
// configured grace window.
func (s *RecommendationService) HarvestWindow(farm *models.Farm, today time.Time) agronomy.HarvestWindow {
	return agronomy.ComputeHarvestWindow(farm.Crop, farm.PlantingDate.Time(), models.NewDateOnly(today).Time(), s.cfg.HarvestGraceDays)
}

func (s *RecommendationService) fetchWeather(ctx context.Context, farm *models.Farm) *weather.Snapshot {
	snapshot, err := s.weather.Fetch(ctx, farm.Latitude, farm.Longitude)
	if err != nil {
		s.logger.Warn("Weather unavailable, proceeding with empty context",
			zap.String("farm_id", farm.ID.String()),
			zap.Error(err),
		)
		return &weather.Snapshot{}
	}
	return snapshot
}

// normalizeRecommendations enforces the bundle guarantees regardless of
// what the generator returned: at most MaxDailyRecommendations entries,
// every entry with an id, sane type/priority defaults.
func normalizeRecommendations(recs []models.Recommendation) []models.Recommendation {
	if len(recs) > models.MaxDailyRecommendations {
		recs = recs[:models.MaxDailyRecommendations]
	}
	for i := range recs {
		if recs[i].ID == "" {
			recs[i].ID = uuid.NewString()
		}
		if recs[i].Type == "" {
			recs[i].Type = models.RecommendationOther
		}
		if recs[i].Priority == "" {
			recs[i].Priority = models.PriorityNormal
		}
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	return recs
}
