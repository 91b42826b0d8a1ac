package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"farmwise/models"
	"farmwise/pkg/llm"
	"farmwise/utils"
)

// FeedbackService folds one user observation back into farm state and,
// where warranted, emits immediate follow-up recommendations.
type FeedbackService struct {
	db        *gorm.DB
	generator llm.TextGenerator
	logger    *zap.Logger
}

func NewFeedbackService(db *gorm.DB, generator llm.TextGenerator, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{
		db:        db,
		generator: generator,
		logger:    logger,
	}
}

// FeedbackResult is what one reconciliation run produced.
type FeedbackResult struct {
	FeedbackType   string                  `json:"feedbackType"`
	Interpretation string                  `json:"interpretation"`
	PlanAdjusted   bool                    `json:"planAdjusted"`
	Immediate      []models.Recommendation `json:"immediateRecommendations"`
	Adjustments    map[string]interface{}  `json:"adjustments,omitempty"`
}

// Apply validates and dispatches one feedback event. Validation failures
// reject the request before anything is written. After the branch runs,
// the FarmFeedback audit row is always appended, even when the branch's
// own side effects partially failed.
func (s *FeedbackService) Apply(ctx context.Context, farmID uuid.UUID, req models.FeedbackRequest) (*FeedbackResult, error) {
	payload, err := req.Validate()
	if err != nil {
		return nil, err
	}

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

	result := &FeedbackResult{
		FeedbackType: req.Type,
		Immediate:    []models.Recommendation{},
	}

	switch p := payload.(type) {
	case models.WeatherConfirmation:
		s.applyWeatherConfirmation(p, result)
	case models.GrowthMilestone:
		s.applyGrowthMilestone(&farm, p, result)
	case models.IssueReport:
		s.applyIssueReport(ctx, &farm, p, result)
	case models.ActivityCompletion:
		s.applyActivityCompletion(&farm, p, result)
	case models.Observation:
		s.applyObservation(&farm, p, result)
	}

	entry := &models.FarmFeedback{
		FarmID:         farm.ID,
		FeedbackType:   req.Type,
		Response:       datatypes.JSON(req.Response),
		Interpretation: result.Interpretation,
		PlanAdjusted:   result.PlanAdjusted,
	}
	if len(result.Adjustments) > 0 {
		if adjJSON, err := json.Marshal(result.Adjustments); err == nil {
			entry.Adjustments = adjJSON
		}
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}

	s.logger.Info("Feedback reconciled",
		zap.String("farm_id", farm.ID.String()),
		zap.String("feedback_type", req.Type),
		zap.Bool("plan_adjusted", result.PlanAdjusted),
		zap.Int("immediate_recommendations", len(result.Immediate)),
	)
	return result, nil
}

func (s *FeedbackService) applyWeatherConfirmation(p models.WeatherConfirmation, result *FeedbackResult) {
	switch {
	case p.WasForecasted && !p.RainOccurred:
		result.Interpretation = "Forecasted rain did not occur; irrigation is needed to compensate."
		result.PlanAdjusted = true
		result.Adjustments = map[string]interface{}{
			"reason":           "forecast_mismatch",
			"irrigation_added": true,
		}
		result.Immediate = append(result.Immediate, models.Recommendation{
			ID:        uuid.NewString(),
			Type:      models.RecommendationIrrigation,
			Priority:  models.PriorityHigh,
			Action:    "Irrigate today to compensate for the rain that did not arrive",
			Reasoning: "Rain was forecast but did not occur",
		})
	case !p.WasForecasted && p.RainOccurred:
		result.Interpretation = "Unforecasted rain occurred; noted for the next planning run."
	case p.RainOccurred:
		result.Interpretation = "Rain occurred as forecast; no adjustment needed."
	default:
		result.Interpretation = "Dry conditions matched the forecast; no adjustment needed."
	}
}

func (s *FeedbackService) applyGrowthMilestone(farm *models.Farm, p models.GrowthMilestone, result *FeedbackResult) {
	switch p.ActualStatus {
	case models.GrowthBehind:
		delayed := p.ExpectedStage + " (delayed)"
		if err := s.db.Model(&models.Farm{}).Where("id = ?", farm.ID).
			Updates(map[string]interface{}{
				"current_growth_stage": delayed,
				"needs_replanning":     true,
			}).Error; err != nil {
			s.logger.Error("Failed to mark growth stage delayed",
				zap.String("farm_id", farm.ID.String()), zap.Error(err))
		}
		result.Interpretation = fmt.Sprintf("Growth is behind schedule at %s; stage marked delayed and an inspection scheduled.", p.ExpectedStage)
		result.PlanAdjusted = true
		result.Adjustments = map[string]interface{}{
			"current_growth_stage": delayed,
			"needs_replanning":     true,
		}
		result.Immediate = append(result.Immediate, models.Recommendation{
			ID:        uuid.NewString(),
			Type:      models.RecommendationInspection,
			Priority:  models.PriorityHigh,
			Action:    "Inspect the crop to find what is slowing growth",
			Reasoning: fmt.Sprintf("Farmer reports growth behind the expected %s stage", p.ExpectedStage),
		})

	case models.GrowthAhead:
		// Harvest timeline flagged for advancement; the stage itself is
		// not overwritten on this path.
		if err := s.db.Model(&models.Farm{}).Where("id = ?", farm.ID).
			UpdateColumn("needs_replanning", true).Error; err != nil {
			s.logger.Error("Failed to flag farm for replanning",
				zap.String("farm_id", farm.ID.String()), zap.Error(err))
		}
		result.Interpretation = fmt.Sprintf("Growth is ahead of schedule at %s; harvest timeline flagged for advancement.", p.ExpectedStage)
		result.PlanAdjusted = true
		result.Adjustments = map[string]interface{}{
			"harvest_timeline": "advance",
			"needs_replanning": true,
		}

	case models.GrowthOnTrack:
		if err := s.db.Model(&models.Farm{}).Where("id = ?", farm.ID).
			UpdateColumn("current_growth_stage", p.ExpectedStage).Error; err != nil {
			s.logger.Error("Failed to confirm growth stage",
				zap.String("farm_id", farm.ID.String()), zap.Error(err))
		}
		result.Interpretation = fmt.Sprintf("Growth confirmed on track at %s.", p.ExpectedStage)
	}
}

func (s *FeedbackService) applyIssueReport(ctx context.Context, farm *models.Farm, p models.IssueReport, result *FeedbackResult) {
	raw, err := s.generator.Generate(ctx, diagnosisSystemPrompt, buildDiagnosisPrompt(farm, p))
	if err != nil {
		// Diagnosis is best-effort: degrade to a generic interpretation
		// with no immediate recommendation.
		s.logger.Warn("Issue diagnosis generation failed, degrading",
			zap.String("farm_id", farm.ID.String()), zap.Error(err))
		result.Interpretation = genericIssueInterpretation(p)
		return
	}

	diag, ok := parseDiagnosisPayload(raw)
	if !ok {
		s.logger.Warn("Issue diagnosis output was unparseable, degrading",
			zap.String("farm_id", farm.ID.String()))
		result.Interpretation = genericIssueInterpretation(p)
		return
	}

	recType := models.RecommendationInspection
	switch p.IssueType {
	case "pest":
		recType = models.RecommendationPestTreatment
	case "disease":
		recType = models.RecommendationDiseaseTreatment
	}

	priority := models.PriorityNormal
	switch diag.Urgency {
	case "high":
		priority = models.PriorityCritical
	case "medium":
		priority = models.PriorityHigh
	}

	result.Interpretation = diag.Diagnosis
	result.Immediate = append(result.Immediate, models.Recommendation{
		ID:        uuid.NewString(),
		Type:      recType,
		Priority:  priority,
		Action:    diag.RecommendedAction,
		Reasoning: diag.Diagnosis,
	})
}

func (s *FeedbackService) applyActivityCompletion(farm *models.Farm, p models.ActivityCompletion, result *FeedbackResult) {
	status := models.ActivityStatusSkipped
	if p.Completed {
		status = models.ActivityStatusCompleted
	}

	now := time.Now()
	activity := &models.FarmActivity{
		FarmID:           farm.ID,
		RecommendationID: p.RecommendationID,
		ActivityType:     "recommendation_response",
		Status:           status,
		Cost:             p.Cost,
		Notes:            p.Notes,
		CompletionDate:   &now,
	}
	if err := s.db.Create(activity).Error; err != nil {
		s.logger.Error("Failed to append farm activity",
			zap.String("farm_id", farm.ID.String()), zap.Error(err))
	}

	if p.Cost > 0 {
		// Increment against the stored value so concurrent completions
		// for the same farm don't lose updates.
		if err := s.db.Model(&models.Farm{}).Where("id = ?", farm.ID).
			UpdateColumn("budget_spent", gorm.Expr("budget_spent + ?", p.Cost)).Error; err != nil {
			s.logger.Error("Failed to increment budget_spent",
				zap.String("farm_id", farm.ID.String()), zap.Error(err))
		}
		result.Adjustments = map[string]interface{}{"budget_spent_delta": p.Cost}
	}

	result.Interpretation = fmt.Sprintf("Activity recorded as %s.", status)
	if p.Cost > 0 {
		result.Interpretation = fmt.Sprintf("Activity recorded as %s with a cost of %.2f.", status, p.Cost)
	}
}

// applyObservation stores the farmer's note verbatim. When the note
// carries a GPS point and the farm has a boundary, the point is checked
// against it and a mismatch is flagged in the adjustments.
func (s *FeedbackService) applyObservation(farm *models.Farm, p models.Observation, result *FeedbackResult) {
	result.Interpretation = p.Text

	if p.Latitude == nil || p.Longitude == nil || len(farm.Boundary) == 0 {
		return
	}
	inside, err := utils.BoundaryContains(farm.Boundary, *p.Latitude, *p.Longitude)
	if err != nil {
		s.logger.Warn("Could not check observation point against farm boundary",
			zap.String("farm_id", farm.ID.String()), zap.Error(err))
		return
	}
	if !inside {
		result.Adjustments = map[string]interface{}{"outside_boundary": true}
	}
}

func genericIssueInterpretation(p models.IssueReport) string {
	return fmt.Sprintf("A %s issue of %s severity was reported: %s. Detailed diagnosis is unavailable right now; monitor the affected area closely.",
		p.IssueType, p.Severity, p.Description)
}
