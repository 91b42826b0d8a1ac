package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"farmwise/models"
)

func feedbackReq(t *testing.T, feedbackType string, payload interface{}) models.FeedbackRequest {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return models.FeedbackRequest{Type: feedbackType, Response: raw}
}

func countFeedback(t *testing.T, svc *FeedbackService) int64 {
	t.Helper()
	var count int64
	require.NoError(t, svc.db.Model(&models.FarmFeedback{}).Count(&count).Error)
	return count
}

func TestApply_WeatherForecastMismatch(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackWeatherConfirmation, models.WeatherConfirmation{
			RainOccurred:  false,
			WasForecasted: true,
		}))
	require.NoError(t, err)

	assert.True(t, result.PlanAdjusted)
	require.Len(t, result.Immediate, 1)
	assert.Equal(t, models.RecommendationIrrigation, result.Immediate[0].Type)
	assert.Equal(t, models.PriorityHigh, result.Immediate[0].Priority)
	assert.NotEmpty(t, result.Immediate[0].ID)

	var entry models.FarmFeedback
	require.NoError(t, db.First(&entry, "farm_id = ?", farm.ID).Error)
	assert.Equal(t, models.FeedbackWeatherConfirmation, entry.FeedbackType)
	assert.True(t, entry.PlanAdjusted)
	assert.NotEmpty(t, entry.Adjustments)
}

func TestApply_WeatherAsForecastNoAdjustment(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	cases := []models.WeatherConfirmation{
		{RainOccurred: true, WasForecasted: true},
		{RainOccurred: true, WasForecasted: false},
		{RainOccurred: false, WasForecasted: false},
	}
	for _, c := range cases {
		result, err := svc.Apply(context.Background(), farm.ID,
			feedbackReq(t, models.FeedbackWeatherConfirmation, c))
		require.NoError(t, err)
		assert.False(t, result.PlanAdjusted)
		assert.Empty(t, result.Immediate)
		assert.NotEmpty(t, result.Interpretation)
	}
	assert.EqualValues(t, 3, countFeedback(t, svc), "every event leaves an audit row")
}

func TestApply_GrowthOnTrack(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 40)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackGrowthMilestone, models.GrowthMilestone{
			ExpectedStage: "tasseling",
			ActualStatus:  models.GrowthOnTrack,
		}))
	require.NoError(t, err)
	assert.False(t, result.PlanAdjusted)

	var updated models.Farm
	require.NoError(t, db.First(&updated, "id = ?", farm.ID).Error)
	assert.Equal(t, "tasseling", updated.CurrentGrowthStage)
	assert.False(t, updated.NeedsReplanning)
}

func TestApply_GrowthBehind(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 55)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackGrowthMilestone, models.GrowthMilestone{
			ExpectedStage: "silking",
			ActualStatus:  models.GrowthBehind,
		}))
	require.NoError(t, err)

	assert.True(t, result.PlanAdjusted)
	require.Len(t, result.Immediate, 1)
	assert.Equal(t, models.RecommendationInspection, result.Immediate[0].Type)
	assert.Equal(t, models.PriorityHigh, result.Immediate[0].Priority)

	var updated models.Farm
	require.NoError(t, db.First(&updated, "id = ?", farm.ID).Error)
	assert.Equal(t, "silking (delayed)", updated.CurrentGrowthStage)
	assert.True(t, updated.NeedsReplanning)
}

func TestApply_GrowthAheadLeavesStageAlone(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 55)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackGrowthMilestone, models.GrowthMilestone{
			ExpectedStage: "silking",
			ActualStatus:  models.GrowthAhead,
		}))
	require.NoError(t, err)

	assert.True(t, result.PlanAdjusted)
	assert.Empty(t, result.Immediate)

	var updated models.Farm
	require.NoError(t, db.First(&updated, "id = ?", farm.ID).Error)
	assert.Equal(t, "germination", updated.CurrentGrowthStage, "stage stays as seeded")
	assert.True(t, updated.NeedsReplanning)
}

func TestApply_IssueReportWithDiagnosis(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 60)
	gen := &fakeGenerator{
		response: `{"diagnosis": "Likely fall armyworm infestation", "urgency": "high", "recommended_action": "Apply targeted pesticide within 24 hours"}`,
	}
	svc := newTestFeedbackService(t, db, gen)

	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackIssueReport, models.IssueReport{
			IssueType:   "pest",
			Description: "Holes in leaves and visible caterpillars",
			Severity:    "high",
		}))
	require.NoError(t, err)

	assert.Equal(t, "Likely fall armyworm infestation", result.Interpretation)
	require.Len(t, result.Immediate, 1)
	assert.Equal(t, models.RecommendationPestTreatment, result.Immediate[0].Type)
	assert.Equal(t, models.PriorityCritical, result.Immediate[0].Priority)
	assert.Equal(t, "Apply targeted pesticide within 24 hours", result.Immediate[0].Action)
}

func TestApply_IssueReportDiseaseMediumUrgency(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 60)
	gen := &fakeGenerator{
		response: `{"diagnosis": "Early signs of leaf rust", "urgency": "medium", "recommended_action": "Apply fungicide"}`,
	}
	svc := newTestFeedbackService(t, db, gen)

	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackIssueReport, models.IssueReport{
			IssueType:   "disease",
			Description: "Orange spots on lower leaves",
			Severity:    "medium",
		}))
	require.NoError(t, err)

	require.Len(t, result.Immediate, 1)
	assert.Equal(t, models.RecommendationDiseaseTreatment, result.Immediate[0].Type)
	assert.Equal(t, models.PriorityHigh, result.Immediate[0].Priority)
}

func TestApply_IssueReportDiagnosisFailureDegrades(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 60)
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	svc := newTestFeedbackService(t, db, gen)

	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackIssueReport, models.IssueReport{
			IssueType:   "pest",
			Description: "Wilting in the north corner",
			Severity:    "low",
		}))
	require.NoError(t, err, "a failed diagnosis must not fail the feedback")

	assert.Contains(t, result.Interpretation, "pest")
	assert.Empty(t, result.Immediate)
	assert.EqualValues(t, 1, countFeedback(t, svc), "audit row written despite degradation")
}

func TestApply_ActivityCompletionIncrementsBudget(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	for i := 0; i < 2; i++ {
		_, err := svc.Apply(context.Background(), farm.ID,
			feedbackReq(t, models.FeedbackActivityCompletion, models.ActivityCompletion{
				RecommendationID: "rec-1",
				Completed:        true,
				Cost:             150,
			}))
		require.NoError(t, err)
	}

	var updated models.Farm
	require.NoError(t, db.First(&updated, "id = ?", farm.ID).Error)
	assert.InDelta(t, 300, updated.BudgetSpent, 0.001)

	var activities []models.FarmActivity
	require.NoError(t, db.Where("farm_id = ?", farm.ID).Find(&activities).Error)
	require.Len(t, activities, 2)
	for _, a := range activities {
		assert.Equal(t, models.ActivityStatusCompleted, a.Status)
		assert.Equal(t, "rec-1", a.RecommendationID)
	}
}

func TestApply_ActivitySkippedNoBudgetChange(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackActivityCompletion, models.ActivityCompletion{
			RecommendationID: "rec-2",
			Completed:        false,
		}))
	require.NoError(t, err)
	assert.Contains(t, result.Interpretation, models.ActivityStatusSkipped)

	var updated models.Farm
	require.NoError(t, db.First(&updated, "id = ?", farm.ID).Error)
	assert.Zero(t, updated.BudgetSpent)
}

func TestApply_ObservationStoredVerbatim(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackObservation, models.Observation{
			Text: "Soil looks drier than usual near the fence line",
		}))
	require.NoError(t, err)
	assert.Equal(t, "Soil looks drier than usual near the fence line", result.Interpretation)
	assert.False(t, result.PlanAdjusted)
}

func TestApply_ObservationOutsideBoundaryFlagged(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	boundary := `{"coordinates": [{"lat": 0, "lng": 0}, {"lat": 0, "lng": 1}, {"lat": 1, "lng": 1}, {"lat": 1, "lng": 0}]}`
	require.NoError(t, db.Model(farm).UpdateColumn("boundary", datatypes.JSON(boundary)).Error)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	lat, lng := 5.0, 5.0
	result, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackObservation, models.Observation{
			Text:      "Standing water here",
			Latitude:  &lat,
			Longitude: &lng,
		}))
	require.NoError(t, err)
	assert.Equal(t, "Standing water here", result.Interpretation)
	assert.Equal(t, true, result.Adjustments["outside_boundary"])

	insideLat, insideLng := 0.5, 0.5
	result, err = svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackObservation, models.Observation{
			Text:      "Healthy patch",
			Latitude:  &insideLat,
			Longitude: &insideLng,
		}))
	require.NoError(t, err)
	assert.Empty(t, result.Adjustments)
}

func TestApply_ValidationFailureWritesNothing(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	badRequests := []models.FeedbackRequest{
		{Type: "telepathy", Response: json.RawMessage(`{}`)},
		{Type: models.FeedbackGrowthMilestone, Response: json.RawMessage(`{"actual_status": "on_track"}`)},
		{Type: models.FeedbackGrowthMilestone, Response: json.RawMessage(`{"expected_stage": "silking", "actual_status": "sideways"}`)},
		{Type: models.FeedbackIssueReport, Response: json.RawMessage(`{"issue_type": "pest"}`)},
		{Type: models.FeedbackActivityCompletion, Response: json.RawMessage(`{"cost": -5}`)},
		{Type: models.FeedbackWeatherConfirmation},
	}
	for _, req := range badRequests {
		_, err := svc.Apply(context.Background(), farm.ID, req)
		require.Error(t, err)
	}
	assert.EqualValues(t, 0, countFeedback(t, svc))
}

func TestApply_InactiveFarm(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	require.NoError(t, db.Model(farm).UpdateColumn("status", models.FarmStatusHarvested).Error)
	svc := newTestFeedbackService(t, db, &fakeGenerator{})

	_, err := svc.Apply(context.Background(), farm.ID,
		feedbackReq(t, models.FeedbackObservation, models.Observation{Text: "hello"}))
	assert.ErrorIs(t, err, ErrFarmNotActive)
	assert.EqualValues(t, 0, countFeedback(t, svc))
}
