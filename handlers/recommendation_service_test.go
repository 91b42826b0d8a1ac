package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmwise/models"
)

func dailyResponse(recCount int) string {
	recs := make([]map[string]interface{}, 0, recCount)
	for i := 0; i < recCount; i++ {
		recs = append(recs, map[string]interface{}{
			"type":     "inspection",
			"priority": "normal",
			"action":   fmt.Sprintf("Check plot section %d", i+1),
		})
	}
	payload := map[string]interface{}{
		"briefing":        "Crop is developing well, keep up routine care.",
		"recommendations": recs,
		"farmStatus":      map[string]interface{}{"onTrack": true},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestGenerateDaily_PersistsBundle(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 55)
	gen := &fakeGenerator{response: dailyResponse(2)}
	svc := newTestRecommendationService(t, db, gen, nil)

	saved, err := svc.GenerateDaily(context.Background(), farm.ID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, farm.ID, saved.FarmID)
	assert.Equal(t, 55, saved.DaysSincePlanting)
	assert.Equal(t, "silking", saved.CurrentStage)
	assert.Equal(t, "Crop is developing well, keep up routine care.", saved.Briefing)
	assert.False(t, saved.UserViewed)
	assert.Nil(t, saved.ViewedAt)

	var recs []models.Recommendation
	require.NoError(t, json.Unmarshal(saved.Recommendations, &recs))
	assert.Len(t, recs, 2)

	var updated models.Farm
	require.NoError(t, db.First(&updated, "id = ?", farm.ID).Error)
	assert.Equal(t, "silking", updated.CurrentGrowthStage)
	assert.NotNil(t, updated.LastActivityAt)
}

func TestGenerateDaily_TruncatesAndAssignsIDs(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	gen := &fakeGenerator{response: dailyResponse(7)}
	svc := newTestRecommendationService(t, db, gen, nil)

	saved, err := svc.GenerateDaily(context.Background(), farm.ID, time.Now())
	require.NoError(t, err)

	var recs []models.Recommendation
	require.NoError(t, json.Unmarshal(saved.Recommendations, &recs))
	require.Len(t, recs, models.MaxDailyRecommendations)
	for _, rec := range recs {
		assert.NotEmpty(t, rec.ID)
		assert.NotEmpty(t, rec.Type)
		assert.NotEmpty(t, rec.Priority)
	}
}

func TestGenerateDaily_InactiveFarm(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	require.NoError(t, db.Model(farm).UpdateColumn("status", models.FarmStatusPaused).Error)

	gen := &fakeGenerator{response: dailyResponse(1)}
	svc := newTestRecommendationService(t, db, gen, nil)

	_, err := svc.GenerateDaily(context.Background(), farm.ID, time.Now())
	assert.ErrorIs(t, err, ErrFarmNotActive)
	assert.Equal(t, 0, gen.calls)

	var count int64
	db.Model(&models.DailyRecommendation{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestGenerateDaily_UnknownFarm(t *testing.T) {
	db := newTestDB(t)
	svc := newTestRecommendationService(t, db, &fakeGenerator{response: dailyResponse(1)}, nil)

	_, err := svc.GenerateDaily(context.Background(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrFarmNotFound)
}

func TestGenerateDaily_GeneratorFailureIsFatal(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 30)
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	svc := newTestRecommendationService(t, db, gen, nil)

	_, err := svc.GenerateDaily(context.Background(), farm.ID, time.Now())
	require.Error(t, err)

	var count int64
	db.Model(&models.DailyRecommendation{}).Count(&count)
	assert.EqualValues(t, 0, count, "nothing should be written when generation fails")
}

func TestGenerateDaily_UnparseableOutputFallsBack(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 55)
	gen := &fakeGenerator{response: "I am sorry, I cannot help with that."}
	svc := newTestRecommendationService(t, db, gen, nil)

	saved, err := svc.GenerateDaily(context.Background(), farm.ID, time.Now())
	require.NoError(t, err)

	assert.Contains(t, saved.Briefing, "Day 55")
	assert.Contains(t, saved.Briefing, "silking")

	var recs []models.Recommendation
	require.NoError(t, json.Unmarshal(saved.Recommendations, &recs))
	assert.Empty(t, recs)

	var updated models.Farm
	require.NoError(t, db.First(&updated, "id = ?", farm.ID).Error)
	assert.Equal(t, "silking", updated.CurrentGrowthStage, "farm state still advances on fallback")
}

func TestGenerateDaily_WeatherFailureDegrades(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 20)
	gen := &fakeGenerator{response: dailyResponse(1)}
	svc := newTestRecommendationService(t, db, gen, &fakeWeather{err: errors.New("upstream timeout")})

	saved, err := svc.GenerateDaily(context.Background(), farm.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.NotEmpty(t, saved.Briefing)
}

func TestGenerateDaily_UpsertKeepsOneRowPerDay(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 40)
	gen := &fakeGenerator{response: dailyResponse(2)}
	svc := newTestRecommendationService(t, db, gen, nil)
	today := time.Now()

	first, err := svc.GenerateDaily(context.Background(), farm.ID, today)
	require.NoError(t, err)

	// Mark the bundle viewed, then regenerate for the same day.
	viewed, err := svc.GetForDate(farm.ID, today)
	require.NoError(t, err)
	require.True(t, viewed.UserViewed)

	gen.response = dailyResponse(3)
	second, err := svc.GenerateDaily(context.Background(), farm.ID, today)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "regeneration overwrites in place")
	assert.False(t, second.UserViewed, "regeneration resets the viewed flag")
	assert.Nil(t, second.ViewedAt)

	var count int64
	db.Model(&models.DailyRecommendation{}).Where("farm_id = ?", farm.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	var recs []models.Recommendation
	require.NoError(t, json.Unmarshal(second.Recommendations, &recs))
	assert.Len(t, recs, 3)
}

func TestGenerateDaily_PrePlanting(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, -5)
	gen := &fakeGenerator{response: dailyResponse(1)}
	svc := newTestRecommendationService(t, db, gen, nil)

	saved, err := svc.GenerateDaily(context.Background(), farm.ID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, PreplantingStage, saved.CurrentStage)
	assert.Negative(t, saved.DaysSincePlanting)
}

func TestGetForDate_MarksViewedOnce(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 40)
	svc := newTestRecommendationService(t, db, &fakeGenerator{response: dailyResponse(1)}, nil)
	today := time.Now()

	_, err := svc.GenerateDaily(context.Background(), farm.ID, today)
	require.NoError(t, err)

	first, err := svc.GetForDate(farm.ID, today)
	require.NoError(t, err)
	require.True(t, first.UserViewed)
	require.NotNil(t, first.ViewedAt)

	second, err := svc.GetForDate(farm.ID, today)
	require.NoError(t, err)
	require.NotNil(t, second.ViewedAt)
	assert.True(t, second.ViewedAt.Equal(*first.ViewedAt), "viewed_at must not move on later reads")
}

func TestGetForDate_MissingRow(t *testing.T) {
	db := newTestDB(t)
	farm := seedFarm(t, db, 40)
	svc := newTestRecommendationService(t, db, &fakeGenerator{}, nil)

	_, err := svc.GetForDate(farm.ID, time.Now())
	require.Error(t, err)
}

func TestNormalizeRecommendations(t *testing.T) {
	recs := normalizeRecommendations([]models.Recommendation{
		{Action: "Irrigate block A"},
		{ID: "keep-me", Type: "weeding", Priority: "low", Action: "Weed block B"},
	})
	require.Len(t, recs, 2)
	assert.NotEmpty(t, recs[0].ID)
	assert.Equal(t, models.RecommendationOther, recs[0].Type)
	assert.Equal(t, models.PriorityNormal, recs[0].Priority)
	assert.Equal(t, "keep-me", recs[1].ID)
	assert.Equal(t, "weeding", recs[1].Type)

	assert.NotNil(t, normalizeRecommendations(nil))
	assert.Empty(t, normalizeRecommendations(nil))
}

func TestParseDailyPayload_FencedJSON(t *testing.T) {
	fenced := "```json\n" + dailyResponse(1) + "\n```"
	payload, ok := parseDailyPayload(fenced)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(payload.Briefing, "Crop is developing"))
	assert.Len(t, payload.Recommendations, 1)
}
