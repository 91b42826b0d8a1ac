package handlers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"farmwise/config"
	"farmwise/models"
	"farmwise/pkg/weather"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Farm{},
		&models.DailyRecommendation{}, &models.FarmActivity{}, &models.FarmFeedback{}))
	return db
}

func testConfig() *config.Config {
	return &config.Config{HarvestGraceDays: 14}
}

// seedFarm creates an active maize farm planted daysAgo days in the past.
func seedFarm(t *testing.T, db *gorm.DB, daysAgo int) *models.Farm {
	t.Helper()
	planting := models.NewDateOnly(time.Now().AddDate(0, 0, -daysAgo))
	farm := &models.Farm{
		OwnerID:             uuid.New(),
		Name:                "Test Farm",
		Location:            "Nakuru",
		Latitude:            -0.3031,
		Longitude:           36.0800,
		Crop:                "maize",
		PlantingDate:        planting,
		ExpectedHarvestDate: models.NewDateOnly(planting.Time().AddDate(0, 0, 90)),
		CurrentGrowthStage:  "germination",
		Budget:              1000,
		Status:              models.FarmStatusActive,
	}
	require.NoError(t, db.Create(farm).Error)
	return farm
}

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeWeather struct {
	snapshot *weather.Snapshot
	err      error
}

func (f *fakeWeather) Fetch(ctx context.Context, latitude, longitude float64) (*weather.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.snapshot != nil {
		return f.snapshot, nil
	}
	return &weather.Snapshot{}, nil
}

func newTestRecommendationService(t *testing.T, db *gorm.DB, gen *fakeGenerator, w *fakeWeather) *RecommendationService {
	t.Helper()
	if w == nil {
		w = &fakeWeather{}
	}
	return NewRecommendationService(db, gen, w, testConfig(), zap.NewNop())
}

func newTestFeedbackService(t *testing.T, db *gorm.DB, gen *fakeGenerator) *FeedbackService {
	t.Helper()
	return NewFeedbackService(db, gen, zap.NewNop())
}
