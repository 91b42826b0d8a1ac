package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recommendation action types and priorities.
const (
	RecommendationIrrigation       = "irrigation"
	RecommendationFertilization    = "fertilization"
	RecommendationInspection       = "inspection"
	RecommendationPestTreatment    = "pest_treatment"
	RecommendationDiseaseTreatment = "disease_treatment"
	RecommendationWeeding          = "weeding"
	RecommendationPlanting         = "planting"
	RecommendationOther            = "other"

	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityNormal   = "normal"
	PriorityLow      = "low"
)

// MaxDailyRecommendations caps how many items a daily bundle keeps,
// however many the generator returned.
const MaxDailyRecommendations = 5

// Recommendation is one actionable item inside a daily bundle or an
// immediate feedback response. It has no lifecycle of its own.
type Recommendation struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Priority      string  `json:"priority"`
	Action        string  `json:"action"`
	Reasoning     string  `json:"reasoning,omitempty"`
	EstimatedCost float64 `json:"estimatedCost,omitempty"`
	EstimatedTime string  `json:"estimatedTime,omitempty"`
}

// FarmStatusAssessment is the generator's on-track verdict for the day.
type FarmStatusAssessment struct {
	OnTrack   bool     `json:"onTrack"`
	Concerns  []string `json:"concerns,omitempty"`
	Positives []string `json:"positives,omitempty"`
}

// DailyRecommendation is the single per-farm, per-date bundle. The
// (farm_id, date) pair is unique; regeneration upserts over it.
type DailyRecommendation struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_recs_farm_date" json:"farmId"`
	Date   DateOnly  `gorm:"type:date;not null;uniqueIndex:idx_daily_recs_farm_date" json:"date"`

	DaysSincePlanting int    `gorm:"column:days_since_planting;not null" json:"daysSincePlanting"`
	CurrentStage      string `gorm:"column:current_stage;size:80" json:"currentStage"`

	Recommendations datatypes.JSON `gorm:"type:jsonb;not null" json:"recommendations"`
	Briefing        string         `gorm:"type:text" json:"briefing"`
	FarmStatus      datatypes.JSON `gorm:"column:farm_status;type:jsonb" json:"farmStatus,omitempty"`
	Weather         datatypes.JSON `gorm:"type:jsonb" json:"weather,omitempty"`

	// Set exactly once, on first read; reset only by regeneration.
	UserViewed bool       `gorm:"column:user_viewed;not null;default:false" json:"userViewed"`
	ViewedAt   *time.Time `gorm:"column:viewed_at" json:"viewedAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (d *DailyRecommendation) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
