package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Feedback types. Each carries its own payload shape; requests are
// validated against the declared type before any state is touched.
const (
	FeedbackWeatherConfirmation = "weather_confirmation"
	FeedbackGrowthMilestone     = "growth_milestone"
	FeedbackIssueReport         = "issue_report"
	FeedbackActivityCompletion  = "activity_completion"
	FeedbackObservation         = "observation"
)

// Growth milestone statuses.
const (
	GrowthOnTrack = "on_track"
	GrowthAhead   = "ahead"
	GrowthBehind  = "behind"
)

// FarmFeedback is the append-only audit trail of user observations and
// what the system made of them. Immutable once written.
type FarmFeedback struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID uuid.UUID `gorm:"type:uuid;index;not null" json:"farmId"`

	FeedbackType   string         `gorm:"column:feedback_type;size:30;not null" json:"feedbackType"`
	Response       datatypes.JSON `gorm:"type:jsonb;not null" json:"response"`
	Interpretation string         `gorm:"type:text" json:"interpretation"`
	PlanAdjusted   bool           `gorm:"column:plan_adjusted;not null;default:false" json:"planAdjusted"`
	Adjustments    datatypes.JSON `gorm:"type:jsonb" json:"adjustments,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (f *FarmFeedback) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}

// FeedbackRequest is the inbound envelope: a type tag plus the raw
// payload for that type.
type FeedbackRequest struct {
	Type     string          `json:"feedback_type"`
	Response json.RawMessage `json:"response"`
}

type WeatherConfirmation struct {
	RainOccurred  bool     `json:"rain_occurred"`
	RainAmount    *float64 `json:"rain_amount,omitempty"`
	WasForecasted bool     `json:"was_forecasted"`
}

type GrowthMilestone struct {
	ExpectedStage string `json:"expected_stage"`
	ActualStatus  string `json:"actual_status"`
	Observations  string `json:"observations,omitempty"`
}

type IssueReport struct {
	IssueType    string `json:"issue_type"`
	Description  string `json:"description"`
	Severity     string `json:"severity"`
	AffectedArea string `json:"affected_area,omitempty"`
}

type ActivityCompletion struct {
	RecommendationID string  `json:"recommendation_id"`
	Completed        bool    `json:"completed"`
	Notes            string  `json:"notes,omitempty"`
	Cost             float64 `json:"cost,omitempty"`
}

type Observation struct {
	Text      string   `json:"text"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Validate checks the envelope against the declared feedback type and
// returns the decoded payload. Nothing is persisted for an invalid
// request, so this runs before any state mutation.
func (r FeedbackRequest) Validate() (interface{}, error) {
	if len(r.Response) == 0 {
		return nil, errors.New("feedback response payload is required")
	}

	switch r.Type {
	case FeedbackWeatherConfirmation:
		var p WeatherConfirmation
		if err := json.Unmarshal(r.Response, &p); err != nil {
			return nil, fmt.Errorf("invalid weather_confirmation payload: %w", err)
		}
		return p, nil

	case FeedbackGrowthMilestone:
		var p GrowthMilestone
		if err := json.Unmarshal(r.Response, &p); err != nil {
			return nil, fmt.Errorf("invalid growth_milestone payload: %w", err)
		}
		if p.ExpectedStage == "" {
			return nil, errors.New("growth_milestone requires expected_stage")
		}
		switch p.ActualStatus {
		case GrowthOnTrack, GrowthAhead, GrowthBehind:
		default:
			return nil, fmt.Errorf("growth_milestone actual_status %q is not one of on_track/ahead/behind", p.ActualStatus)
		}
		return p, nil

	case FeedbackIssueReport:
		var p IssueReport
		if err := json.Unmarshal(r.Response, &p); err != nil {
			return nil, fmt.Errorf("invalid issue_report payload: %w", err)
		}
		if p.IssueType == "" || p.Description == "" {
			return nil, errors.New("issue_report requires issue_type and description")
		}
		return p, nil

	case FeedbackActivityCompletion:
		var p ActivityCompletion
		if err := json.Unmarshal(r.Response, &p); err != nil {
			return nil, fmt.Errorf("invalid activity_completion payload: %w", err)
		}
		if p.Cost < 0 {
			return nil, errors.New("activity_completion cost cannot be negative")
		}
		return p, nil

	case FeedbackObservation:
		var p Observation
		if err := json.Unmarshal(r.Response, &p); err != nil {
			return nil, fmt.Errorf("invalid observation payload: %w", err)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown feedback_type %q", r.Type)
	}
}
