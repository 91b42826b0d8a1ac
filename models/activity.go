package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActivityStatusCompleted = "completed"
	ActivityStatusSkipped   = "skipped"
)

// FarmActivity is an append-only log entry for a completed or skipped
// action. Rows are never mutated after creation except CompletionDate.
type FarmActivity struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID uuid.UUID `gorm:"type:uuid;index;not null" json:"farmId"`

	// RecommendationID links back to the daily recommendation item this
	// activity answered, when there is one.
	RecommendationID string `gorm:"size:64" json:"recommendationId,omitempty"`

	ActivityType   string     `gorm:"column:activity_type;size:40;not null" json:"activityType"`
	Description    string     `gorm:"type:text" json:"description,omitempty"`
	Status         string     `gorm:"size:20;not null" json:"status"`
	Cost           float64    `gorm:"column:cost" json:"cost,omitempty"`
	Notes          string     `gorm:"type:text" json:"notes,omitempty"`
	CompletionDate *time.Time `gorm:"column:completion_date" json:"completionDate,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (a *FarmActivity) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
