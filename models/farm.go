package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Farm statuses. Farms are never hard-deleted by the lifecycle core;
// anything other than "active" drops the farm out of daily generation.
const (
	FarmStatusActive    = "active"
	FarmStatusPaused    = "paused"
	FarmStatusHarvested = "harvested"
	FarmStatusArchived  = "archived"
)

// Farm is the aggregate root for crop-lifecycle tracking: one crop, one
// location, one owner, one planting.
type Farm struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;index;not null" json:"ownerId"`

	Name      string  `gorm:"size:120;not null" json:"name"`
	Location  string  `gorm:"size:160" json:"location,omitempty"`
	Latitude  float64 `gorm:"column:latitude" json:"latitude"`
	Longitude float64 `gorm:"column:longitude" json:"longitude"`
	SizeAcres float64 `gorm:"column:size_acres" json:"sizeAcres,omitempty"`

	// Optional field boundary polygon, validated at create/update time.
	Boundary datatypes.JSON `gorm:"column:boundary;type:jsonb" json:"boundary,omitempty"`

	// Crop is matched case-insensitively against the stage and duration
	// tables. PlantingDate is immutable once set.
	Crop                string   `gorm:"size:60;not null" json:"crop"`
	PlantingDate        DateOnly `gorm:"column:planting_date;type:date;not null" json:"plantingDate"`
	ExpectedHarvestDate DateOnly `gorm:"column:expected_harvest_date;type:date;not null" json:"expectedHarvestDate"`
	CurrentGrowthStage  string   `gorm:"column:current_growth_stage;size:80" json:"currentGrowthStage"`

	Budget      float64 `gorm:"column:budget" json:"budget"`
	BudgetSpent float64 `gorm:"column:budget_spent;not null;default:0" json:"budgetSpent"`

	Status          string     `gorm:"size:20;not null;default:active" json:"status"`
	NeedsReplanning bool       `gorm:"column:needs_replanning;not null;default:false" json:"needsReplanning"`
	LastActivityAt  *time.Time `gorm:"column:last_activity_at" json:"lastActivityAt,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (f *Farm) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}
