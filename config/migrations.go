package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"farmwise/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250301_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Farm{},
					&models.DailyRecommendation{}, &models.FarmActivity{}, &models.FarmFeedback{})
			},
		},
		{
			ID: "20250422_add_farm_boundary",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("ALTER TABLE farms ADD COLUMN IF NOT EXISTS boundary jsonb").Error
			},
		},
		{
			ID: "20250518_add_replanning_flag",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.Exec("ALTER TABLE farms ADD COLUMN IF NOT EXISTS needs_replanning boolean NOT NULL DEFAULT false").Error; err != nil {
					return err
				}
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_farms_status ON farms(status)").Error
			},
		},
	})
	return m.Migrate()
}
