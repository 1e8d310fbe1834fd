package db

import (
	"landedcost/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Product{},
		&models.Job{},
		&models.JobResult{},
		&models.EnhancedScenario{},
		&models.ScenarioGroup{},
		&models.ScenarioTemplate{},
		&models.ScenarioComparison{},
		&models.OptimizationRecommendation{},
		&models.SystemSetting{},
	)
}
