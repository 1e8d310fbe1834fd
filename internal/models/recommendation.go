package models

import (
	"time"

	"gorm.io/datatypes"
)

// OptimizationRecommendation is never deleted; ArchivedAt hides it from default listings.
type OptimizationRecommendation struct {
	ID          string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkspaceID string  `gorm:"type:varchar(64);not null;index" json:"workspace_id"`
	ScenarioID  *string `gorm:"type:varchar(36);index" json:"scenario_id,omitempty"`
	ProductID   *string `gorm:"type:varchar(64);index" json:"product_id,omitempty"`
	SourceJobID *string `gorm:"type:varchar(36);index" json:"source_job_id,omitempty"`

	RecommendationType string `gorm:"type:varchar(30);not null;index" json:"recommendation_type"`
	Title              string `gorm:"type:varchar(255);not null" json:"title"`
	Description        string `gorm:"type:text" json:"description"`

	// Snapshots taken at generation time.
	ImpactAnalysis             datatypes.JSON `gorm:"type:jsonb;not null" json:"impact_analysis"`
	ImplementationRequirements datatypes.JSON `gorm:"type:jsonb;not null" json:"implementation_requirements"`

	ConfidenceScore float64 `gorm:"not null" json:"confidence_score"`
	Priority        string  `gorm:"type:varchar(10);not null;index" json:"priority"`
	Status          string  `gorm:"type:varchar(20);not null;index;default:'pending'" json:"status"`

	StatusChangedAt *time.Time `gorm:"type:timestamptz" json:"status_changed_at,omitempty"`
	ArchivedAt      *time.Time `gorm:"type:timestamptz;index" json:"archived_at,omitempty"`
	CreatedAt       time.Time  `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (OptimizationRecommendation) TableName() string {
	return "optimization_recommendations"
}
