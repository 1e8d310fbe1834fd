package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EnhancedScenario is a saved configuration plus the summary of its latest analysis.
type EnhancedScenario struct {
	ID          string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkspaceID string  `gorm:"type:varchar(64);not null;index" json:"workspace_id"`
	GroupID     *string `gorm:"type:varchar(36);index" json:"group_id,omitempty"`
	TemplateID  *string `gorm:"type:varchar(36)" json:"template_id,omitempty"`

	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Configuration datatypes.JSON `gorm:"type:jsonb;not null" json:"configuration"`
	ProductIDs    datatypes.JSON `gorm:"type:jsonb;not null" json:"product_ids"`

	Status            string          `gorm:"type:varchar(20);not null;index;default:'draft'" json:"status"`
	LastJobID         *string         `gorm:"type:varchar(36)" json:"last_job_id,omitempty"`
	PotentialSaving   decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0" json:"potential_saving"`
	SavingsPercentage decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0" json:"savings_percentage"`
	Confidence        float64         `gorm:"not null;default:0" json:"confidence"`
	OverallRisk       string          `gorm:"type:varchar(10)" json:"overall_risk,omitempty"`
	AnalyzedAt        *time.Time      `gorm:"type:timestamptz" json:"analyzed_at,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (EnhancedScenario) TableName() string {
	return "enhanced_scenarios"
}

type ScenarioGroup struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkspaceID string    `gorm:"type:varchar(64);not null;index" json:"workspace_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (ScenarioGroup) TableName() string {
	return "scenario_groups"
}

// ScenarioTemplate is a reusable configuration that new scenarios can start from.
type ScenarioTemplate struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkspaceID   string         `gorm:"type:varchar(64);not null;index" json:"workspace_id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Configuration datatypes.JSON `gorm:"type:jsonb;not null" json:"configuration"`
	CreatedAt     time.Time      `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (ScenarioTemplate) TableName() string {
	return "scenario_templates"
}

// ScenarioComparison references scenarios by id; Result is recomputed whole by each comparison job.
type ScenarioComparison struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	WorkspaceID string         `gorm:"type:varchar(64);not null;index" json:"workspace_id"`
	Name        string         `gorm:"type:varchar(255)" json:"name"`
	ScenarioIDs datatypes.JSON `gorm:"type:jsonb;not null" json:"scenario_ids"`
	JobID       *string        `gorm:"type:varchar(36)" json:"job_id,omitempty"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Result      datatypes.JSON `gorm:"type:jsonb" json:"result,omitempty"`
	CreatedAt   time.Time      `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (ScenarioComparison) TableName() string {
	return "scenario_comparisons"
}
