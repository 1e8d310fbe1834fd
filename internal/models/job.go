package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job is one background unit of work. Status, priority and retry bookkeeping are owned by the scheduler;
// Progress and the progress part of Metadata are owned by the worker running the job.
type Job struct {
	ID       string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Type     string `gorm:"type:varchar(40);not null;index" json:"type"`
	Status   string `gorm:"type:varchar(20);not null;index;default:'pending'" json:"status"`
	Priority string `gorm:"type:varchar(10);not null;index" json:"priority"`
	// OriginalPriority is the submitted priority; Priority may be higher after starvation promotion.
	OriginalPriority string `gorm:"type:varchar(10);not null" json:"original_priority"`
	WorkspaceID      string `gorm:"type:varchar(64);index" json:"workspace_id"`

	Progress   int            `gorm:"not null;default:0" json:"progress"`
	Parameters datatypes.JSON `gorm:"type:jsonb;not null" json:"parameters"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata"`

	RetryCount int    `gorm:"not null;default:0" json:"retry_count"`
	MaxRetries int    `gorm:"not null;default:3" json:"max_retries"`
	Error      string `gorm:"type:text" json:"error"`
	ErrorCode  string `gorm:"type:varchar(40)" json:"error_code,omitempty"`

	NextRunAt   *time.Time `gorm:"type:timestamptz;index" json:"next_run_at,omitempty"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
	StartedAt   *time.Time `gorm:"type:timestamptz" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"type:timestamptz" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// JobResult is the payload of a completed job, keyed by job id.
type JobResult struct {
	JobID     string         `gorm:"type:varchar(36);primaryKey" json:"job_id"`
	Type      string         `gorm:"type:varchar(40);not null" json:"type"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt time.Time      `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (JobResult) TableName() string {
	return "job_results"
}
