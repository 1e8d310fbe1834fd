// Package jobs owns the background job lifecycle: a persisted state machine, a priority queue with
// starvation promotion, bounded concurrency and cooperative pause/cancel.
package jobs

import (
	"encoding/json"
	"time"
)

const (
	StatusPending    = "pending"
	StatusRunning    = "running"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
	StatusPaused     = "paused"
	StatusDeadLetter = "dead_letter"
)

// IsTerminal reports whether a job in status can never change again (rerun of dead_letter aside).
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusDeadLetter:
		return true
	default:
		return false
	}
}

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var priorityOrder = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func priorityRank(p string) int {
	for i, v := range priorityOrder {
		if v == p {
			return i
		}
	}
	return -1
}

func ValidPriority(p string) bool {
	return priorityRank(p) >= 0
}

// nextPriority is one tier above p; urgent stays urgent.
func nextPriority(p string) string {
	r := priorityRank(p)
	if r < 0 || r >= len(priorityOrder)-1 {
		return p
	}
	return priorityOrder[r+1]
}

const (
	TypeSavingsAnalysis          = "savings_analysis"
	TypeScenarioComparison       = "scenario_comparison"
	TypeRecommendationGeneration = "recommendation_generation"
)

// Progress is the detailed progress nested in job metadata.
type Progress struct {
	Total       int    `json:"total"`
	Completed   int    `json:"completed"`
	Failed      int    `json:"failed"`
	CurrentItem string `json:"current_item,omitempty"`
}

// Percent is the share of processed items, 0..100.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	done := p.Completed + p.Failed
	if done >= p.Total {
		return 100
	}
	return done * 100 / p.Total
}

type Promotion struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

// Metadata is the scheduler-managed JSON stored alongside a job.
type Metadata struct {
	Progress   Progress        `json:"progress"`
	Checkpoint json.RawMessage `json:"checkpoint,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Promotions []Promotion     `json:"promotions,omitempty"`
}

func decodeMetadata(raw []byte) Metadata {
	var m Metadata
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &m)
	}
	return m
}

func (m Metadata) encode() []byte {
	b, _ := json.Marshal(m)
	return b
}
