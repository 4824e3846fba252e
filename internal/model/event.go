package model

import "time"

const (
	EventStatusDraft     = "draft"
	EventStatusActive    = "active"
	EventStatusCompleted = "completed"
)

// swagger:model Event
type Event struct {
	BaseModel

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Status      string `gorm:"size:20;default:'draft'" json:"status"`
}

func (Event) TableName() string {
	return "events"
}

type RoundStatus string

const (
	RoundDraft      RoundStatus = "draft"
	RoundInProgress RoundStatus = "in_progress"
	RoundCompleted  RoundStatus = "completed"
	RoundCancelled  RoundStatus = "cancelled"
)

func (s RoundStatus) Valid() bool {
	switch s {
	case RoundDraft, RoundInProgress, RoundCompleted, RoundCancelled:
		return true
	}
	return false
}

// swagger:model Round
type Round struct {
	BaseModel

	EventID         uint        `gorm:"index;not null" json:"eventId"`
	Title           string      `gorm:"size:255;not null" json:"title"`
	Status          RoundStatus `gorm:"size:20;default:'draft'" json:"status"`
	DurationMinutes int         `gorm:"default:0" json:"durationMinutes"`
	Order           int         `gorm:"column:sort_order;default:0" json:"order"`
}

func (Round) TableName() string {
	return "rounds"
}

// AcceptingAttempts 只有进行中的轮次才允许开始作答
func (r *Round) AcceptingAttempts() bool {
	return r.Status == RoundInProgress
}

func (r *Round) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}
