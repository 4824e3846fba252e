package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	// AttemptNotStarted is never persisted; it describes a pair with no attempt yet.
	AttemptNotStarted    AttemptStatus = "not_started"
	AttemptInProgress    AttemptStatus = "in_progress"
	AttemptCompleted     AttemptStatus = "completed"
	AttemptAutoSubmitted AttemptStatus = "auto_submitted"
	AttemptDisqualified  AttemptStatus = "disqualified"
)

func (s AttemptStatus) IsTerminal() bool {
	switch s {
	case AttemptCompleted, AttemptAutoSubmitted, AttemptDisqualified:
		return true
	}
	return false
}

var TerminalStatuses = []AttemptStatus{AttemptCompleted, AttemptAutoSubmitted, AttemptDisqualified}

type FinalizeReason string

const (
	FinalizeManual        FinalizeReason = "manual"
	FinalizeDeadline      FinalizeReason = "deadline"
	FinalizeViolation     FinalizeReason = "violation"
	FinalizeAdminOverride FinalizeReason = "admin_override"
)

func (r FinalizeReason) Valid() bool {
	switch r {
	case FinalizeManual, FinalizeDeadline, FinalizeViolation, FinalizeAdminOverride:
		return true
	}
	return false
}

// TestAttempt 参赛者在某一轮次的一次限时作答
//
// ActiveKey is "<participant>:<round>" while the attempt is in progress and
// NULL once terminal; its unique index is what keeps a single live attempt per pair.
// swagger:model TestAttempt
type TestAttempt struct {
	UUIDBase

	ParticipantID  uint                               `gorm:"index;not null" json:"participantId"`
	RoundID        uint                               `gorm:"index;not null" json:"roundId"`
	EventID        uint                               `gorm:"index;not null" json:"eventId"`
	ActiveKey      *string                            `gorm:"size:64;uniqueIndex" json:"-"`
	Status         AttemptStatus                      `gorm:"size:20;index;not null" json:"status"`
	StartedAt      time.Time                          `json:"startedAt"`
	DeadlineAt     time.Time                          `gorm:"index" json:"deadlineAt"`
	CompletedAt    *time.Time                         `json:"completedAt,omitempty"`
	ViolationCount int                                `gorm:"default:0" json:"violationCount"`
	TotalScore     *int                               `json:"totalScore,omitempty"`
	MaxScore       int                                `gorm:"default:0" json:"maxScore"`
	PendingCount   int                                `gorm:"default:0" json:"pendingCount"`
	FinalizeReason FinalizeReason                     `gorm:"size:20" json:"finalizeReason,omitempty"`
	Rules          datatypes.JSONType[EffectiveRules] `json:"rules"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

func ActiveKeyFor(participantID, roundID uint) string {
	return fmt.Sprintf("%d:%d", participantID, roundID)
}

// Expired reports whether an in-progress attempt has run past its deadline.
func (a *TestAttempt) Expired(now time.Time) bool {
	return a.Status == AttemptInProgress && !now.Before(a.DeadlineAt)
}

// RemainingSeconds is a display value only; DeadlineAt is authoritative.
func (a *TestAttempt) RemainingSeconds(now time.Time) int {
	if a.Status != AttemptInProgress {
		return 0
	}
	left := a.DeadlineAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left.Seconds())
}

func (a *TestAttempt) EffectiveRules() EffectiveRules {
	return a.Rules.Data()
}
