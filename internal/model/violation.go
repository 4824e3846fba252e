package model

import "time"

type ViolationKind string

const (
	ViolationTabSwitch       ViolationKind = "tab-switch"
	ViolationFullscreenExit  ViolationKind = "fullscreen-exit"
	ViolationRefreshAttempt  ViolationKind = "refresh-attempt"
	ViolationShortcutBlocked ViolationKind = "shortcut-blocked"
)

func (k ViolationKind) Valid() bool {
	switch k {
	case ViolationTabSwitch, ViolationFullscreenExit, ViolationRefreshAttempt, ViolationShortcutBlocked:
		return true
	}
	return false
}

// ViolationLog 违规审计记录。Counted 为 false 表示该类违规未在规则中启用，仅做留痕。
type ViolationLog struct {
	UUIDBase

	AttemptID  string        `gorm:"index;type:varchar(36);not null" json:"attemptId"`
	Kind       ViolationKind `gorm:"size:30;not null" json:"kind"`
	Counted    bool          `json:"counted"`
	CountAfter int           `json:"countAfter"`
	OccurredAt time.Time     `json:"occurredAt"`
}

func (ViolationLog) TableName() string {
	return "attempt_violation_logs"
}
