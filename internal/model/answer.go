package model

import (
	"time"

	"gorm.io/datatypes"
)

// Answer 作答记录，每题唯一；尝试进入终态后只允许补录人工评分
// swagger:model Answer
type Answer struct {
	UUIDBase

	AttemptID     string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_answer_attempt_question" json:"attemptId"`
	QuestionID    uint           `gorm:"not null;uniqueIndex:idx_answer_attempt_question" json:"questionId"`
	Value         datatypes.JSON `json:"value"`
	SubmittedAt   *time.Time     `json:"submittedAt,omitempty"`
	AwardedPoints *int           `json:"awardedPoints"`
	IsCorrect     *bool          `json:"isCorrect"`
	GradedBy      *uint          `json:"gradedBy,omitempty"`
	GradedAt      *time.Time     `json:"gradedAt,omitempty"`
}

func (Answer) TableName() string {
	return "attempt_answers"
}

// Answered reports whether the participant supplied a non-null value.
func (a *Answer) Answered() bool {
	if len(a.Value) == 0 {
		return false
	}
	return string(a.Value) != "null"
}

// Pending reports whether the answer awaits manual review.
func (a *Answer) Pending() bool {
	return a.AwardedPoints == nil
}

// LateAnswer 截止时间之后到达的提交，仅留存审计，不参与计分
type LateAnswer struct {
	UUIDBase

	AttemptID   string         `gorm:"index;type:varchar(36);not null" json:"attemptId"`
	QuestionID  uint           `gorm:"not null" json:"questionId"`
	Value       datatypes.JSON `json:"value"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

func (LateAnswer) TableName() string {
	return "attempt_late_answers"
}
