package dto

import (
	"encoding/json"
	"symposium_backend/internal/model"
	"symposium_backend/pkg/logger"
	"time"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

type SubmitAnswerRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

type ViolationRequest struct {
	Kind string `json:"kind" binding:"required,violation_kind"`
}

type FinalizeRequest struct {
	Reason string `json:"reason" binding:"required,finalize_reason"`
}

type OverrideRequest struct {
	Status string `json:"status" binding:"omitempty,terminal_status"`
	Note   string `json:"note"`
}

type GradeAnswerRequest struct {
	Points    *int  `json:"points" binding:"required"`
	IsCorrect *bool `json:"isCorrect"`
}

type RoundStatusRequest struct {
	Status string `json:"status" binding:"required,round_status"`
}

// AttemptResponse 尝试视图。RemainingSeconds 仅供展示，以 DeadlineAt 为准。
type AttemptResponse struct {
	ID               string               `json:"id"`
	ParticipantID    uint                 `json:"participantId"`
	RoundID          uint                 `json:"roundId"`
	EventID          uint                 `json:"eventId"`
	Status           string               `json:"status"`
	StartedAt        time.Time            `json:"startedAt"`
	DeadlineAt       time.Time            `json:"deadlineAt"`
	CompletedAt      *time.Time           `json:"completedAt,omitempty"`
	ViolationCount   int                  `json:"violationCount"`
	TotalScore       *int                 `json:"totalScore,omitempty"`
	MaxScore         int                  `json:"maxScore"`
	PendingCount     int                  `json:"pendingCount"`
	FinalizeReason   string               `json:"finalizeReason,omitempty"`
	RuleSnapshot     model.EffectiveRules `json:"rules"`
	RemainingSeconds int                  `json:"remainingSeconds"`
	AnswerList       []AnswerResponse     `json:"answers,omitempty"`
}

type AnswerResponse struct {
	ID            string          `json:"id"`
	QuestionID    uint            `json:"questionId"`
	RawValue      json.RawMessage `json:"value,omitempty"`
	SubmittedAt   *time.Time      `json:"submittedAt,omitempty"`
	AwardedPoints *int            `json:"awardedPoints"`
	IsCorrect     *bool           `json:"isCorrect"`
}

func NewAttemptResponse(attempt *model.TestAttempt, now time.Time) AttemptResponse {
	var resp AttemptResponse
	if err := copier.Copy(&resp, attempt); err != nil {
		logger.Log.Warn("Copy attempt response failed", zap.String("attemptId", attempt.ID), zap.Error(err))
	}
	resp.ID = attempt.ID
	resp.Status = string(attempt.Status)
	resp.FinalizeReason = string(attempt.FinalizeReason)
	resp.RuleSnapshot = attempt.EffectiveRules()
	resp.RemainingSeconds = attempt.RemainingSeconds(now)
	return resp
}

func NewAnswerResponse(ans *model.Answer) AnswerResponse {
	var resp AnswerResponse
	if err := copier.Copy(&resp, ans); err != nil {
		logger.Log.Warn("Copy answer response failed", zap.String("answerId", ans.ID), zap.Error(err))
	}
	resp.ID = ans.ID
	if ans.Answered() {
		resp.RawValue = json.RawMessage(ans.Value)
	}
	return resp
}

func NewAnswerList(answers []model.Answer) []AnswerResponse {
	list := make([]AnswerResponse, 0, len(answers))
	for i := range answers {
		list = append(list, NewAnswerResponse(&answers[i]))
	}
	return list
}

type AnswerSubmitResponse struct {
	Ignored bool            `json:"ignored"`
	Answer  *AnswerResponse `json:"answer,omitempty"`
	Attempt AttemptResponse `json:"attempt"`
}

type ViolationResponse struct {
	Kind              string          `json:"kind"`
	Counted           bool            `json:"counted"`
	ViolationCount    int             `json:"violationCount"`
	WarningsRemaining int             `json:"warningsRemaining"`
	AutoSubmitted     bool            `json:"autoSubmitted"`
	Attempt           AttemptResponse `json:"attempt"`
}
