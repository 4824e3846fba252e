package service

import (
	"strconv"
	"symposium_backend/internal/model"
	"symposium_backend/internal/util"
	"symposium_backend/pkg/logger"
	"symposium_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ViolationService 违规监控：计数、留痕、超阈值自动交卷
type ViolationService struct {
	Attempts *AttemptService
}

func NewViolationService(attempts *AttemptService) *ViolationService {
	return &ViolationService{Attempts: attempts}
}

type ViolationResult struct {
	Attempt           *model.TestAttempt
	Kind              model.ViolationKind
	Counted           bool
	ViolationCount    int
	WarningsRemaining int
	AutoSubmitted     bool
}

// RecordViolation 按开始时快照的规则处理一次违规，未启用的类型只留痕不计数
func (s *ViolationService) RecordViolation(attemptID string, participantID uint, kind model.ViolationKind) (*ViolationResult, error) {
	if !kind.Valid() {
		return nil, util.ErrInvalidViolationKind
	}

	var (
		result  *ViolationResult
		outcome *finalizeOutcome
		expired bool
	)
	err := s.Attempts.withAttempt(attemptID, func(tx *gorm.DB, attempt *model.TestAttempt) error {
		if participantID != 0 && attempt.ParticipantID != participantID {
			return util.ErrAttemptForbidden
		}
		if attempt.Status.IsTerminal() {
			return util.ErrAttemptAlreadyTerminal
		}

		now := s.Attempts.now()
		if attempt.Expired(now) {
			expired = true
			var err error
			outcome, err = s.Attempts.finalizeLocked(tx, attempt, model.FinalizeDeadline, "", 0)
			return err
		}

		repo := s.Attempts.AttemptRepo.WithTx(tx)
		rules := attempt.EffectiveRules()
		counted := rules.KindEnabled(kind)
		if counted {
			attempt.ViolationCount++
		}
		entry := &model.ViolationLog{
			AttemptID:  attempt.ID,
			Kind:       kind,
			Counted:    counted,
			CountAfter: attempt.ViolationCount,
			OccurredAt: now,
		}
		if err := repo.CreateViolationLog(entry); err != nil {
			return err
		}

		result = &ViolationResult{
			Attempt:           attempt,
			Kind:              kind,
			Counted:           counted,
			ViolationCount:    attempt.ViolationCount,
			WarningsRemaining: rules.WarningsRemaining(attempt.ViolationCount),
		}
		if counted && rules.ThresholdExceeded(attempt.ViolationCount) {
			var err error
			outcome, err = s.Attempts.finalizeLocked(tx, attempt, model.FinalizeViolation, "", 0)
			result.AutoSubmitted = true
			result.WarningsRemaining = 0
			return err
		}
		if counted {
			return repo.Update(attempt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Attempts.afterFinalize(outcome)
	if expired {
		return nil, util.ErrAttemptAlreadyTerminal
	}

	monitoring.ViolationsRecorded.WithLabelValues(string(kind), strconv.FormatBool(result.Counted)).Inc()
	logger.Log.Info("Violation recorded",
		zap.String("attemptId", attemptID),
		zap.String("kind", string(kind)),
		zap.Bool("counted", result.Counted),
		zap.Int("violationCount", result.ViolationCount),
		zap.Bool("autoSubmitted", result.AutoSubmitted))

	a := result.Attempt
	s.Attempts.publish(DomainEvent{
		Type:          EventViolationRecorded,
		EventID:       a.EventID,
		RoundID:       a.RoundID,
		AttemptID:     a.ID,
		ParticipantID: a.ParticipantID,
		Status:        string(a.Status),
		Payload: map[string]interface{}{
			"kind":              kind,
			"counted":           result.Counted,
			"violationCount":    result.ViolationCount,
			"warningsRemaining": result.WarningsRemaining,
			"autoSubmitted":     result.AutoSubmitted,
		},
	})
	return result, nil
}
