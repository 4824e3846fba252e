package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"symposium_backend/internal/model"
	"symposium_backend/internal/repository"
	"symposium_backend/internal/util"
	"symposium_backend/pkg/keylock"
	"symposium_backend/pkg/logger"
	"symposium_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	sweepBatchSize = 500
	notifyTimeout  = 5 * time.Second
	archiveTimeout = 30 * time.Second
)

// AttemptService 管理尝试的生命周期：开始、作答、结束、过期自愈
//
// 同一尝试上的修改先拿进程内 keylock，再在事务里加行锁读取。
// 通知与归档只在事务提交、锁释放之后执行。
type AttemptService struct {
	DB              *gorm.DB
	AttemptRepo     *repository.AttemptRepository
	EventRepo       *repository.EventRepository
	ParticipantRepo *repository.ParticipantRepository
	QuestionRepo    *repository.QuestionRepository
	Rules           *RuleService
	Scoring         *ScoringService
	Notifier        Publisher
	Archive         *ArchiveService

	locks *keylock.KeyLock
	now   func() time.Time
}

func NewAttemptService(
	db *gorm.DB,
	attemptRepo *repository.AttemptRepository,
	eventRepo *repository.EventRepository,
	participantRepo *repository.ParticipantRepository,
	questionRepo *repository.QuestionRepository,
	rules *RuleService,
	scoring *ScoringService,
	notifier Publisher,
	archive *ArchiveService,
) *AttemptService {
	return &AttemptService{
		DB:              db,
		AttemptRepo:     attemptRepo,
		EventRepo:       eventRepo,
		ParticipantRepo: participantRepo,
		QuestionRepo:    questionRepo,
		Rules:           rules,
		Scoring:         scoring,
		Notifier:        notifier,
		Archive:         archive,
		locks:           keylock.New(),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Now 服务时钟，截止判断只以它为准
func (s *AttemptService) Now() time.Time {
	return s.now()
}

func attemptLockKey(attemptID string) string {
	return "attempt:" + attemptID
}

func startLockKey(participantID, roundID uint) string {
	return fmt.Sprintf("start:%d:%d", participantID, roundID)
}

type StartResult struct {
	Attempt *model.TestAttempt
	Resumed bool
}

// AnswerResult Ignored 为 true 表示截止后到达，只写入迟到记录
type AnswerResult struct {
	Attempt *model.TestAttempt
	Answer  *model.Answer
	Ignored bool
}

type AttemptDetail struct {
	Attempt          *model.TestAttempt
	Answers          []model.Answer
	RemainingSeconds int
}

// finalizeOutcome 事务提交后需要执行的收尾工作
type finalizeOutcome struct {
	attempt *model.TestAttempt
	answers []model.Answer
	reason  model.FinalizeReason
	actorID uint
}

// StartAttempt 开始或恢复作答；已有终态尝试时连同 ErrAttemptAlreadyTerminal 一起返回
func (s *AttemptService) StartAttempt(participantID, roundID uint) (*StartResult, error) {
	key := startLockKey(participantID, roundID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	participant, err := s.ParticipantRepo.FindByID(participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrParticipantNotFound
		}
		return nil, err
	}
	round, err := s.EventRepo.FindRound(roundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrRoundNotFound
		}
		return nil, err
	}
	if participant.EventID != round.EventID {
		return nil, util.ErrTestNotEnabled
	}

	existing, err := s.AttemptRepo.FindLatest(participantID, roundID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status.IsTerminal() {
			return &StartResult{Attempt: existing, Resumed: true}, util.ErrAttemptAlreadyTerminal
		}
		if existing.Expired(s.now()) {
			healed, _, err := s.finalize(existing.ID, 0, model.FinalizeDeadline, "", 0)
			if err != nil {
				return nil, err
			}
			return &StartResult{Attempt: healed, Resumed: true}, util.ErrAttemptAlreadyTerminal
		}
		return &StartResult{Attempt: existing, Resumed: true}, nil
	}

	if !round.AcceptingAttempts() {
		return nil, util.ErrRoundNotAcceptingAttempts
	}
	if !participant.TestEnabled {
		return nil, util.ErrTestNotEnabled
	}
	if round.DurationMinutes <= 0 {
		return nil, util.ErrRoundMisconfigured
	}

	rules, err := s.Rules.ResolveForRound(round)
	if err != nil {
		return nil, err
	}
	maxScore, err := s.QuestionRepo.SumPointsByRound(roundID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	activeKey := model.ActiveKeyFor(participantID, roundID)
	attempt := &model.TestAttempt{
		ParticipantID: participantID,
		RoundID:       roundID,
		EventID:       round.EventID,
		ActiveKey:     &activeKey,
		Status:        model.AttemptInProgress,
		StartedAt:     now,
		DeadlineAt:    now.Add(round.Duration()),
		MaxScore:      maxScore,
		Rules:         datatypes.NewJSONType(rules),
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		// 其他实例抢先创建时唯一索引冲突，返回胜出的那条
		winner, findErr := s.AttemptRepo.FindActive(participantID, roundID)
		if findErr == nil && winner != nil {
			return &StartResult{Attempt: winner, Resumed: true}, nil
		}
		return nil, err
	}

	// 创建后复核轮次状态：SetRoundStatus 可能在读取轮次之后、创建之前关闭了轮次
	current, err := s.EventRepo.FindRound(roundID)
	if err != nil {
		return nil, err
	}
	if !current.AcceptingAttempts() {
		if err := s.discard(attempt.ID); err != nil {
			return nil, err
		}
		return nil, util.ErrRoundNotAcceptingAttempts
	}

	monitoring.AttemptsStarted.Inc()
	logger.Log.Info("Attempt started",
		zap.String("attemptId", attempt.ID),
		zap.Uint("participantId", participantID),
		zap.Uint("roundId", roundID),
		zap.Time("deadlineAt", attempt.DeadlineAt))

	s.publish(DomainEvent{
		Type:          EventAttemptStarted,
		EventID:       attempt.EventID,
		RoundID:       attempt.RoundID,
		AttemptID:     attempt.ID,
		ParticipantID: attempt.ParticipantID,
		Status:        string(attempt.Status),
		Payload:       map[string]interface{}{"deadlineAt": attempt.DeadlineAt},
	})
	return &StartResult{Attempt: attempt}, nil
}

// GetAttempt 读取尝试；已过期的进行中尝试会先被结束
func (s *AttemptService) GetAttempt(attemptID string, participantID uint) (*model.TestAttempt, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if participantID != 0 && attempt.ParticipantID != participantID {
		return nil, util.ErrAttemptForbidden
	}
	if attempt.Expired(s.now()) {
		healed, _, err := s.finalize(attempt.ID, 0, model.FinalizeDeadline, "", 0)
		if err != nil {
			return nil, err
		}
		return healed, nil
	}
	return attempt, nil
}

func (s *AttemptService) GetAttemptDetail(attemptID string, participantID uint) (*AttemptDetail, error) {
	attempt, err := s.GetAttempt(attemptID, participantID)
	if err != nil {
		return nil, err
	}
	answers, err := s.AttemptRepo.GetAnswers(attempt.ID)
	if err != nil {
		return nil, err
	}
	return &AttemptDetail{
		Attempt:          attempt,
		Answers:          answers,
		RemainingSeconds: attempt.RemainingSeconds(s.now()),
	}, nil
}

// CurrentAttempt 未开始时返回 nil
func (s *AttemptService) CurrentAttempt(participantID, roundID uint) (*model.TestAttempt, error) {
	attempt, err := s.AttemptRepo.FindLatest(participantID, roundID)
	if err != nil || attempt == nil {
		return nil, err
	}
	if attempt.Expired(s.now()) {
		healed, _, err := s.finalize(attempt.ID, 0, model.FinalizeDeadline, "", 0)
		return healed, err
	}
	return attempt, nil
}

// SubmitAnswer 写入或覆盖单题答案，截止后到达的只记为迟到答案
func (s *AttemptService) SubmitAnswer(attemptID string, participantID, questionID uint, value json.RawMessage) (*AnswerResult, error) {
	result := &AnswerResult{}
	var outcome *finalizeOutcome

	err := s.withAttempt(attemptID, func(tx *gorm.DB, attempt *model.TestAttempt) error {
		if participantID != 0 && attempt.ParticipantID != participantID {
			return util.ErrAttemptForbidden
		}
		question, err := s.QuestionRepo.WithTx(tx).FindByID(questionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUnknownQuestion
			}
			return err
		}
		if question.RoundID != attempt.RoundID {
			return util.ErrUnknownQuestion
		}
		if err := ValidateAnswerValue(*question, value); err != nil {
			return err
		}

		repo := s.AttemptRepo.WithTx(tx)
		now := s.now()
		result.Attempt = attempt

		if attempt.Status.IsTerminal() && attempt.FinalizeReason != model.FinalizeDeadline {
			return util.ErrAttemptAlreadyTerminal
		}
		if attempt.Status.IsTerminal() || !now.Before(attempt.DeadlineAt) {
			late := &model.LateAnswer{
				AttemptID:   attempt.ID,
				QuestionID:  questionID,
				Value:       datatypes.JSON(value),
				SubmittedAt: now,
			}
			if err := repo.CreateLateAnswer(late); err != nil {
				return err
			}
			result.Ignored = true
			if attempt.Status == model.AttemptInProgress {
				outcome, err = s.finalizeLocked(tx, attempt, model.FinalizeDeadline, "", 0)
				return err
			}
			return nil
		}

		ans := &model.Answer{
			AttemptID:   attempt.ID,
			QuestionID:  questionID,
			Value:       datatypes.JSON(value),
			SubmittedAt: &now,
		}
		if err := repo.UpsertAnswer(ans); err != nil {
			return err
		}
		result.Answer = ans
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Ignored {
		monitoring.LateAnswers.Inc()
		logger.Log.Info("Late answer ignored",
			zap.String("attemptId", attemptID),
			zap.Uint("questionId", questionID))
	}
	s.afterFinalize(outcome)
	return result, nil
}

// SubmitAttempt 参赛者主动交卷
func (s *AttemptService) SubmitAttempt(attemptID string, participantID uint) (*model.TestAttempt, error) {
	attempt, _, err := s.finalize(attemptID, participantID, model.FinalizeManual, "", 0)
	return attempt, err
}

// Finalize 结束尝试；已是终态时原样返回
func (s *AttemptService) Finalize(attemptID string, reason model.FinalizeReason) (*model.TestAttempt, error) {
	if !reason.Valid() {
		return nil, util.ErrInvalidFinalizeReason
	}
	attempt, _, err := s.finalize(attemptID, 0, reason, "", 0)
	return attempt, err
}

// Override 管理员强制结束。已结束的尝试不会被改写。
func (s *AttemptService) Override(attemptID string, status model.AttemptStatus, adminID uint) (*model.TestAttempt, bool, error) {
	if status == "" {
		status = model.AttemptDisqualified
	}
	if !status.IsTerminal() {
		return nil, false, util.ErrInvalidOverrideStatus
	}
	return s.finalize(attemptID, 0, model.FinalizeAdminOverride, status, adminID)
}

// GradeAnswer 人工评分，只允许对已结束尝试中待评的答案操作。
// isCorrect 为空时按是否得满分判断。
func (s *AttemptService) GradeAnswer(attemptID string, questionID uint, points int, isCorrect *bool, graderID uint) (*model.TestAttempt, *model.Answer, error) {
	var (
		graded  *model.Answer
		updated *model.TestAttempt
	)
	err := s.withAttempt(attemptID, func(tx *gorm.DB, attempt *model.TestAttempt) error {
		if !attempt.Status.IsTerminal() {
			return util.ErrAttemptNotTerminal
		}
		question, err := s.QuestionRepo.WithTx(tx).FindByID(questionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUnknownQuestion
			}
			return err
		}
		if question.RoundID != attempt.RoundID {
			return util.ErrUnknownQuestion
		}

		repo := s.AttemptRepo.WithTx(tx)
		ans, err := repo.FindAnswer(attempt.ID, questionID)
		if err != nil {
			return err
		}
		if ans == nil || !ans.Pending() {
			return util.ErrAnswerNotPending
		}

		if points < 0 {
			points = 0
		}
		if points > question.Points {
			points = question.Points
		}
		correct := points >= question.Points
		if isCorrect != nil {
			correct = *isCorrect
		}
		now := s.now()
		ans.AwardedPoints = &points
		ans.IsCorrect = &correct
		ans.GradedBy = &graderID
		ans.GradedAt = &now
		if err := repo.SaveAnswer(ans); err != nil {
			return err
		}

		questions, err := s.QuestionRepo.WithTx(tx).ListByRound(attempt.RoundID)
		if err != nil {
			return err
		}
		answers, err := repo.GetAnswers(attempt.ID)
		if err != nil {
			return err
		}
		summary := s.Scoring.Summarize(questions, answers)
		attempt.TotalScore = &summary.TotalScore
		attempt.PendingCount = summary.PendingCount
		if err := repo.Update(attempt); err != nil {
			return err
		}
		graded = ans
		updated = attempt
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Log.Info("Answer graded manually",
		zap.String("attemptId", attemptID),
		zap.Uint("questionId", questionID),
		zap.Int("points", points),
		zap.Uint("graderId", graderID))
	s.publish(DomainEvent{
		Type:          EventResultsUpdated,
		EventID:       updated.EventID,
		RoundID:       updated.RoundID,
		AttemptID:     updated.ID,
		ParticipantID: updated.ParticipantID,
		Status:        string(updated.Status),
		Payload:       scorePayload(updated),
	})
	return updated, graded, nil
}

// ListRoundAttempts 管理端查看轮次下所有尝试，读取前先结束已过期的
func (s *AttemptService) ListRoundAttempts(roundID uint) ([]model.TestAttempt, error) {
	if _, err := s.EventRepo.FindRound(roundID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrRoundNotFound
		}
		return nil, err
	}
	if err := s.HealRounds([]uint{roundID}); err != nil {
		return nil, err
	}
	return s.AttemptRepo.ListByRound(roundID)
}

// SetRoundStatus 修改轮次状态，离开进行中状态时按截止结束所有进行中的尝试
func (s *AttemptService) SetRoundStatus(roundID uint, status model.RoundStatus) (*model.Round, int, error) {
	if !status.Valid() {
		return nil, 0, util.ErrInvalidRoundStatus
	}
	round, err := s.EventRepo.FindRound(roundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, util.ErrRoundNotFound
		}
		return nil, 0, err
	}
	if err := s.EventRepo.UpdateRoundStatus(roundID, status); err != nil {
		return nil, 0, err
	}
	previous := round.Status
	round.Status = status

	closed := 0
	if status != model.RoundInProgress {
		active, err := s.AttemptRepo.ListActiveByRound(roundID)
		if err != nil {
			return nil, 0, err
		}
		for _, a := range active {
			_, finalized, err := s.finalize(a.ID, 0, model.FinalizeDeadline, "", 0)
			if errors.Is(err, util.ErrAttemptNotFound) {
				// 已被并发的 StartAttempt 撤销
				continue
			}
			if err != nil {
				logger.Log.Error("Failed to close attempt on round status change",
					zap.String("attemptId", a.ID), zap.Error(err))
				continue
			}
			if finalized {
				closed++
			}
		}
	}

	logger.Log.Info("Round status changed",
		zap.Uint("roundId", roundID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.Int("closedAttempts", closed))
	s.publish(DomainEvent{
		Type:    EventRoundStatusChanged,
		EventID: round.EventID,
		RoundID: round.ID,
		Status:  string(status),
		Payload: map[string]interface{}{"previous": previous, "closedAttempts": closed},
	})
	return round, closed, nil
}

// SweepExpired 结束已过期的尝试，返回本次结束的数量
func (s *AttemptService) SweepExpired() (int, error) {
	expired, err := s.AttemptRepo.ListExpired(s.now(), sweepBatchSize)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, a := range expired {
		_, finalized, err := s.finalize(a.ID, 0, model.FinalizeDeadline, "", 0)
		if err != nil {
			logger.Log.Error("Sweep finalize failed", zap.String("attemptId", a.ID), zap.Error(err))
			continue
		}
		if finalized {
			closed++
		}
	}
	return closed, nil
}

// HealRounds 结束给定轮次中已过期的尝试，供排行榜等读取路径使用
func (s *AttemptService) HealRounds(roundIDs []uint) error {
	now := s.now()
	for _, roundID := range roundIDs {
		expired, err := s.AttemptRepo.ListExpiredByRound(roundID, now)
		if err != nil {
			return err
		}
		for _, a := range expired {
			if _, _, err := s.finalize(a.ID, 0, model.FinalizeDeadline, "", 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *AttemptService) withAttempt(attemptID string, fn func(tx *gorm.DB, attempt *model.TestAttempt) error) error {
	key := attemptLockKey(attemptID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		attempt, err := s.AttemptRepo.WithTx(tx).FindByIDForUpdate(attemptID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrAttemptNotFound
			}
			return err
		}
		return fn(tx, attempt)
	})
}

// discard 撤销仍在进行中的新建尝试；已被结束的保持原样
func (s *AttemptService) discard(attemptID string) error {
	err := s.withAttempt(attemptID, func(tx *gorm.DB, attempt *model.TestAttempt) error {
		if attempt.Status != model.AttemptInProgress {
			return nil
		}
		return s.AttemptRepo.WithTx(tx).Delete(attempt)
	})
	if errors.Is(err, util.ErrAttemptNotFound) {
		return nil
	}
	if err == nil {
		logger.Log.Info("Attempt discarded, round closed during start", zap.String("attemptId", attemptID))
	}
	return err
}

// finalize 第二个返回值表示本次调用是否完成了状态转换
func (s *AttemptService) finalize(attemptID string, participantID uint, reason model.FinalizeReason, status model.AttemptStatus, actorID uint) (*model.TestAttempt, bool, error) {
	var (
		outcome *finalizeOutcome
		result  *model.TestAttempt
	)
	err := s.withAttempt(attemptID, func(tx *gorm.DB, attempt *model.TestAttempt) error {
		if participantID != 0 && attempt.ParticipantID != participantID {
			return util.ErrAttemptForbidden
		}
		result = attempt
		var err error
		outcome, err = s.finalizeLocked(tx, attempt, reason, status, actorID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	s.afterFinalize(outcome)
	return result, outcome != nil, nil
}

// finalizeLocked 在事务内评分并结束；已是终态时返回 nil
func (s *AttemptService) finalizeLocked(tx *gorm.DB, attempt *model.TestAttempt, reason model.FinalizeReason, status model.AttemptStatus, actorID uint) (*finalizeOutcome, error) {
	if attempt.Status.IsTerminal() {
		return nil, nil
	}
	if status == "" {
		status = statusForReason(reason)
	}

	repo := s.AttemptRepo.WithTx(tx)
	questions, err := s.QuestionRepo.WithTx(tx).ListByRound(attempt.RoundID)
	if err != nil {
		return nil, err
	}
	answers, err := repo.GetAnswers(attempt.ID)
	if err != nil {
		return nil, err
	}
	score := s.Scoring.Grade(attempt.ID, questions, answers)
	if err := repo.SaveAnswers(score.Answers); err != nil {
		return nil, err
	}

	now := s.now()
	completedAt := now
	// 截止结束的尝试以截止时间作为提交时间
	if reason == model.FinalizeDeadline && now.After(attempt.DeadlineAt) {
		completedAt = attempt.DeadlineAt
	}
	attempt.Status = status
	attempt.FinalizeReason = reason
	attempt.CompletedAt = &completedAt
	attempt.ActiveKey = nil
	attempt.TotalScore = &score.TotalScore
	attempt.MaxScore = score.MaxScore
	attempt.PendingCount = score.PendingCount
	if err := repo.Update(attempt); err != nil {
		return nil, err
	}

	return &finalizeOutcome{
		attempt: attempt,
		answers: score.Answers,
		reason:  reason,
		actorID: actorID,
	}, nil
}

func statusForReason(reason model.FinalizeReason) model.AttemptStatus {
	switch reason {
	case model.FinalizeViolation:
		return model.AttemptAutoSubmitted
	case model.FinalizeAdminOverride:
		return model.AttemptDisqualified
	}
	return model.AttemptCompleted
}

func (s *AttemptService) afterFinalize(o *finalizeOutcome) {
	if o == nil {
		return
	}
	a := o.attempt
	monitoring.AttemptsFinalized.WithLabelValues(string(o.reason), string(a.Status)).Inc()

	fields := []zap.Field{
		zap.String("attemptId", a.ID),
		zap.Uint("participantId", a.ParticipantID),
		zap.Uint("roundId", a.RoundID),
		zap.String("status", string(a.Status)),
		zap.String("reason", string(o.reason)),
		zap.Int("totalScore", *a.TotalScore),
		zap.Int("pendingCount", a.PendingCount),
	}
	evtType := EventAttemptFinalized
	if o.reason == model.FinalizeAdminOverride {
		evtType = EventAttemptOverridden
		fields = append(fields, zap.Uint("adminId", o.actorID))
	}
	logger.Log.Info("Attempt finalized", fields...)

	s.publish(DomainEvent{
		Type:          evtType,
		EventID:       a.EventID,
		RoundID:       a.RoundID,
		AttemptID:     a.ID,
		ParticipantID: a.ParticipantID,
		Status:        string(a.Status),
		Reason:        string(o.reason),
		Payload:       scorePayload(a),
	})
	s.archive(o)
}

func (s *AttemptService) archive(o *finalizeOutcome) {
	if s.Archive == nil || !s.Archive.Enabled {
		return
	}
	late, err := s.AttemptRepo.GetLateAnswers(o.attempt.ID)
	if err != nil {
		logger.Log.Error("Archive: load late answers failed", zap.String("attemptId", o.attempt.ID), zap.Error(err))
	}
	violations, err := s.AttemptRepo.GetViolationLogs(o.attempt.ID)
	if err != nil {
		logger.Log.Error("Archive: load violations failed", zap.String("attemptId", o.attempt.ID), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	url, err := s.Archive.Archive(ctx, &AttemptArchive{
		Attempt:     *o.attempt,
		Answers:     o.answers,
		LateAnswers: late,
		Violations:  violations,
		ArchivedAt:  s.now(),
	})
	if err != nil {
		logger.Log.Error("Attempt archive failed", zap.String("attemptId", o.attempt.ID), zap.Error(err))
		return
	}
	logger.Log.Debug("Attempt archived", zap.String("attemptId", o.attempt.ID), zap.String("url", url))
}

func (s *AttemptService) publish(evt DomainEvent) {
	publishEvent(s.Notifier, evt, s.now())
}

func publishEvent(p Publisher, evt DomainEvent, at time.Time) {
	if p == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = at
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := p.Publish(ctx, evt); err != nil {
		monitoring.NotifierMessages.WithLabelValues(string(evt.Type), "error").Inc()
		logger.Log.Warn("Notify failed", zap.String("type", string(evt.Type)), zap.Error(err))
	}
}

func scorePayload(a *model.TestAttempt) map[string]interface{} {
	payload := map[string]interface{}{
		"maxScore":       a.MaxScore,
		"pendingCount":   a.PendingCount,
		"violationCount": a.ViolationCount,
	}
	if a.TotalScore != nil {
		payload["totalScore"] = *a.TotalScore
	}
	return payload
}
