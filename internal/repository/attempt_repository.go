package repository

import (
	"errors"
	"symposium_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// WithTx 返回绑定到事务的仓储
func (r *AttemptRepository) WithTx(tx *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: tx}
}

func (r *AttemptRepository) Create(attempt *model.TestAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) Update(attempt *model.TestAttempt) error {
	return r.DB.Omit(clause.Associations).Save(attempt).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.TestAttempt, error) {
	var a model.TestAttempt
	if err := r.DB.First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByIDForUpdate 行级锁读取，需在事务中调用
func (r *AttemptRepository) FindByIDForUpdate(id string) (*model.TestAttempt, error) {
	var a model.TestAttempt
	if err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindActive 进行中的尝试，没有时返回 nil
func (r *AttemptRepository) FindActive(participantID, roundID uint) (*model.TestAttempt, error) {
	var a model.TestAttempt
	err := r.DB.Where("active_key = ?", model.ActiveKeyFor(participantID, roundID)).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindLatest 最近一次尝试（不限状态）
func (r *AttemptRepository) FindLatest(participantID, roundID uint) (*model.TestAttempt, error) {
	var a model.TestAttempt
	err := r.DB.Where("participant_id = ? AND round_id = ?", participantID, roundID).
		Order("started_at DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete 仅用于撤销刚创建、尚未作答的尝试
func (r *AttemptRepository) Delete(attempt *model.TestAttempt) error {
	return r.DB.Delete(attempt).Error
}

func (r *AttemptRepository) ListByRound(roundID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.DB.Where("round_id = ?", roundID).Order("started_at ASC").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListActiveByRound(roundID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.DB.Where("round_id = ? AND status = ?", roundID, model.AttemptInProgress).Find(&attempts).Error
	return attempts, err
}

// ListExpired 查找已超过截止时间但仍在进行中的尝试
func (r *AttemptRepository) ListExpired(now time.Time, limit int) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	q := r.DB.Where("status = ? AND deadline_at <= ?", model.AttemptInProgress, now).Order("deadline_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListExpiredByRound(roundID uint, now time.Time) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.DB.Where("round_id = ? AND status = ? AND deadline_at <= ?", roundID, model.AttemptInProgress, now).
		Find(&attempts).Error
	return attempts, err
}

// ListScoredByRounds 已出分的终态尝试
func (r *AttemptRepository) ListScoredByRounds(roundIDs []uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	if len(roundIDs) == 0 {
		return attempts, nil
	}
	err := r.DB.Where("round_id IN ? AND status IN ? AND total_score IS NOT NULL", roundIDs, model.TerminalStatuses).
		Order("completed_at ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) GetAnswers(attemptID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.Where("attempt_id = ?", attemptID).Order("question_id ASC").Find(&answers).Error
	return answers, err
}

func (r *AttemptRepository) FindAnswer(attemptID string, questionID uint) (*model.Answer, error) {
	var ans model.Answer
	err := r.DB.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).First(&ans).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ans, nil
}

// UpsertAnswer 每题只保留一条作答，重复提交覆盖旧值
func (r *AttemptRepository) UpsertAnswer(ans *model.Answer) error {
	existing, err := r.FindAnswer(ans.AttemptID, ans.QuestionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.DB.Create(ans).Error
	}
	existing.Value = ans.Value
	existing.SubmittedAt = ans.SubmittedAt
	if err := r.DB.Save(existing).Error; err != nil {
		return err
	}
	*ans = *existing
	return nil
}

// SaveAnswers 写回评分结果，新行（未作答题目）会被创建
func (r *AttemptRepository) SaveAnswers(answers []model.Answer) error {
	for i := range answers {
		if err := r.DB.Save(&answers[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *AttemptRepository) SaveAnswer(ans *model.Answer) error {
	return r.DB.Save(ans).Error
}

func (r *AttemptRepository) CreateLateAnswer(late *model.LateAnswer) error {
	return r.DB.Create(late).Error
}

func (r *AttemptRepository) GetLateAnswers(attemptID string) ([]model.LateAnswer, error) {
	var late []model.LateAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Order("submitted_at ASC").Find(&late).Error
	return late, err
}

func (r *AttemptRepository) CreateViolationLog(entry *model.ViolationLog) error {
	return r.DB.Create(entry).Error
}

func (r *AttemptRepository) GetViolationLogs(attemptID string) ([]model.ViolationLog, error) {
	var logs []model.ViolationLog
	err := r.DB.Where("attempt_id = ?", attemptID).Order("occurred_at ASC").Find(&logs).Error
	return logs, err
}
