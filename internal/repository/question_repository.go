package repository

import (
	"symposium_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) WithTx(tx *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: tx}
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) ListByRound(roundID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("round_id = ?", roundID).Order("sort_order ASC, id ASC").Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) SumPointsByRound(roundID uint) (int, error) {
	var total int64
	err := r.DB.Model(&model.Question{}).Where("round_id = ?", roundID).
		Select("COALESCE(SUM(points), 0)").Scan(&total).Error
	return int(total), err
}
