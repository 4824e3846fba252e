package repository

import (
	"errors"
	"symposium_backend/internal/model"

	"gorm.io/gorm"
)

type RuleRepository struct {
	DB *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{DB: db}
}

// FindEventRules 赛事级规则，不存在时返回 nil
func (r *RuleRepository) FindEventRules(eventID uint) (*model.RuleSet, error) {
	var rs model.RuleSet
	err := r.DB.Where("event_id = ? AND round_id IS NULL", eventID).Order("id DESC").First(&rs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// FindRoundRules 轮次级覆盖规则，不存在时返回 nil
func (r *RuleRepository) FindRoundRules(roundID uint) (*model.RuleSet, error) {
	var rs model.RuleSet
	err := r.DB.Where("round_id = ?", roundID).Order("id DESC").First(&rs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}
