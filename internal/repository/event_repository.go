package repository

import (
	"symposium_backend/internal/model"

	"gorm.io/gorm"
)

// EventRepository 读取赛事与轮次（由赛事管理模块维护）
type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{DB: tx}
}

func (r *EventRepository) FindEvent(id uint) (*model.Event, error) {
	var e model.Event
	if err := r.DB.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) FindRound(id uint) (*model.Round, error) {
	var round model.Round
	if err := r.DB.First(&round, id).Error; err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *EventRepository) ListRoundsByEvent(eventID uint) ([]model.Round, error) {
	var rounds []model.Round
	err := r.DB.Where("event_id = ?", eventID).Order("sort_order ASC, id ASC").Find(&rounds).Error
	return rounds, err
}

func (r *EventRepository) UpdateRoundStatus(roundID uint, status model.RoundStatus) error {
	return r.DB.Model(&model.Round{}).Where("id = ?", roundID).Update("status", status).Error
}
