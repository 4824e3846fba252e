package repository

import (
	"symposium_backend/internal/model"

	"gorm.io/gorm"
)

type ParticipantRepository struct {
	DB *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

func (r *ParticipantRepository) FindByID(id uint) (*model.Participant, error) {
	var p model.Participant
	if err := r.DB.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByIDs 批量查询，返回以 ID 为键的映射
func (r *ParticipantRepository) FindByIDs(ids []uint) (map[uint]model.Participant, error) {
	result := make(map[uint]model.Participant, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var participants []model.Participant
	if err := r.DB.Where("id IN ?", ids).Find(&participants).Error; err != nil {
		return nil, err
	}
	for _, p := range participants {
		result[p.ID] = p
	}
	return result, nil
}
