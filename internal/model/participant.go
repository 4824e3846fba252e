package model

// Participant 参赛者身份，由报名/凭证模块维护
// swagger:model Participant
type Participant struct {
	BaseModel

	EventID     uint   `gorm:"index;not null" json:"eventId"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Email       string `gorm:"size:255" json:"email"`
	TestEnabled bool   `gorm:"default:false" json:"testEnabled"`
}

func (Participant) TableName() string {
	return "participants"
}
