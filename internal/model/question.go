package model

import "gorm.io/datatypes"

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionCoding         QuestionType = "coding"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer, QuestionCoding:
		return true
	}
	return false
}

// Question is a tagged variant: Type selects which answer-key field applies.
//
//	multiple_choice -> CorrectOption (option label, case-sensitive)
//	true_false      -> CorrectBool
//	short_answer    -> ReferenceAnswer (optional, else manual review)
//	coding          -> ExpectedOutput, auto-graded only when AutoGrade is set
//
// swagger:model Question
type Question struct {
	BaseModel

	RoundID         uint                        `gorm:"index;not null" json:"roundId"`
	Type            QuestionType                `gorm:"size:30;not null" json:"type"`
	Prompt          string                      `gorm:"type:text" json:"prompt"`
	Options         datatypes.JSONSlice[string] `json:"options,omitempty"`
	CorrectOption   string                      `gorm:"size:255" json:"-"`
	CorrectBool     *bool                       `json:"-"`
	ReferenceAnswer string                      `gorm:"type:text" json:"-"`
	ExpectedOutput  string                      `gorm:"type:text" json:"-"`
	AutoGrade       bool                        `gorm:"default:false" json:"-"`
	Points          int                         `gorm:"default:0" json:"points"`
	Order           int                         `gorm:"column:sort_order;default:0" json:"order"`
}

func (Question) TableName() string {
	return "questions"
}
