package service

import (
	"encoding/json"
	"strings"
	"symposium_backend/internal/model"
	"symposium_backend/internal/util"
	"symposium_backend/pkg/logger"

	"go.uber.org/zap"
)

// ScoringService 评分引擎。纯计算，不访问数据库。
type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// ScoreResult 一次尝试的评分结果
type ScoreResult struct {
	Answers      []model.Answer
	TotalScore   int
	MaxScore     int
	PendingCount int
}

// Grade 对轮次所有题目评分，未作答的题目补一条 0 分记录
func (s *ScoringService) Grade(attemptID string, questions []model.Question, answers []model.Answer) ScoreResult {
	byQuestion := make(map[uint]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	result := ScoreResult{Answers: make([]model.Answer, 0, len(questions))}
	for _, q := range questions {
		result.MaxScore += q.Points

		ans, ok := byQuestion[q.ID]
		if !ok {
			ans = model.Answer{AttemptID: attemptID, QuestionID: q.ID}
		}
		ans.AwardedPoints, ans.IsCorrect = GradeAnswer(q, &ans)
		if ans.AwardedPoints == nil {
			result.PendingCount++
		} else {
			result.TotalScore += *ans.AwardedPoints
		}
		result.Answers = append(result.Answers, ans)
	}
	return result
}

// Summarize 人工评分后重新汇总
func (s *ScoringService) Summarize(questions []model.Question, answers []model.Answer) ScoreResult {
	byQuestion := make(map[uint]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	result := ScoreResult{}
	for _, q := range questions {
		result.MaxScore += q.Points
		ans, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		if ans.AwardedPoints == nil {
			result.PendingCount++
			continue
		}
		result.TotalScore += *ans.AwardedPoints
		result.Answers = append(result.Answers, ans)
	}
	return result
}

// GradeAnswer 返回 (nil, nil) 表示待人工评分；未作答记 0 分
func GradeAnswer(q model.Question, ans *model.Answer) (*int, *bool) {
	if ans == nil || !ans.Answered() {
		return award(false, q.Points)
	}

	switch q.Type {
	case model.QuestionMultipleChoice:
		var v string
		if err := json.Unmarshal(ans.Value, &v); err != nil {
			return award(false, q.Points)
		}
		if q.CorrectOption == "" {
			return nil, nil
		}
		return award(v == q.CorrectOption, q.Points)

	case model.QuestionTrueFalse:
		var v bool
		if err := json.Unmarshal(ans.Value, &v); err != nil {
			return award(false, q.Points)
		}
		if q.CorrectBool == nil {
			return nil, nil
		}
		return award(v == *q.CorrectBool, q.Points)

	case model.QuestionShortAnswer:
		var v string
		if err := json.Unmarshal(ans.Value, &v); err != nil {
			return award(false, q.Points)
		}
		ref := strings.TrimSpace(q.ReferenceAnswer)
		if ref == "" {
			return nil, nil
		}
		return award(strings.EqualFold(strings.TrimSpace(v), ref), q.Points)

	case model.QuestionCoding:
		var v string
		if err := json.Unmarshal(ans.Value, &v); err != nil {
			return award(false, q.Points)
		}
		expected := strings.TrimSpace(q.ExpectedOutput)
		if !q.AutoGrade || expected == "" {
			return nil, nil
		}
		return award(strings.EqualFold(strings.TrimSpace(v), expected), q.Points)
	}

	logger.Log.Warn("No grader for question type, leaving pending",
		zap.Uint("questionId", q.ID), zap.String("type", string(q.Type)))
	return nil, nil
}

// ValidateAnswerValue 按题型校验答案格式，null 表示清空
func ValidateAnswerValue(q model.Question, raw json.RawMessage) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return util.ErrMalformedAnswer
	}
	if trimmed == "null" {
		return nil
	}
	switch q.Type {
	case model.QuestionMultipleChoice, model.QuestionShortAnswer, model.QuestionCoding:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return util.ErrMalformedAnswer
		}
	case model.QuestionTrueFalse:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return util.ErrMalformedAnswer
		}
	default:
		return util.ErrUnknownQuestion
	}
	return nil
}

func award(correct bool, points int) (*int, *bool) {
	awarded := 0
	if correct {
		awarded = points
	}
	return &awarded, &correct
}
