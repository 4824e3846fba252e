package service

import (
	"errors"
	"symposium_backend/internal/model"
	"symposium_backend/internal/repository"
	"symposium_backend/internal/util"

	"gorm.io/gorm"
)

// RuleService 规则解析：轮次级非空字段优先，其次赛事级，最后默认值
type RuleService struct {
	EventRepo *repository.EventRepository
	RuleRepo  *repository.RuleRepository
}

func NewRuleService(eventRepo *repository.EventRepository, ruleRepo *repository.RuleRepository) *RuleService {
	return &RuleService{
		EventRepo: eventRepo,
		RuleRepo:  ruleRepo,
	}
}

// ResolveRules 返回轮次的生效规则。只有找不到所属赛事时才返回 ErrRulesNotFound。
func (s *RuleService) ResolveRules(roundID uint) (model.EffectiveRules, error) {
	round, err := s.EventRepo.FindRound(roundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.EffectiveRules{}, util.ErrRulesNotFound
		}
		return model.EffectiveRules{}, err
	}
	return s.ResolveForRound(round)
}

func (s *RuleService) ResolveForRound(round *model.Round) (model.EffectiveRules, error) {
	if _, err := s.EventRepo.FindEvent(round.EventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.EffectiveRules{}, util.ErrRulesNotFound
		}
		return model.EffectiveRules{}, err
	}

	eventRules, err := s.RuleRepo.FindEventRules(round.EventID)
	if err != nil {
		return model.EffectiveRules{}, err
	}
	roundRules, err := s.RuleRepo.FindRoundRules(round.ID)
	if err != nil {
		return model.EffectiveRules{}, err
	}
	return MergeRules(eventRules, roundRules), nil
}

func MergeRules(eventRules, roundRules *model.RuleSet) model.EffectiveRules {
	rules := model.DefaultEffectiveRules()
	for _, rs := range []*model.RuleSet{eventRules, roundRules} {
		if rs == nil {
			continue
		}
		if rs.BlockRefresh != nil {
			rules.BlockRefresh = *rs.BlockRefresh
		}
		if rs.NoTabSwitch != nil {
			rules.NoTabSwitch = *rs.NoTabSwitch
		}
		if rs.ForceFullscreen != nil {
			rules.ForceFullscreen = *rs.ForceFullscreen
		}
		if rs.DisableShortcuts != nil {
			rules.DisableShortcuts = *rs.DisableShortcuts
		}
		if rs.AutoSubmitOnViolation != nil {
			rules.AutoSubmitOnViolation = *rs.AutoSubmitOnViolation
		}
		if rs.MaxWarningCount != nil && *rs.MaxWarningCount >= 0 {
			rules.MaxWarningCount = *rs.MaxWarningCount
		}
		if rs.AdditionalInstructions != nil {
			rules.AdditionalInstructions = *rs.AdditionalInstructions
		}
	}
	return rules
}
