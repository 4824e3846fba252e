package model

// RuleSet 监考规则记录。RoundID 为空表示赛事级规则，否则为轮次级覆盖。
// 所有开关均可为空：空值表示沿用上一级配置。
// swagger:model RuleSet
type RuleSet struct {
	BaseModel

	EventID                uint    `gorm:"index;not null" json:"eventId"`
	RoundID                *uint   `gorm:"index" json:"roundId,omitempty"`
	BlockRefresh           *bool   `json:"blockRefresh,omitempty"`
	NoTabSwitch            *bool   `json:"noTabSwitch,omitempty"`
	ForceFullscreen        *bool   `json:"forceFullscreen,omitempty"`
	DisableShortcuts       *bool   `json:"disableShortcuts,omitempty"`
	AutoSubmitOnViolation  *bool   `json:"autoSubmitOnViolation,omitempty"`
	MaxWarningCount        *int    `json:"maxWarningCount,omitempty"`
	AdditionalInstructions *string `gorm:"type:text" json:"additionalInstructions,omitempty"`
}

func (RuleSet) TableName() string {
	return "rule_sets"
}

const DefaultMaxWarningCount = 2

// EffectiveRules is the resolved rule set an attempt runs under. It is
// snapshotted onto the attempt at start and never re-read afterwards.
type EffectiveRules struct {
	BlockRefresh           bool   `json:"blockRefresh"`
	NoTabSwitch            bool   `json:"noTabSwitch"`
	ForceFullscreen        bool   `json:"forceFullscreen"`
	DisableShortcuts       bool   `json:"disableShortcuts"`
	AutoSubmitOnViolation  bool   `json:"autoSubmitOnViolation"`
	MaxWarningCount        int    `json:"maxWarningCount"`
	AdditionalInstructions string `json:"additionalInstructions"`
}

func DefaultEffectiveRules() EffectiveRules {
	return EffectiveRules{
		BlockRefresh:          true,
		NoTabSwitch:           true,
		ForceFullscreen:       true,
		DisableShortcuts:      true,
		AutoSubmitOnViolation: true,
		MaxWarningCount:       DefaultMaxWarningCount,
	}
}

// KindEnabled reports whether violations of kind count toward the warning threshold.
func (r EffectiveRules) KindEnabled(kind ViolationKind) bool {
	switch kind {
	case ViolationTabSwitch:
		return r.NoTabSwitch
	case ViolationFullscreenExit:
		return r.ForceFullscreen
	case ViolationRefreshAttempt:
		return r.BlockRefresh
	case ViolationShortcutBlocked:
		return r.DisableShortcuts
	}
	return false
}

// ThresholdExceeded reports whether count warrants an automatic submission.
func (r EffectiveRules) ThresholdExceeded(count int) bool {
	return r.AutoSubmitOnViolation && count > r.MaxWarningCount
}

// WarningsRemaining is the number of further counted violations tolerated
// before an automatic submission. -1 means unlimited.
func (r EffectiveRules) WarningsRemaining(count int) int {
	if !r.AutoSubmitOnViolation {
		return -1
	}
	if left := r.MaxWarningCount - count; left > 0 {
		return left
	}
	return 0
}
