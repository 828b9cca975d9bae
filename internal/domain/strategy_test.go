package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestVerificationStrategy_ConfigValue(t *testing.T) {
	s := &VerificationStrategy{Config: map[string]interface{}{"a": 1, "b": 2}}

	assert.Equal(t, 1, s.ConfigValue("a", nil))
	assert.Equal(t, 2, s.ConfigValue("b", nil))
	assert.Equal(t, "fallback", s.ConfigValue("missing", "fallback"))

	empty := &VerificationStrategy{}
	assert.Equal(t, 42, empty.ConfigValue("a", 42))

	empty.SetConfigValue("c", true)
	assert.Equal(t, true, empty.ConfigValue("c", false))
}

func TestVerificationStrategy_EnabledRules(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	strategyID := uuid.New()

	rules := []StrategyRule{
		{RuleName: "p5", Priority: 5, IsEnabled: true, CreatedAt: base},
		{RuleName: "p10", Priority: 10, IsEnabled: true, CreatedAt: base},
		{RuleName: "p1", Priority: 1, IsEnabled: true, CreatedAt: base},
		{RuleName: "p10-later", Priority: 10, IsEnabled: true, CreatedAt: base.Add(time.Minute)},
		{RuleName: "disabled", Priority: 100, IsEnabled: false, CreatedAt: base},
	}
	for i := range rules {
		rules[i].StrategyID = strategyID
	}

	s := &VerificationStrategy{ID: strategyID, IsEnabled: true, Rules: rules}

	got := s.EnabledRules()
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.RuleName
	}
	assert.Equal(t, []string{"p10", "p10-later", "p5", "p1"}, names)

	// The owned slice keeps its original order.
	assert.Equal(t, "p5", s.Rules[0].RuleName)

	s.IsEnabled = false
	assert.Empty(t, s.EnabledRules())
	assert.False(t, s.IsUsable())
}

func TestStrategyRule_IsUsable(t *testing.T) {
	enabled := &VerificationStrategy{IsEnabled: true}
	disabled := &VerificationStrategy{IsEnabled: false}

	r := &StrategyRule{IsEnabled: true}
	assert.True(t, r.IsUsable(enabled))
	assert.False(t, r.IsUsable(disabled))
	assert.False(t, r.IsUsable(nil))

	r.IsEnabled = false
	assert.False(t, r.IsUsable(enabled))
}

func TestSortStrategies(t *testing.T) {
	base := time.Now()
	list := []VerificationStrategy{
		{Name: "low", Priority: 1, CreatedAt: base},
		{Name: "high-new", Priority: 10, CreatedAt: base.Add(time.Hour)},
		{Name: "high-old", Priority: 10, CreatedAt: base},
	}

	SortStrategies(list)

	assert.Equal(t, "high-old", list[0].Name)
	assert.Equal(t, "high-new", list[1].Name)
	assert.Equal(t, "low", list[2].Name)
}

func TestStrategyRule_Validate(t *testing.T) {
	r := &StrategyRule{StrategyID: uuid.New(), RuleName: "big payments", RuleType: RuleTypeAmount}
	assert.NoError(t, r.Validate())

	r.RuleType = "weather"
	assert.ErrorIs(t, r.Validate(), ErrInvalidParameter)

	r.RuleType = RuleTypeAmount
	r.StrategyID = uuid.Nil
	assert.ErrorIs(t, r.Validate(), ErrInvalidParameter)
}
