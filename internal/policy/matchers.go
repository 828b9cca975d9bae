package policy

import (
	"strconv"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

// Context keys read by the built-in rule types.
const (
	CtxAmount        = "amount"
	CtxTimestamp     = "timestamp"
	CtxRiskScore     = "risk_score"
	CtxAttemptCount  = "attempt_count"
	CtxAttemptCounts = "attempt_counts"
)

// matches reports whether rule's conditions hold for evalCtx. Missing or
// malformed inputs never match.
func (e *Evaluator) matches(rule *domain.StrategyRule, evalCtx map[string]interface{}) bool {
	switch rule.RuleType {
	case domain.RuleTypeAmount:
		return matchAmount(rule, evalCtx)
	case domain.RuleTypeTime:
		return e.matchTime(rule, evalCtx)
	case domain.RuleTypeFrequency:
		return matchFrequency(rule, evalCtx)
	case domain.RuleTypeRisk:
		return matchRisk(rule, evalCtx)
	default:
		return false
	}
}

func fieldName(rule *domain.StrategyRule, def string) string {
	if f, ok := rule.Condition("field", nil).(string); ok && f != "" {
		return f
	}
	return def
}

// inRange checks value against optional min/max condition keys. At least one
// bound must be configured.
func inRange(rule *domain.StrategyRule, value float64, minKey, maxKey string) bool {
	lo, hasLo := toFloat(rule.Condition(minKey, nil))
	hi, hasHi := toFloat(rule.Condition(maxKey, nil))
	if !hasLo && !hasHi {
		return false
	}
	if hasLo && value < lo {
		return false
	}
	if hasHi && value > hi {
		return false
	}
	return true
}

func matchAmount(rule *domain.StrategyRule, evalCtx map[string]interface{}) bool {
	amount, ok := toFloat(evalCtx[fieldName(rule, CtxAmount)])
	if !ok {
		return false
	}
	return inRange(rule, amount, "min_amount", "max_amount")
}

func matchRisk(rule *domain.StrategyRule, evalCtx map[string]interface{}) bool {
	score, ok := toFloat(evalCtx[fieldName(rule, CtxRiskScore)])
	if !ok {
		return false
	}
	return inRange(rule, score, "min_score", "max_score")
}

// matchTime matches when the hour falls in [start_hour, end_hour). A start
// after the end wraps past midnight, so 22..6 covers 22:00 to 05:59.
func (e *Evaluator) matchTime(rule *domain.StrategyRule, evalCtx map[string]interface{}) bool {
	start, hasStart := toInt(rule.Condition("start_hour", nil))
	end, hasEnd := toInt(rule.Condition("end_hour", nil))
	if !hasStart || !hasEnd || start < 0 || start > 23 || end < 0 || end > 24 {
		return false
	}

	now := e.now()
	if ts, ok := toTime(evalCtx[CtxTimestamp]); ok {
		now = ts
	}
	hour := now.Hour()

	switch {
	case start == end:
		return false
	case start < end:
		return hour >= start && hour < end
	default:
		return hour >= start || hour < end
	}
}

// matchFrequency matches once the attempts seen within time_window reach
// max_attempts. Counts come from attempt_counts keyed by window seconds, or
// from attempt_count when the caller supplies a single counter.
func matchFrequency(rule *domain.StrategyRule, evalCtx map[string]interface{}) bool {
	maxAttempts, ok := toInt(rule.Condition("max_attempts", nil))
	if !ok || maxAttempts <= 0 {
		return false
	}

	count, ok := attemptCount(evalCtx, FrequencyWindow(rule))
	if !ok {
		return false
	}
	return count >= maxAttempts
}

func attemptCount(evalCtx map[string]interface{}, window int) (int, bool) {
	if window > 0 {
		switch counts := evalCtx[CtxAttemptCounts].(type) {
		case map[int]int:
			if c, ok := counts[window]; ok {
				return c, true
			}
		case map[string]interface{}:
			if c, ok := toInt(counts[strconv.Itoa(window)]); ok {
				return c, true
			}
		}
	}
	return toInt(evalCtx[CtxAttemptCount])
}

// FrequencyWindow returns the time_window (seconds) of a frequency rule, 0 when unset.
func FrequencyWindow(rule *domain.StrategyRule) int {
	w, ok := toInt(rule.Condition("time_window", nil))
	if !ok || w < 0 {
		return 0
	}
	return w
}

// FrequencyWindows lists the distinct windows used by a strategy's enabled
// frequency rules so callers can pre-compute attempt counts.
func FrequencyWindows(strategy *domain.VerificationStrategy) []int {
	if strategy == nil {
		return nil
	}
	seen := make(map[int]bool)
	var windows []int
	for _, r := range strategy.EnabledRules() {
		if r.RuleType != domain.RuleTypeFrequency {
			continue
		}
		w := FrequencyWindow(&r)
		if w > 0 && !seen[w] {
			seen[w] = true
			windows = append(windows, w)
		}
	}
	return windows
}

// FrequencyLimit is the attempt ceiling of one enabled frequency rule.
type FrequencyLimit struct {
	Window      int
	MaxAttempts int
}

// FrequencyLimits lists the window and max_attempts of every enabled
// frequency rule that sets both.
func FrequencyLimits(strategy *domain.VerificationStrategy) []FrequencyLimit {
	if strategy == nil {
		return nil
	}
	var limits []FrequencyLimit
	for _, r := range strategy.EnabledRules() {
		if r.RuleType != domain.RuleTypeFrequency {
			continue
		}
		w := FrequencyWindow(&r)
		maxAttempts, ok := toInt(r.Condition("max_attempts", nil))
		if w <= 0 || !ok || maxAttempts <= 0 {
			continue
		}
		limits = append(limits, FrequencyLimit{Window: w, MaxAttempts: maxAttempts})
	}
	return limits
}
