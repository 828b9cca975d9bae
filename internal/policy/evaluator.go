package policy

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

// Well-known action and strategy config keys.
const (
	KeyRequireVerification  = "require_verification"
	KeyMinConfidence        = "min_confidence"
	KeyMinVerificationCount = "min_verification_count"
	KeyMaxAttempts          = "max_attempts"
	KeyBlockDuration        = "block_duration"
)

// BoolMerge decides how require_verification combines across matched rules.
type BoolMerge string

const (
	// BoolMergeAny requires verification when any matched rule requires it.
	BoolMergeAny BoolMerge = "any"
	// BoolMergeFirst takes the value from the first matched rule that sets it.
	BoolMergeFirst BoolMerge = "first"
)

// ThresholdMerge decides how numeric actions combine across matched rules.
type ThresholdMerge string

const (
	// ThresholdMergeStrictest keeps the strictest value: the maximum for floors
	// (min_confidence, min_verification_count, block_duration) and the minimum
	// for max_attempts.
	ThresholdMergeStrictest ThresholdMerge = "strictest"
	// ThresholdMergeFirst keeps the first matched rule's value.
	ThresholdMergeFirst ThresholdMerge = "first"
)

type MergePolicy struct {
	Bool      BoolMerge
	Threshold ThresholdMerge
}

func DefaultMergePolicy() MergePolicy {
	return MergePolicy{Bool: BoolMergeAny, Threshold: ThresholdMergeStrictest}
}

// ParseMergePolicy validates configured merge names.
func ParseMergePolicy(boolMerge, thresholdMerge string) (MergePolicy, error) {
	p := MergePolicy{Bool: BoolMerge(boolMerge), Threshold: ThresholdMerge(thresholdMerge)}
	switch p.Bool {
	case BoolMergeAny, BoolMergeFirst:
	default:
		return MergePolicy{}, domain.ErrConfigurationMissing.WithMessage(fmt.Sprintf("unknown bool merge policy %q", boolMerge))
	}
	switch p.Threshold {
	case ThresholdMergeStrictest, ThresholdMergeFirst:
	default:
		return MergePolicy{}, domain.ErrConfigurationMissing.WithMessage(fmt.Sprintf("unknown threshold merge policy %q", thresholdMerge))
	}
	return p, nil
}

// Decision is the combined outcome of a strategy baseline and its matched rules.
//
// BlockDuration is advisory: it is merged and returned to the caller, which
// decides whether and how long to block the user. Operations do not store it.
type Decision struct {
	RequireVerification  bool                   `json:"require_verification"`
	MinConfidence        *float64               `json:"min_confidence,omitempty"`
	MinVerificationCount *int                   `json:"min_verification_count,omitempty"`
	MaxAttempts          *int                   `json:"max_attempts,omitempty"`
	BlockDuration        *int                   `json:"block_duration,omitempty"`
	ExtraFlags           map[string]interface{} `json:"extra_flags,omitempty"`
	MatchedRules         []uuid.UUID            `json:"matched_rules,omitempty"`
}

// NoRequirement is the decision when no strategy governs the business type.
func NoRequirement() Decision {
	return Decision{ExtraFlags: map[string]interface{}{}}
}

type Evaluator struct {
	merge MergePolicy
	now   func() time.Time
}

type EvaluatorOption func(*Evaluator)

func WithMergePolicy(p MergePolicy) EvaluatorOption {
	return func(e *Evaluator) {
		e.merge = p
	}
}

// WithClock sets the clock used by time rules when the context carries no timestamp.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		e.now = now
	}
}

func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		merge: DefaultMergePolicy(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate applies strategy's enabled rules to evalCtx. A nil strategy yields
// NoRequirement. Rules that do not match contribute nothing.
func (e *Evaluator) Evaluate(strategy *domain.VerificationStrategy, evalCtx map[string]interface{}) Decision {
	if strategy == nil || !strategy.IsUsable() {
		return NoRequirement()
	}
	if evalCtx == nil {
		evalCtx = map[string]interface{}{}
	}

	d := baseline(strategy)
	seen := make(map[string]bool)

	for _, rule := range strategy.EnabledRules() {
		if !e.matches(&rule, evalCtx) {
			continue
		}
		d.MatchedRules = append(d.MatchedRules, rule.ID)
		e.apply(&d, &rule, seen)
	}

	return d
}

func baseline(s *domain.VerificationStrategy) Decision {
	d := NoRequirement()
	if v, ok := toBool(s.ConfigValue(KeyRequireVerification, nil)); ok {
		d.RequireVerification = v
	}
	if v, ok := toFloat(s.ConfigValue(KeyMinConfidence, nil)); ok {
		d.MinConfidence = &v
	}
	if v, ok := toInt(s.ConfigValue(KeyMinVerificationCount, nil)); ok {
		d.MinVerificationCount = &v
	}
	if v, ok := toInt(s.ConfigValue(KeyMaxAttempts, nil)); ok && v > 0 {
		d.MaxAttempts = &v
	}
	return d
}

// apply merges one matched rule's actions into d. seen records which keys a
// previous matched rule already set.
func (e *Evaluator) apply(d *Decision, rule *domain.StrategyRule, seen map[string]bool) {
	for key, raw := range rule.Actions {
		switch key {
		case KeyRequireVerification:
			v, ok := toBool(raw)
			if !ok {
				continue
			}
			if e.merge.Bool == BoolMergeFirst {
				if !seen[key] {
					d.RequireVerification = v
				}
			} else {
				d.RequireVerification = d.RequireVerification || v
			}
		case KeyMinConfidence:
			v, ok := toFloat(raw)
			if !ok {
				continue
			}
			if e.takeThreshold(seen[key], d.MinConfidence == nil || v > *d.MinConfidence) {
				d.MinConfidence = &v
			}
		case KeyMinVerificationCount:
			v, ok := toInt(raw)
			if !ok {
				continue
			}
			if e.takeThreshold(seen[key], d.MinVerificationCount == nil || v > *d.MinVerificationCount) {
				d.MinVerificationCount = &v
			}
		case KeyBlockDuration:
			v, ok := toInt(raw)
			if !ok {
				continue
			}
			if e.takeThreshold(seen[key], d.BlockDuration == nil || v > *d.BlockDuration) {
				d.BlockDuration = &v
			}
		case KeyMaxAttempts:
			v, ok := toInt(raw)
			if !ok || v <= 0 {
				continue
			}
			if e.takeThreshold(seen[key], d.MaxAttempts == nil || v < *d.MaxAttempts) {
				d.MaxAttempts = &v
			}
		default:
			if _, exists := d.ExtraFlags[key]; !exists {
				d.ExtraFlags[key] = raw
			}
		}
		seen[key] = true
	}
}

// takeThreshold reports whether a matched rule's value replaces the current
// one. Under first-wins the first matched rule overrides the baseline and
// later rules are ignored.
func (e *Evaluator) takeThreshold(alreadySet, stricter bool) bool {
	if e.merge.Threshold == ThresholdMergeFirst {
		return !alreadySet
	}
	return stricter
}
