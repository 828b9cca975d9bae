package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperationLog tracks one business operation and its verification progress.
// State changes go through policy.Gate; the struct itself only answers questions.
type OperationLog struct {
	ID                    uuid.UUID              `json:"id"`
	UserID                string                 `json:"user_id"`
	OperationID           string                 `json:"operation_id"`
	OperationType         string                 `json:"operation_type"`
	StrategyID            *uuid.UUID             `json:"strategy_id,omitempty"`
	BusinessContext       map[string]interface{} `json:"business_context,omitempty"`
	VerificationRequired  bool                   `json:"verification_required"`
	VerificationCompleted bool                   `json:"verification_completed"`
	VerificationCount     int                    `json:"verification_count"`
	MinVerificationCount  int                    `json:"min_verification_count"`
	MinConfidence         *float64               `json:"min_confidence,omitempty"`
	MaxAttempts           int                    `json:"max_attempts,omitempty"`
	AttemptIDs            []string               `json:"-"`
	Status                OperationStatus        `json:"status"`
	FailureReason         string                 `json:"failure_reason,omitempty"`
	StartedTime           time.Time              `json:"started_time"`
	CompletedTime         *time.Time             `json:"completed_time,omitempty"`
	Version               int                    `json:"-"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// NewOperationLog returns a pending operation with the default minimum of one verification.
func NewOperationLog(userID, operationID, operationType string, now time.Time) *OperationLog {
	return &OperationLog{
		UserID:               userID,
		OperationID:          operationID,
		OperationType:        operationType,
		BusinessContext:      map[string]interface{}{},
		MinVerificationCount: 1,
		Status:               OperationPending,
		StartedTime:          now,
	}
}

// IsVerificationSatisfied is true when no verification is required, or when
// verification completed with at least MinVerificationCount attempts.
func (o *OperationLog) IsVerificationSatisfied() bool {
	if !o.VerificationRequired {
		return true
	}
	return o.VerificationCompleted && o.VerificationCount >= o.MinVerificationCount
}

// HasAttempt reports whether an attempt with this id was already counted.
// Attempts without an id are never deduplicated.
func (o *OperationLog) HasAttempt(attemptID string) bool {
	if attemptID == "" {
		return false
	}
	for _, id := range o.AttemptIDs {
		if id == attemptID {
			return true
		}
	}
	return false
}

func (o *OperationLog) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// Duration is the time between start and the terminal transition. The second
// result is false while the operation is still open.
func (o *OperationLog) Duration() (time.Duration, bool) {
	if o.CompletedTime == nil || !o.IsTerminal() {
		return 0, false
	}
	return o.CompletedTime.Sub(o.StartedTime), true
}

// DurationSeconds is Duration in whole seconds, nil while open.
func (o *OperationLog) DurationSeconds() *int64 {
	d, ok := o.Duration()
	if !ok {
		return nil
	}
	secs := int64(d / time.Second)
	return &secs
}

func (o *OperationLog) Validate() error {
	if o.UserID == "" {
		return ErrInvalidParameter.WithMessage("user_id is required")
	}
	if o.OperationID == "" {
		return ErrInvalidParameter.WithMessage("operation_id is required")
	}
	if o.OperationType == "" {
		return ErrInvalidParameter.WithMessage("operation_type is required")
	}
	if o.MinVerificationCount < 0 {
		return ErrInvalidParameter.WithMessage("min_verification_count must not be negative")
	}
	return nil
}
