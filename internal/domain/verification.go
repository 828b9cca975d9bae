package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VerificationRecord is the audit entry of one verification attempt. It is
// append-only apart from error annotation and client info enrichment.
type VerificationRecord struct {
	ID               uuid.UUID              `json:"id"`
	UserID           string                 `json:"user_id"`
	StrategyID       uuid.UUID              `json:"strategy_id"`
	BusinessType     string                 `json:"business_type"`
	OperationID      *string                `json:"operation_id,omitempty"`
	AttemptID        *string                `json:"attempt_id,omitempty"`
	VerificationType VerificationType       `json:"verification_type"`
	Result           VerificationResult     `json:"result"`
	ConfidenceScore  *float64               `json:"confidence_score,omitempty"`
	VerificationTime *float64               `json:"verification_time,omitempty"`
	ClientInfo       map[string]interface{} `json:"client_info,omitempty"`
	ErrorCode        *string                `json:"error_code,omitempty"`
	ErrorMessage     *string                `json:"error_message,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

func (r *VerificationRecord) IsSuccessful() bool {
	return r.Result == ResultSuccess
}

func (r *VerificationRecord) IsFailed() bool {
	return r.Result == ResultFailed
}

func (r *VerificationRecord) IsTimeout() bool {
	return r.Result == ResultTimeout
}

func (r *VerificationRecord) AnnotateError(code, message string) {
	r.ErrorCode = &code
	r.ErrorMessage = &message
}

func (r *VerificationRecord) AddClientInfo(key string, value interface{}) {
	if r.ClientInfo == nil {
		r.ClientInfo = make(map[string]interface{})
	}
	r.ClientInfo[key] = value
}

func (r *VerificationRecord) Validate() error {
	if r.UserID == "" {
		return ErrInvalidParameter.WithMessage("user_id is required")
	}
	if r.StrategyID == uuid.Nil {
		return ErrInvalidParameter.WithMessage("strategy_id is required")
	}
	if r.BusinessType == "" {
		return ErrInvalidParameter.WithMessage("business_type is required")
	}
	if !r.VerificationType.IsValid() {
		return ErrInvalidParameter.WithMessage(fmt.Sprintf("invalid verification_type %q", r.VerificationType))
	}
	if !r.Result.IsValid() {
		return ErrInvalidParameter.WithMessage(fmt.Sprintf("invalid result %q", r.Result))
	}
	if r.ConfidenceScore != nil {
		if err := ValidateScore("confidence_score", *r.ConfidenceScore); err != nil {
			return err
		}
	}
	if r.VerificationTime != nil && *r.VerificationTime < 0 {
		return ErrInvalidParameter.WithMessage("verification_time must not be negative")
	}
	return nil
}
