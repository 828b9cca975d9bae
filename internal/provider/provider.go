package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

const maxAttemptIDLength = 255

// Outcome is a verification result reported by the external face provider,
// either through the result callback or by the client that ran the capture.
type Outcome struct {
	OperationID       string                    `json:"operation_id"`
	AttemptID         string                    `json:"attempt_id,omitempty"`
	UserID            string                    `json:"user_id"`
	Result            domain.VerificationResult `json:"result"`
	ConfidenceScore   *float64                  `json:"confidence_score,omitempty"`
	VerificationTime  *float64                  `json:"verification_time,omitempty"`
	ProviderCode      int                       `json:"provider_code,omitempty"`
	ProviderMessage   string                    `json:"provider_message,omitempty"`
	ProviderErrorCode string                    `json:"provider_error_code,omitempty"`
	ClientInfo        map[string]interface{}    `json:"client_info,omitempty"`
	ReceivedAt        time.Time                 `json:"-"`
}

// Err translates the provider error into the error taxonomy, nil when the
// provider reported no error. A numeric code wins over an AWS-style string
// code when both are set.
func (o Outcome) Err() *domain.AppError {
	switch {
	case o.ProviderCode != 0:
		return FromProviderCode(o.ProviderCode, o.ProviderMessage)
	case o.ProviderErrorCode != "":
		return fromAWSCode(o.ProviderErrorCode, o.ProviderMessage)
	default:
		return nil
	}
}

func fromAWSCode(code, message string) *domain.AppError {
	err := FromAWSError(&smithy.GenericAPIError{Code: code, Message: message})

	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.ErrRequestFailed.WithError(err)
	}
	if message == "" {
		message = appErr.Message
	}
	return appErr.WithMessage(fmt.Sprintf("%s (provider code %s)", message, code))
}

func (o Outcome) Validate() error {
	if o.OperationID == "" {
		return domain.ErrInvalidParameter.WithMessage("operation_id is required")
	}
	if !o.Result.IsValid() {
		return domain.ErrInvalidParameter.WithMessage("result must be one of success, failed, skipped, timeout")
	}
	if o.ConfidenceScore != nil {
		if err := domain.ValidateScore("confidence_score", *o.ConfidenceScore); err != nil {
			return err
		}
	}
	if len(o.AttemptID) > maxAttemptIDLength {
		return domain.ErrInvalidParameter.WithMessage(fmt.Sprintf("attempt_id must be at most %d characters", maxAttemptIDLength))
	}
	if o.VerificationTime != nil && *o.VerificationTime < 0 {
		return domain.ErrInvalidParameter.WithMessage("verification_time must not be negative")
	}
	return nil
}
