package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

// Numeric codes returned by the AI face provider.
const (
	codeTokenInvalid      = 110
	codeTokenExpired      = 111
	codeDailyQuota        = 17
	codeQPSLimit          = 18
	codeTotalQPSLimit     = 19
	codeInvalidParamFirst = 216100
	codeInvalidParamLast  = 216103
	codeRequestFailed     = 216110
	codePermissionDenied  = 216200
)

// FromProviderCode maps a provider error code to the 4xxx taxonomy. Unknown
// codes become ErrRequestFailed.
func FromProviderCode(code int, message string) *domain.AppError {
	var base *domain.AppError
	switch {
	case code == codeTokenInvalid || code == codeTokenExpired:
		base = domain.ErrTokenInvalid
	case code == codeDailyQuota:
		base = domain.ErrQuotaExceeded
	case code == codeQPSLimit || code == codeTotalQPSLimit:
		base = domain.ErrRateLimited
	case code >= codeInvalidParamFirst && code <= codeInvalidParamLast:
		base = domain.ErrProviderInvalidParameter
	case code == codeRequestFailed:
		base = domain.ErrRequestFailed
	case code == codePermissionDenied:
		base = domain.ErrPermissionDenied
	default:
		base = domain.ErrRequestFailed
	}

	if message == "" {
		return base.WithMessage(fmt.Sprintf("%s (provider code %d)", base.Message, code))
	}
	return base.WithMessage(fmt.Sprintf("%s (provider code %d)", message, code))
}

// FromAWSError maps errors from AWS-style providers (Rekognition and
// friends) to the same taxonomy.
func FromAWSError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrNetworkTimeout.WithError(err)
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return domain.ErrRequestFailed.WithError(err)
	}

	switch apiErr.ErrorCode() {
	case "AccessDeniedException", "AccessDenied":
		return domain.ErrPermissionDenied.WithError(err)
	case "ThrottlingException", "ProvisionedThroughputExceededException", "TooManyRequestsException":
		return domain.ErrRateLimited.WithError(err)
	case "LimitExceededException", "ServiceQuotaExceededException":
		return domain.ErrQuotaExceeded.WithError(err)
	case "InvalidParameterException", "InvalidImageFormatException", "ImageTooLargeException", "InvalidS3ObjectException":
		return domain.ErrProviderInvalidParameter.WithError(err)
	case "UnrecognizedClientException", "InvalidSignatureException", "ExpiredTokenException":
		return domain.ErrTokenInvalid.WithError(err)
	case "RequestTimeout", "RequestTimeoutException":
		return domain.ErrNetworkTimeout.WithError(err)
	default:
		return domain.ErrRequestFailed.WithError(err)
	}
}
