package domain

import (
	"fmt"
)

// ErrorKind groups error codes by how callers are expected to react to them.
type ErrorKind string

const (
	KindGeneric            ErrorKind = "generic"
	KindConfiguration      ErrorKind = "configuration"
	KindInvalidParameter   ErrorKind = "invalid_parameter"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindCollection         ErrorKind = "collection"
	KindVerification       ErrorKind = "verification"
	KindProvider           ErrorKind = "provider"
	KindConflict           ErrorKind = "conflict"
)

// Error codes. Other systems depend on these values, never renumber them.
const (
	CodeUnknown              = 1000
	CodeInvalidParameter     = 1001
	CodeConfigurationMissing = 1002
	CodeServiceUnavailable   = 1003

	CodeFaceNotDetected    = 2001
	CodeMultipleFaces      = 2002
	CodeQualityTooLow      = 2003
	CodeInvalidImageFormat = 2004
	CodeInvalidImageSize   = 2005
	CodeFaceAlreadyExists  = 2006
	CodeCollectionFailed   = 2007

	CodeSimilarityTooLow     = 3001
	CodeProfileNotFound      = 3002
	CodeProfileExpired       = 3003
	CodeLimitExceeded        = 3004
	CodeStrategyNotFound     = 3005
	CodeVerificationTimeout  = 3006
	CodeVerificationRequired = 3007

	CodeTokenInvalid             = 4001
	CodeQuotaExceeded            = 4002
	CodeRateLimited              = 4003
	CodeProviderInvalidParameter = 4004
	CodeRequestFailed            = 4005
	CodePermissionDenied         = 4006
	CodeNetworkTimeout           = 4007
)

var defaultMessages = map[int]string{
	CodeUnknown:              "An unexpected error occurred",
	CodeInvalidParameter:     "Invalid parameter",
	CodeConfigurationMissing: "Required configuration is missing",
	CodeServiceUnavailable:   "Service temporarily unavailable",

	CodeFaceNotDetected:    "No face detected in the image",
	CodeMultipleFaces:      "Multiple faces detected, please provide an image with a single face",
	CodeQualityTooLow:      "Face image quality too low",
	CodeInvalidImageFormat: "Invalid image format",
	CodeInvalidImageSize:   "Invalid image size",
	CodeFaceAlreadyExists:  "Face profile already exists for this user",
	CodeCollectionFailed:   "Face collection failed",

	CodeSimilarityTooLow:     "Face similarity below required threshold",
	CodeProfileNotFound:      "Face profile not found",
	CodeProfileExpired:       "Face profile expired or disabled",
	CodeLimitExceeded:        "Verification attempt limit exceeded",
	CodeStrategyNotFound:     "Verification strategy not found",
	CodeVerificationTimeout:  "Verification timed out",
	CodeVerificationRequired: "Operation requires verification that has not been satisfied",

	CodeTokenInvalid:             "Provider access token invalid or expired",
	CodeQuotaExceeded:            "Provider quota exceeded",
	CodeRateLimited:              "Provider rate limit reached",
	CodeProviderInvalidParameter: "Provider rejected request parameters",
	CodeRequestFailed:            "Provider request failed",
	CodePermissionDenied:         "Provider permission denied",
	CodeNetworkTimeout:           "Provider network timeout",
}

// DefaultMessage returns the catalogue message for code.
func DefaultMessage(code int) string {
	if msg, ok := defaultMessages[code]; ok {
		return msg
	}
	return defaultMessages[CodeUnknown]
}

type AppError struct {
	Kind       ErrorKind `json:"-"`
	Code       int       `json:"code"`
	Name       string    `json:"name"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`

	// sentinel this error was derived from, so errors.Is survives WithError/WithMessage
	base *AppError
}

func newError(kind ErrorKind, code int, name string, status int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Name:       name,
		Message:    DefaultMessage(code),
		StatusCode: status,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e == t || (e.base != nil && e.base == t)
}

func (e *AppError) root() *AppError {
	if e.base != nil {
		return e.base
	}
	return e
}

func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	cp.base = e.root()
	return &cp
}

func (e *AppError) WithMessage(msg string) *AppError {
	cp := *e
	cp.Message = msg
	cp.base = e.root()
	return &cp
}

// Retryable reports whether the caller may retry with backoff. The engine never retries itself.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeServiceUnavailable, CodeRateLimited, CodeNetworkTimeout:
		return true
	}
	return false
}

// Generic errors
var (
	ErrUnknown              = newError(KindGeneric, CodeUnknown, "UNKNOWN", 500)
	ErrInvalidParameter     = newError(KindInvalidParameter, CodeInvalidParameter, "INVALID_PARAMETER", 422)
	ErrConfigurationMissing = newError(KindConfiguration, CodeConfigurationMissing, "CONFIGURATION_MISSING", 500)
	ErrServiceUnavailable   = newError(KindServiceUnavailable, CodeServiceUnavailable, "SERVICE_UNAVAILABLE", 503)

	ErrOperationNotFound = &AppError{
		Kind:       KindInvalidParameter,
		Code:       CodeInvalidParameter,
		Name:       "OPERATION_NOT_FOUND",
		Message:    "Operation not found",
		StatusCode: 404,
	}

	ErrInvalidTransition = &AppError{
		Kind:       KindInvalidParameter,
		Code:       CodeInvalidParameter,
		Name:       "INVALID_TRANSITION",
		Message:    "Operation cannot move to the requested state",
		StatusCode: 409,
	}

	ErrOperationExists = &AppError{
		Kind:       KindConflict,
		Code:       CodeInvalidParameter,
		Name:       "OPERATION_ALREADY_EXISTS",
		Message:    "Operation already exists",
		StatusCode: 409,
	}

	ErrStrategyExists = &AppError{
		Kind:       KindConflict,
		Code:       CodeInvalidParameter,
		Name:       "STRATEGY_ALREADY_EXISTS",
		Message:    "A strategy with this name already exists",
		StatusCode: 409,
	}

	ErrStrategyInUse = &AppError{
		Kind:       KindConflict,
		Code:       CodeInvalidParameter,
		Name:       "STRATEGY_IN_USE",
		Message:    "Strategy is referenced by verification records",
		StatusCode: 409,
	}

	ErrInvalidSignature = &AppError{
		Kind:       KindInvalidParameter,
		Code:       CodeInvalidParameter,
		Name:       "INVALID_SIGNATURE",
		Message:    "Callback signature is missing or invalid",
		StatusCode: 401,
	}

	ErrAttemptRecorded = &AppError{
		Kind:       KindConflict,
		Code:       CodeInvalidParameter,
		Name:       "ATTEMPT_ALREADY_RECORDED",
		Message:    "Verification attempt was already recorded",
		StatusCode: 409,
	}

	ErrConcurrentUpdate = &AppError{
		Kind:       KindConflict,
		Code:       CodeServiceUnavailable,
		Name:       "CONCURRENT_UPDATE",
		Message:    "Operation was modified concurrently, retry the request",
		StatusCode: 409,
	}
)

// Face collection errors
var (
	ErrFaceNotDetected    = newError(KindCollection, CodeFaceNotDetected, "FACE_NOT_DETECTED", 422)
	ErrMultipleFaces      = newError(KindCollection, CodeMultipleFaces, "MULTIPLE_FACES", 422)
	ErrQualityTooLow      = newError(KindCollection, CodeQualityTooLow, "QUALITY_TOO_LOW", 422)
	ErrInvalidImageFormat = newError(KindCollection, CodeInvalidImageFormat, "INVALID_IMAGE_FORMAT", 422)
	ErrInvalidImageSize   = newError(KindCollection, CodeInvalidImageSize, "INVALID_IMAGE_SIZE", 422)
	ErrFaceAlreadyExists  = newError(KindCollection, CodeFaceAlreadyExists, "FACE_ALREADY_EXISTS", 409)
	ErrCollectionFailed   = newError(KindCollection, CodeCollectionFailed, "COLLECTION_FAILED", 422)
)

// Verification errors
var (
	ErrSimilarityTooLow     = newError(KindVerification, CodeSimilarityTooLow, "SIMILARITY_TOO_LOW", 422)
	ErrProfileNotFound      = newError(KindVerification, CodeProfileNotFound, "PROFILE_NOT_FOUND", 404)
	ErrProfileExpired       = newError(KindVerification, CodeProfileExpired, "PROFILE_EXPIRED", 422)
	ErrLimitExceeded        = newError(KindVerification, CodeLimitExceeded, "LIMIT_EXCEEDED", 429)
	ErrStrategyNotFound     = newError(KindVerification, CodeStrategyNotFound, "STRATEGY_NOT_FOUND", 404)
	ErrVerificationTimeout  = newError(KindVerification, CodeVerificationTimeout, "VERIFICATION_TIMEOUT", 408)
	ErrVerificationRequired = newError(KindVerification, CodeVerificationRequired, "VERIFICATION_REQUIRED", 403)
)

// External provider errors
var (
	ErrTokenInvalid             = newError(KindProvider, CodeTokenInvalid, "TOKEN_INVALID", 502)
	ErrQuotaExceeded            = newError(KindProvider, CodeQuotaExceeded, "QUOTA_EXCEEDED", 502)
	ErrRateLimited              = newError(KindProvider, CodeRateLimited, "RATE_LIMITED", 503)
	ErrProviderInvalidParameter = newError(KindProvider, CodeProviderInvalidParameter, "PROVIDER_INVALID_PARAMETER", 422)
	ErrRequestFailed            = newError(KindProvider, CodeRequestFailed, "REQUEST_FAILED", 502)
	ErrPermissionDenied         = newError(KindProvider, CodePermissionDenied, "PERMISSION_DENIED", 502)
	ErrNetworkTimeout           = newError(KindProvider, CodeNetworkTimeout, "NETWORK_TIMEOUT", 504)
)

var errorsByCode = map[int]*AppError{
	CodeUnknown:                  ErrUnknown,
	CodeInvalidParameter:         ErrInvalidParameter,
	CodeConfigurationMissing:     ErrConfigurationMissing,
	CodeServiceUnavailable:       ErrServiceUnavailable,
	CodeFaceNotDetected:          ErrFaceNotDetected,
	CodeMultipleFaces:            ErrMultipleFaces,
	CodeQualityTooLow:            ErrQualityTooLow,
	CodeInvalidImageFormat:       ErrInvalidImageFormat,
	CodeInvalidImageSize:         ErrInvalidImageSize,
	CodeFaceAlreadyExists:        ErrFaceAlreadyExists,
	CodeCollectionFailed:         ErrCollectionFailed,
	CodeSimilarityTooLow:         ErrSimilarityTooLow,
	CodeProfileNotFound:          ErrProfileNotFound,
	CodeProfileExpired:           ErrProfileExpired,
	CodeLimitExceeded:            ErrLimitExceeded,
	CodeStrategyNotFound:         ErrStrategyNotFound,
	CodeVerificationTimeout:      ErrVerificationTimeout,
	CodeVerificationRequired:     ErrVerificationRequired,
	CodeTokenInvalid:             ErrTokenInvalid,
	CodeQuotaExceeded:            ErrQuotaExceeded,
	CodeRateLimited:              ErrRateLimited,
	CodeProviderInvalidParameter: ErrProviderInvalidParameter,
	CodeRequestFailed:            ErrRequestFailed,
	CodePermissionDenied:         ErrPermissionDenied,
	CodeNetworkTimeout:           ErrNetworkTimeout,
}

// ErrorForCode returns the catalogue error for code, or ErrUnknown for codes outside the catalogue.
func ErrorForCode(code int) *AppError {
	if e, ok := errorsByCode[code]; ok {
		return e
	}
	return ErrUnknown
}
