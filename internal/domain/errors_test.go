package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrProfileNotFound,
			expected: "Face profile not found",
		},
		{
			name:     "error with wrapped error",
			appErr:   ErrUnknown.WithError(errors.New("underlying error")),
			expected: "An unexpected error occurred: underlying error",
		},
		{
			name:     "error with custom message",
			appErr:   ErrInvalidParameter.WithMessage("amount must be numeric"),
			expected: "amount must be numeric",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := ErrServiceUnavailable.WithError(underlying)

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrProfileNotFound.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("db connection failed")
	newErr := ErrUnknown.WithError(underlying)

	if newErr.Code != ErrUnknown.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrUnknown.Code)
	}
	if newErr.StatusCode != ErrUnknown.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrUnknown.StatusCode)
	}
	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}
	if !errors.Is(newErr, ErrUnknown) {
		t.Errorf("errors.Is should match the sentinel the error was derived from")
	}
	if ErrUnknown.Err != nil {
		t.Errorf("WithError must not mutate the sentinel")
	}
}

func TestAppError_IsKeepsSentinelIdentity(t *testing.T) {
	derived := ErrLimitExceeded.WithMessage("5 attempts used").WithError(errors.New("boom"))
	wrapped := fmt.Errorf("record attempt: %w", derived)

	if !errors.Is(wrapped, ErrLimitExceeded) {
		t.Errorf("wrapped derived error should match ErrLimitExceeded")
	}
	if errors.Is(wrapped, ErrVerificationTimeout) {
		t.Errorf("wrapped derived error should not match ErrVerificationTimeout")
	}

	// Sentinels sharing a code stay distinguishable.
	if errors.Is(ErrOperationNotFound, ErrInvalidParameter) {
		t.Errorf("ErrOperationNotFound should not match ErrInvalidParameter")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatalf("errors.As should match AppError")
	}
	if appErr.Code != CodeLimitExceeded {
		t.Errorf("Code = %v, want %v", appErr.Code, CodeLimitExceeded)
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       int
		kind       ErrorKind
		statusCode int
	}{
		{ErrUnknown, 1000, KindGeneric, 500},
		{ErrInvalidParameter, 1001, KindInvalidParameter, 422},
		{ErrConfigurationMissing, 1002, KindConfiguration, 500},
		{ErrServiceUnavailable, 1003, KindServiceUnavailable, 503},
		{ErrFaceNotDetected, 2001, KindCollection, 422},
		{ErrMultipleFaces, 2002, KindCollection, 422},
		{ErrQualityTooLow, 2003, KindCollection, 422},
		{ErrInvalidImageFormat, 2004, KindCollection, 422},
		{ErrInvalidImageSize, 2005, KindCollection, 422},
		{ErrFaceAlreadyExists, 2006, KindCollection, 409},
		{ErrCollectionFailed, 2007, KindCollection, 422},
		{ErrSimilarityTooLow, 3001, KindVerification, 422},
		{ErrProfileNotFound, 3002, KindVerification, 404},
		{ErrProfileExpired, 3003, KindVerification, 422},
		{ErrLimitExceeded, 3004, KindVerification, 429},
		{ErrStrategyNotFound, 3005, KindVerification, 404},
		{ErrVerificationTimeout, 3006, KindVerification, 408},
		{ErrVerificationRequired, 3007, KindVerification, 403},
		{ErrTokenInvalid, 4001, KindProvider, 502},
		{ErrQuotaExceeded, 4002, KindProvider, 502},
		{ErrRateLimited, 4003, KindProvider, 503},
		{ErrProviderInvalidParameter, 4004, KindProvider, 422},
		{ErrRequestFailed, 4005, KindProvider, 502},
		{ErrPermissionDenied, 4006, KindProvider, 502},
		{ErrNetworkTimeout, 4007, KindProvider, 504},
	}

	for _, tt := range tests {
		t.Run(tt.err.Name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
			if tt.err.Message == "" {
				t.Errorf("Message should default from the catalogue")
			}
			if got := ErrorForCode(tt.code); got != tt.err {
				t.Errorf("ErrorForCode(%d) = %v, want %v", tt.code, got.Name, tt.err.Name)
			}
		})
	}
}

func TestDefaultMessage_UnknownCode(t *testing.T) {
	if got := DefaultMessage(9999); got != DefaultMessage(CodeUnknown) {
		t.Errorf("DefaultMessage(9999) = %q, want unknown message", got)
	}
	if got := ErrorForCode(9999); got != ErrUnknown {
		t.Errorf("ErrorForCode(9999) = %v, want ErrUnknown", got.Name)
	}
}

func TestAppError_Retryable(t *testing.T) {
	if !ErrRateLimited.Retryable() {
		t.Errorf("rate limited should be retryable")
	}
	if !ErrNetworkTimeout.Retryable() {
		t.Errorf("network timeout should be retryable")
	}
	if ErrInvalidParameter.Retryable() {
		t.Errorf("invalid parameter should not be retryable")
	}
	if ErrLimitExceeded.Retryable() {
		t.Errorf("limit exceeded is terminal for the operation")
	}
}
