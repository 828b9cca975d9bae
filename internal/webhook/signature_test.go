package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		payload []byte
	}{
		{
			name:    "callback payload",
			secret:  "my-secret-key",
			payload: []byte(`{"type":"verification.result","data":{"operation_id":"op-1","result":"success"}}`),
		},
		{
			name:    "empty payload",
			secret:  "my-secret-key",
			payload: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature := Sign(tt.secret, tt.payload)
			assert.NotEmpty(t, signature)
			assert.Contains(t, signature, "sha256=")

			isValid := Verify(tt.secret, tt.payload, signature)
			assert.True(t, isValid, "signature should be valid")
		})
	}
}

func TestVerify(t *testing.T) {
	secret := "test-secret"
	payload := []byte(`{"test":"data"}`)
	validSignature := Sign(secret, payload)

	tests := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
		expected  bool
	}{
		{
			name:      "valid signature",
			secret:    secret,
			payload:   payload,
			signature: validSignature,
			expected:  true,
		},
		{
			name:      "invalid signature",
			secret:    secret,
			payload:   payload,
			signature: "sha256=invalid",
			expected:  false,
		},
		{
			name:      "wrong secret",
			secret:    "wrong-secret",
			payload:   payload,
			signature: validSignature,
			expected:  false,
		},
		{
			name:      "modified payload",
			secret:    secret,
			payload:   []byte(`{"test":"modified"}`),
			signature: validSignature,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Verify(tt.secret, tt.payload, tt.signature)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestVerifier_Check(t *testing.T) {
	secret := "callback-secret"
	payload := []byte(`{"type":"verification.result"}`)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	v := NewVerifier(secret, 5*time.Minute)
	v.now = func() time.Time { return now }

	sig, ts := SignTimestamped(secret, payload, now.Add(-time.Minute))
	assert.NoError(t, v.Check(payload, sig, ts))

	tests := []struct {
		name      string
		payload   []byte
		signature string
		timestamp string
	}{
		{"missing signature", payload, "", ts},
		{"missing timestamp", payload, sig, ""},
		{"malformed timestamp", payload, sig, "yesterday"},
		{"tampered payload", []byte(`{"type":"other"}`), sig, ts},
		{"signature without timestamp binding", payload, Sign(secret, payload), ts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, v.Check(tt.payload, tt.signature, tt.timestamp), domain.ErrInvalidSignature)
		})
	}

	t.Run("stale timestamp", func(t *testing.T) {
		oldSig, oldTS := SignTimestamped(secret, payload, now.Add(-time.Hour))
		assert.ErrorIs(t, v.Check(payload, oldSig, oldTS), domain.ErrInvalidSignature)
	})

	t.Run("zero tolerance skips the clock check", func(t *testing.T) {
		lax := NewVerifier(secret, 0)
		oldSig, oldTS := SignTimestamped(secret, payload, now.Add(-24*time.Hour))
		assert.NoError(t, lax.Check(payload, oldSig, oldTS))
	})
}
