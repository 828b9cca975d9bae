package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

const (
	SignatureHeader = "X-Signature"
	TimestampHeader = "X-Timestamp"

	signaturePrefix = "sha256="
)

func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func Verify(secret string, payload []byte, signature string) bool {
	expectedSignature := Sign(secret, payload)
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

// SignTimestamped signs "<unix seconds>.<payload>" so a captured callback
// cannot be replayed outside the tolerance window.
func SignTimestamped(secret string, payload []byte, at time.Time) (signature, timestamp string) {
	timestamp = strconv.FormatInt(at.Unix(), 10)
	return Sign(secret, signedContent(timestamp, payload)), timestamp
}

func signedContent(timestamp string, payload []byte) []byte {
	content := make([]byte, 0, len(timestamp)+1+len(payload))
	content = append(content, timestamp...)
	content = append(content, '.')
	return append(content, payload...)
}

// Verifier checks provider callbacks.
type Verifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    secret,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Check validates the signature and timestamp headers of a callback body.
// Any failure is reported as ErrInvalidSignature.
func (v *Verifier) Check(payload []byte, signature, timestamp string) error {
	if signature == "" || timestamp == "" {
		return domain.ErrInvalidSignature
	}

	sec, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return domain.ErrInvalidSignature.WithMessage("malformed callback timestamp")
	}

	if v.tolerance > 0 {
		skew := v.now().Sub(time.Unix(sec, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > v.tolerance {
			return domain.ErrInvalidSignature.WithMessage(fmt.Sprintf("callback timestamp outside %s tolerance", v.tolerance))
		}
	}

	if !Verify(v.secret, signedContent(timestamp, payload), signature) {
		return domain.ErrInvalidSignature
	}
	return nil
}
