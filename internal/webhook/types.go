package webhook

import (
	"time"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/provider"
)

const EventVerificationResult = "verification.result"

// CallbackPayload is the body the face provider posts once a capture has
// been scored.
type CallbackPayload struct {
	Type      string           `json:"type"`
	Data      provider.Outcome `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}
