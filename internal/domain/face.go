package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// FaceProfile is the enrolled face of a user. FaceFeatures is an encrypted
// blob produced by the external provider and is never interpreted here.
type FaceProfile struct {
	ID               uuid.UUID              `json:"id"`
	UserID           string                 `json:"user_id"`
	FaceFeatures     string                 `json:"-"`
	QualityScore     float64                `json:"quality_score"`
	CollectionMethod CollectionMethod       `json:"collection_method"`
	DeviceInfo       map[string]interface{} `json:"device_info,omitempty"`
	Status           ProfileStatus          `json:"status"`
	ExpiresTime      *time.Time             `json:"expires_time,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// IsExpired is true once now has reached ExpiresTime. Profiles without an
// expiry never expire.
func (p *FaceProfile) IsExpired(now time.Time) bool {
	if p.ExpiresTime == nil {
		return false
	}
	return !p.ExpiresTime.After(now)
}

// IsAvailable reports whether the profile can be used for verification.
func (p *FaceProfile) IsAvailable(now time.Time) bool {
	return p.Status == ProfileActive && !p.IsExpired(now)
}

func (p *FaceProfile) Expire() {
	p.Status = ProfileExpired
}

func (p *FaceProfile) Disable() {
	p.Status = ProfileDisabled
}

// Validate checks the fields a new profile must carry.
func (p *FaceProfile) Validate() error {
	if p.UserID == "" {
		return ErrInvalidParameter.WithMessage("user_id is required")
	}
	if p.FaceFeatures == "" {
		return ErrInvalidParameter.WithMessage("face_features is required")
	}
	if err := ValidateScore("quality_score", p.QualityScore); err != nil {
		return err
	}
	if !p.CollectionMethod.IsValid() {
		return ErrInvalidParameter.WithMessage(fmt.Sprintf("invalid collection_method %q", p.CollectionMethod))
	}
	if !p.Status.IsValid() {
		return ErrInvalidParameter.WithMessage(fmt.Sprintf("invalid status %q", p.Status))
	}
	return nil
}

// ValidateScore accepts scores in the closed range [0, 1].
func ValidateScore(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return ErrInvalidParameter.WithMessage(fmt.Sprintf("%s must be between 0 and 1", name))
	}
	return nil
}
