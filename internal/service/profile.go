package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/metrics"
)

type ProfileService struct {
	profiles ProfileStore
	audit    audit.Logger
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		audit:    &audit.NoOpLogger{},
		logger:   slog.Default(),
		now:      time.Now,
	}
}

func (s *ProfileService) WithAudit(l audit.Logger) *ProfileService {
	s.audit = l
	return s
}

func (s *ProfileService) WithMetrics(m *metrics.Metrics) *ProfileService {
	s.metrics = m
	return s
}

func (s *ProfileService) WithLogger(l *slog.Logger) *ProfileService {
	s.logger = l.With("component", "profile_service")
	return s
}

func (s *ProfileService) WithClock(now func() time.Time) *ProfileService {
	s.now = now
	return s
}

// Create enrolls a face profile. Status defaults to active.
func (s *ProfileService) Create(ctx context.Context, p *domain.FaceProfile) (*domain.FaceProfile, error) {
	if p.Status == "" {
		p.Status = domain.ProfileActive
	}
	if p.CollectionMethod == "" {
		p.CollectionMethod = domain.CollectionManual
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ExpiresTime != nil && !p.ExpiresTime.After(s.now()) {
		return nil, domain.ErrInvalidParameter.WithMessage("expires_time must be in the future")
	}

	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Event{EventType: audit.EventProfileCreated, UserID: p.UserID, Success: true})
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.FaceProfile, error) {
	if userID == "" {
		return nil, domain.ErrInvalidParameter.WithMessage("user_id is required")
	}
	return s.profiles.FindProfileByUserID(ctx, userID)
}

// Disable takes a profile out of use. Operations requiring verification are
// refused for the user until a new profile is enrolled.
func (s *ProfileService) Disable(ctx context.Context, userID string) (*domain.FaceProfile, error) {
	if userID == "" {
		return nil, domain.ErrInvalidParameter.WithMessage("user_id is required")
	}
	if err := s.profiles.UpdateStatus(ctx, userID, domain.ProfileDisabled); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Event{EventType: audit.EventProfileDisabled, UserID: userID, Success: true})
	return s.profiles.FindProfileByUserID(ctx, userID)
}

// ExpireProfiles marks every active profile past its expiry as expired.
func (s *ProfileService) ExpireProfiles(ctx context.Context) (int64, error) {
	n, err := s.profiles.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire profiles: %w", err)
	}
	if n > 0 {
		s.metrics.AddExpiredProfiles(n)
		s.logAudit(ctx, audit.Event{
			EventType: audit.EventProfileExpired,
			Success:   true,
			Metadata:  map[string]string{"count": strconv.FormatInt(n, 10)},
		})
	}
	return n, nil
}

func (s *ProfileService) logAudit(ctx context.Context, e audit.Event) {
	e.ID = uuid.New()
	e.Timestamp = s.now()
	if err := s.audit.Log(ctx, e); err != nil {
		s.logger.Warn("audit log failed", "event", e.EventType, "error", err)
	}
}
