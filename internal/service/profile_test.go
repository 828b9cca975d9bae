package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/metrics"
)

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestProfileService_Create(t *testing.T) {
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name       string
		profile    *domain.FaceProfile
		setupMocks func(*MockProfileStore)
		wantErr    error
	}{
		{
			name:    "defaults status and collection method",
			profile: &domain.FaceProfile{UserID: "user-1", FaceFeatures: "enc", QualityScore: 0.9, ExpiresTime: &future},
			setupMocks: func(m *MockProfileStore) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.FaceProfile) bool {
					return p.Status == domain.ProfileActive && p.CollectionMethod == domain.CollectionManual
				})).Return(nil)
			},
		},
		{
			name:    "duplicate user",
			profile: &domain.FaceProfile{UserID: "user-1", FaceFeatures: "enc", QualityScore: 0.9},
			setupMocks: func(m *MockProfileStore) {
				m.On("Create", mock.Anything, mock.Anything).Return(domain.ErrFaceAlreadyExists)
			},
			wantErr: domain.ErrFaceAlreadyExists,
		},
		{
			name:       "quality out of range",
			profile:    &domain.FaceProfile{UserID: "user-1", FaceFeatures: "enc", QualityScore: 1.2},
			setupMocks: func(m *MockProfileStore) {},
			wantErr:    domain.ErrInvalidParameter,
		},
		{
			name:       "expiry in the past",
			profile:    &domain.FaceProfile{UserID: "user-1", FaceFeatures: "enc", QualityScore: 0.5, ExpiresTime: &past},
			setupMocks: func(m *MockProfileStore) {},
			wantErr:    domain.ErrInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockProfileStore)
			tt.setupMocks(store)
			rec := &recordingAudit{}
			svc := NewProfileService(store).WithAudit(rec).WithClock(func() time.Time { return now })

			got, err := svc.Create(context.Background(), tt.profile)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, rec.events)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", got.UserID)
			require.Len(t, rec.events, 1)
			assert.Equal(t, audit.EventProfileCreated, rec.events[0].EventType)
			store.AssertExpectations(t)
		})
	}
}

func TestProfileService_Get(t *testing.T) {
	store := new(MockProfileStore)
	store.On("FindProfileByUserID", mock.Anything, "ghost").Return(nil, domain.ErrProfileNotFound)
	svc := NewProfileService(store)

	_, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestProfileService_ExpireProfiles(t *testing.T) {
	store := new(MockProfileStore)
	store.On("ExpireDue", mock.Anything, now).Return(int64(3), nil)
	m := metrics.New(prometheus.NewRegistry())
	rec := &recordingAudit{}
	svc := NewProfileService(store).WithMetrics(m).WithAudit(rec).WithClock(func() time.Time { return now })

	n, err := svc.ExpireProfiles(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ExpiredProfiles))
	require.Len(t, rec.events, 1)
	assert.Equal(t, "3", rec.events[0].Metadata["count"])
}

func TestProfileService_Disable(t *testing.T) {
	t.Run("disables and returns the stored profile", func(t *testing.T) {
		store := new(MockProfileStore)
		store.On("UpdateStatus", mock.Anything, "user-1", domain.ProfileDisabled).Return(nil)
		store.On("FindProfileByUserID", mock.Anything, "user-1").
			Return(&domain.FaceProfile{UserID: "user-1", Status: domain.ProfileDisabled}, nil)
		rec := &recordingAudit{}

		got, err := NewProfileService(store).WithAudit(rec).Disable(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Equal(t, domain.ProfileDisabled, got.Status)
		require.Len(t, rec.events, 1)
		assert.Equal(t, audit.EventProfileDisabled, rec.events[0].EventType)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := new(MockProfileStore)
		store.On("UpdateStatus", mock.Anything, "ghost", domain.ProfileDisabled).Return(domain.ErrProfileNotFound)

		_, err := NewProfileService(store).Disable(context.Background(), "ghost")

		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
		store.AssertNotCalled(t, "FindProfileByUserID", mock.Anything, mock.Anything)
	})

	t.Run("empty user", func(t *testing.T) {
		_, err := NewProfileService(new(MockProfileStore)).Disable(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
}
