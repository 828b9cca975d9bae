package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

type ProfileService interface {
	Create(ctx context.Context, p *domain.FaceProfile) (*domain.FaceProfile, error)
	Get(ctx context.Context, userID string) (*domain.FaceProfile, error)
	Disable(ctx context.Context, userID string) (*domain.FaceProfile, error)
}

type ProfileHandler struct {
	service ProfileService
}

func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// CreateProfileRequest carries the provider-encrypted face features.
type CreateProfileRequest struct {
	UserID           string                 `json:"user_id"`
	FaceFeatures     string                 `json:"face_features"`
	QualityScore     float64                `json:"quality_score"`
	CollectionMethod domain.CollectionMethod `json:"collection_method"`
	DeviceInfo       map[string]interface{} `json:"device_info"`
	ExpiresTime      *time.Time             `json:"expires_time"`
}

// Create POST /v1/profiles
func (h *ProfileHandler) Create(c *fiber.Ctx) error {
	var req CreateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	profile, err := h.service.Create(c.UserContext(), &domain.FaceProfile{
		UserID:           strings.TrimSpace(req.UserID),
		FaceFeatures:     req.FaceFeatures,
		QualityScore:     req.QualityScore,
		CollectionMethod: req.CollectionMethod,
		DeviceInfo:       req.DeviceInfo,
		ExpiresTime:      req.ExpiresTime,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(profile)
}

// Get GET /v1/profiles/:user_id
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	profile, err := h.service.Get(c.UserContext(), strings.TrimSpace(c.Params("user_id")))
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// Disable POST /v1/profiles/:user_id/disable
func (h *ProfileHandler) Disable(c *fiber.Ctx) error {
	profile, err := h.service.Disable(c.UserContext(), strings.TrimSpace(c.Params("user_id")))
	if err != nil {
		return err
	}
	return c.JSON(profile)
}
