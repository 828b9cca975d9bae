package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/provider"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/service"
)

type OperationService interface {
	Decide(ctx context.Context, req service.DecisionRequest) (*service.DecisionResult, error)
	BeginOperation(ctx context.Context, req service.BeginRequest) (*service.BeginResult, error)
	GetOperation(ctx context.Context, operationID string) (*domain.OperationLog, error)
	ListRecords(ctx context.Context, operationID string) ([]domain.VerificationRecord, error)
	RecordAttempt(ctx context.Context, outcome provider.Outcome) (*domain.OperationLog, error)
	Complete(ctx context.Context, operationID string) (*domain.OperationLog, error)
	Fail(ctx context.Context, operationID, reason string) (*domain.OperationLog, error)
	Cancel(ctx context.Context, operationID string) (*domain.OperationLog, error)
}

type OperationHandler struct {
	service OperationService
}

func NewOperationHandler(service OperationService) *OperationHandler {
	return &OperationHandler{service: service}
}

type AttemptRequest struct {
	AttemptID         string                    `json:"attempt_id"`
	UserID            string                    `json:"user_id"`
	Result            domain.VerificationResult `json:"result"`
	ConfidenceScore   *float64                  `json:"confidence_score"`
	VerificationTime  *float64                  `json:"verification_time"`
	ClientInfo        map[string]interface{}    `json:"client_info"`
	ProviderCode      int                       `json:"provider_code"`
	ProviderErrorCode string                    `json:"provider_error_code"`
	ProviderMessage   string                    `json:"provider_message"`
}

type FailRequest struct {
	Reason string `json:"reason"`
}

// OperationResponse adds derived fields to the stored log.
type OperationResponse struct {
	*domain.OperationLog
	VerificationSatisfied bool   `json:"verification_satisfied"`
	DurationSeconds       *int64 `json:"duration_seconds,omitempty"`
}

func newOperationResponse(op *domain.OperationLog) OperationResponse {
	return OperationResponse{
		OperationLog:          op,
		VerificationSatisfied: op.IsVerificationSatisfied(),
		DurationSeconds:       op.DurationSeconds(),
	}
}

// Decide POST /v1/decisions
func (h *OperationHandler) Decide(c *fiber.Ctx) error {
	var req service.DecisionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.BusinessType = strings.TrimSpace(req.BusinessType)

	res, err := h.service.Decide(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Begin POST /v1/operations
func (h *OperationHandler) Begin(c *fiber.Ctx) error {
	var req service.BeginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.service.BeginOperation(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"operation": newOperationResponse(res.Operation),
		"decision":  res.Decision,
	})
}

// Get GET /v1/operations/:operation_id
func (h *OperationHandler) Get(c *fiber.Ctx) error {
	op, err := h.service.GetOperation(c.UserContext(), c.Params("operation_id"))
	if err != nil {
		return err
	}
	return c.JSON(newOperationResponse(op))
}

// Records GET /v1/operations/:operation_id/records
func (h *OperationHandler) Records(c *fiber.Ctx) error {
	records, err := h.service.ListRecords(c.UserContext(), c.Params("operation_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"records": records})
}

// RecordAttempt POST /v1/operations/:operation_id/attempts
func (h *OperationHandler) RecordAttempt(c *fiber.Ctx) error {
	var req AttemptRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	op, err := h.service.RecordAttempt(c.UserContext(), provider.Outcome{
		OperationID:       c.Params("operation_id"),
		AttemptID:         req.AttemptID,
		UserID:            req.UserID,
		Result:            req.Result,
		ConfidenceScore:   req.ConfidenceScore,
		VerificationTime:  req.VerificationTime,
		ProviderCode:      req.ProviderCode,
		ProviderErrorCode: req.ProviderErrorCode,
		ProviderMessage:   req.ProviderMessage,
		ClientInfo:        req.ClientInfo,
		ReceivedAt:        time.Now(),
	})
	if err != nil {
		return err
	}
	return c.JSON(newOperationResponse(op))
}

// Complete POST /v1/operations/:operation_id/complete
func (h *OperationHandler) Complete(c *fiber.Ctx) error {
	op, err := h.service.Complete(c.UserContext(), c.Params("operation_id"))
	if err != nil {
		return err
	}
	return c.JSON(newOperationResponse(op))
}

// Fail POST /v1/operations/:operation_id/fail
func (h *OperationHandler) Fail(c *fiber.Ctx) error {
	var req FailRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	op, err := h.service.Fail(c.UserContext(), c.Params("operation_id"), strings.TrimSpace(req.Reason))
	if err != nil {
		return err
	}
	return c.JSON(newOperationResponse(op))
}

// Cancel POST /v1/operations/:operation_id/cancel
func (h *OperationHandler) Cancel(c *fiber.Ctx) error {
	op, err := h.service.Cancel(c.UserContext(), c.Params("operation_id"))
	if err != nil {
		return err
	}
	return c.JSON(newOperationResponse(op))
}
