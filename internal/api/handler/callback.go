package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/provider"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/webhook"
)

type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, outcome provider.Outcome) (*domain.OperationLog, error)
}

type SignatureChecker interface {
	Check(payload []byte, signature, timestamp string) error
}

// CallbackHandler receives signed verification results from the face provider.
type CallbackHandler struct {
	verifier SignatureChecker
	attempts AttemptRecorder
	logger   *slog.Logger
}

func NewCallbackHandler(verifier SignatureChecker, attempts AttemptRecorder, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		verifier: verifier,
		attempts: attempts,
		logger:   logger.With("component", "callback"),
	}
}

type CallbackResponse struct {
	Status      string                 `json:"status"`
	OperationID string                 `json:"operation_id"`
	State       domain.OperationStatus `json:"operation_status"`
	Code        int                    `json:"code,omitempty"`
}

// Verification POST /v1/callbacks/verification
//
// An attempt that ends the operation (attempt limit, timeout) is still
// acknowledged with 200 so the provider stops redelivering it. Redelivered
// results carrying an attempt_id that was already counted are acknowledged
// without counting them again.
func (h *CallbackHandler) Verification(c *fiber.Ctx) error {
	body := c.Body()
	if err := h.verifier.Check(body, c.Get(webhook.SignatureHeader), c.Get(webhook.TimestampHeader)); err != nil {
		h.logger.Warn("callback rejected", "ip", c.IP(), "error", err)
		return err
	}

	var payload webhook.CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.ErrInvalidParameter.WithMessage("callback body must be valid JSON").WithError(err)
	}
	if payload.Type != webhook.EventVerificationResult {
		return domain.ErrInvalidParameter.WithMessage(fmt.Sprintf("unsupported callback type %q", payload.Type))
	}

	outcome := payload.Data
	outcome.ReceivedAt = time.Now()

	op, err := h.attempts.RecordAttempt(c.UserContext(), outcome)
	if op == nil {
		return err
	}

	resp := CallbackResponse{Status: "accepted", OperationID: op.OperationID, State: op.Status}
	var appErr *domain.AppError
	switch {
	case errors.As(err, &appErr):
		resp.Code = appErr.Code
	case err != nil:
		h.logger.Error("attempt counted but not fully persisted",
			"operation_id", op.OperationID, "attempt_id", outcome.AttemptID, "error", err)
	}
	return c.JSON(resp)
}
