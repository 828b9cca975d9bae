package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/domain"
)

type StrategyService interface {
	Create(ctx context.Context, s *domain.VerificationStrategy) (*domain.VerificationStrategy, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.VerificationStrategy, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddRule(ctx context.Context, rule *domain.StrategyRule) (*domain.StrategyRule, error)
	ListByBusinessType(ctx context.Context, businessType string) ([]domain.VerificationStrategy, error)
}

type StrategyHandler struct {
	service StrategyService
}

func NewStrategyHandler(service StrategyService) *StrategyHandler {
	return &StrategyHandler{service: service}
}

type CreateStrategyRequest struct {
	Name         string                 `json:"name"`
	BusinessType string                 `json:"business_type"`
	Description  string                 `json:"description"`
	IsEnabled    *bool                  `json:"is_enabled"`
	Priority     int                    `json:"priority"`
	Config       map[string]interface{} `json:"config"`
}

type CreateRuleRequest struct {
	RuleType    domain.RuleType        `json:"rule_type"`
	RuleName    string                 `json:"rule_name"`
	Conditions  map[string]interface{} `json:"conditions"`
	Actions     map[string]interface{} `json:"actions"`
	IsEnabled   *bool                  `json:"is_enabled"`
	Priority    int                    `json:"priority"`
	Description string                 `json:"description"`
}

type StrategyListResponse struct {
	BusinessType string                        `json:"business_type"`
	Strategies   []domain.VerificationStrategy `json:"strategies"`
}

// Create POST /v1/strategies
func (h *StrategyHandler) Create(c *fiber.Ctx) error {
	var req CreateStrategyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	st, err := h.service.Create(c.UserContext(), &domain.VerificationStrategy{
		Name:         strings.TrimSpace(req.Name),
		BusinessType: strings.TrimSpace(req.BusinessType),
		Description:  req.Description,
		IsEnabled:    boolOr(req.IsEnabled, true),
		Priority:     req.Priority,
		Config:       req.Config,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(st)
}

// Get GET /v1/strategies/:id
func (h *StrategyHandler) Get(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	st, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// List GET /v1/strategies?business_type=
func (h *StrategyHandler) List(c *fiber.Ctx) error {
	businessType := strings.TrimSpace(c.Query("business_type"))

	list, err := h.service.ListByBusinessType(c.UserContext(), businessType)
	if err != nil {
		return err
	}
	return c.JSON(StrategyListResponse{BusinessType: businessType, Strategies: list})
}

// Delete DELETE /v1/strategies/:id
func (h *StrategyHandler) Delete(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddRule POST /v1/strategies/:id/rules
func (h *StrategyHandler) AddRule(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req CreateRuleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	rule, err := h.service.AddRule(c.UserContext(), &domain.StrategyRule{
		StrategyID:  id,
		RuleType:    req.RuleType,
		RuleName:    strings.TrimSpace(req.RuleName),
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		IsEnabled:   boolOr(req.IsEnabled, true),
		Priority:    req.Priority,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(rule)
}
