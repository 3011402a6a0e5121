package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/carebridge/referral-service/internal/api/dto"
	"github.com/carebridge/referral-service/internal/service"
	"github.com/carebridge/referral-service/internal/workflow"
	apperrors "github.com/carebridge/referral-service/pkg/util"
)

const defaultAnalyticsWindow = 7 * 24 * time.Hour

// WorkflowHandler exposes stage advancement and analytics endpoints.
type WorkflowHandler struct {
	service *service.WorkflowService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(workflowService *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: workflowService}
}

// Advance POST /workflow/referrals/:id/advance.
func (h *WorkflowHandler) Advance(c *fiber.Ctx) error {
	var req dto.AdvanceRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	var (
		result *service.AdvanceResult
		err    error
	)
	if req.TargetStage != "" {
		target := workflow.Stage(req.TargetStage)
		if !target.IsValid() {
			return apperrors.NewValidationError("unknown target stage", map[string]any{"target_stage": req.TargetStage})
		}
		result, err = h.service.AdvanceTo(c.Context(), c.Params("id"), target, req.UserID)
	} else {
		result, err = h.service.Advance(c.Context(), c.Params("id"), req.UserID)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// AdvanceBatch POST /workflow/referrals/advance-batch.
func (h *WorkflowHandler) AdvanceBatch(c *fiber.Ctx) error {
	var req dto.AdvanceBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.ReferralIDs) == 0 {
		return apperrors.NewValidationError("referral_ids required", nil)
	}
	if len(req.TargetStages) > 0 && len(req.TargetStages) != len(req.ReferralIDs) {
		return apperrors.NewValidationError("target_stages must match referral_ids length", nil)
	}

	result, err := h.service.AdvanceBatch(c.Context(), req.ReferralIDs, req.TargetStages, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// GenerateAgreement POST /workflow/referrals/:id/agreement.
func (h *WorkflowHandler) GenerateAgreement(c *fiber.Ctx) error {
	result, err := h.service.GenerateServiceAgreement(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": result})
}

// Analytics GET /workflow/analytics.
func (h *WorkflowHandler) Analytics(c *fiber.Ctx) error {
	since := time.Now().Add(-defaultAnalyticsWindow)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.NewValidationError("since must be RFC3339", map[string]any{"since": raw})
		}
		since = parsed
	}

	analytics, err := h.service.Analytics(c.Context(), since)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": analytics})
}
