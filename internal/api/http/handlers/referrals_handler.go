package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/carebridge/referral-service/internal/api/dto"
	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/service"
	apperrors "github.com/carebridge/referral-service/pkg/util"
)

// ReferralsHandler manages referral intake endpoints.
type ReferralsHandler struct {
	service *service.ReferralService
}

// NewReferralsHandler constructs handler.
func NewReferralsHandler(referralService *service.ReferralService) *ReferralsHandler {
	return &ReferralsHandler{service: referralService}
}

// CreateReferral POST /referrals.
func (h *ReferralsHandler) CreateReferral(c *fiber.Ctx) error {
	var req dto.CreateReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	referral, err := h.service.Create(c.Context(), service.ReferralCreateInput{
		ParticipantID:     req.ParticipantID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		NDISNumber:        req.NDISNumber,
		PrimaryDisability: req.PrimaryDisability,
		ServiceType:       req.ServiceType,
		UrgencyLevel:      req.UrgencyLevel,
		Notes:             req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ReferralFromDomain(referral)})
}

// GetReferral GET /referrals/:id.
func (h *ReferralsHandler) GetReferral(c *fiber.Ctx) error {
	referral, history, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	entries := make([]dto.AuditEntryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.AuditEntryFromDomain(entry))
	}
	return c.JSON(fiber.Map{"data": dto.ReferralDetailResponse{
		Referral: dto.ReferralFromDomain(referral),
		History:  entries,
	}})
}

// ListReferrals GET /referrals.
func (h *ReferralsHandler) ListReferrals(c *fiber.Ctx) error {
	referrals, err := h.service.List(c.Context(), parseReferralQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.ReferralResponse, 0, len(referrals))
	for i := range referrals {
		items = append(items, dto.ReferralFromDomain(&referrals[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseReferralQuery(c *fiber.Ctx) service.ReferralListFilter {
	filter := service.ReferralListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.WorkflowStatuses = append(filter.WorkflowStatuses, strings.TrimSpace(part))
		}
	}
	if serviceType := c.Query("service_type"); serviceType != "" {
		st := domain.ServiceType(serviceType)
		filter.ServiceType = &st
	}
	if urgency := c.Query("urgency"); urgency != "" {
		level := domain.UrgencyLevel(urgency)
		filter.UrgencyLevel = &level
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
