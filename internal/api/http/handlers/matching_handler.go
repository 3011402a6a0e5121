package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carebridge/referral-service/internal/api/dto"
	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/service"
	apperrors "github.com/carebridge/referral-service/pkg/util"
)

// MatchingHandler exposes staff matching endpoints.
type MatchingHandler struct {
	service *service.MatchingService
}

// NewMatchingHandler constructs handler.
func NewMatchingHandler(matchingService *service.MatchingService) *MatchingHandler {
	return &MatchingHandler{service: matchingService}
}

// MatchParticipant POST /matching/participants/:id/matches.
func (h *MatchingHandler) MatchParticipant(c *fiber.Ctx) error {
	var req dto.MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ServiceType == "" {
		return apperrors.NewValidationError("service_type required", nil)
	}

	result, err := h.service.MatchParticipant(c.Context(), c.Params("id"), domain.ServiceRequirements{
		ServiceType:        req.ServiceType,
		UrgencyLevel:       req.UrgencyLevel,
		PreferredLanguages: req.PreferredLanguages,
		PreferredGender:    req.PreferredGender,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
