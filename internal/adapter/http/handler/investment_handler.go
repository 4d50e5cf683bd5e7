package handler

import (
	"invest-platform/internal/adapter/http/dto"
	"invest-platform/internal/core/ports"
	"invest-platform/pkg/apperror"
	"invest-platform/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvestmentHandler handles investment plan and position endpoints.
type InvestmentHandler struct {
	investmentSvc ports.InvestmentService
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentSvc ports.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{investmentSvc: investmentSvc}
}

// ListPlans handles GET /api/v1/plans. Public, no auth required.
func (h *InvestmentHandler) ListPlans(c *gin.Context) {
	plans, err := h.investmentSvc.ListPlans(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plans)
}

// Create handles POST /api/v1/investments.
func (h *InvestmentHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid plan_id"))
		return
	}

	inv, err := h.investmentSvc.CreateInvestment(c.Request.Context(), ports.InvestmentRequest{
		UserID: userID,
		PlanID: planID,
		Amount: req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, inv)
}

// ListMine handles GET /api/v1/investments.
func (h *InvestmentHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	investments, err := h.investmentSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, investments)
}
