package handler

import (
	"invest-platform/internal/adapter/http/dto"
	"invest-platform/internal/core/domain"
	"invest-platform/internal/core/ports"
	"invest-platform/pkg/apperror"
	"invest-platform/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles admin-only endpoints: pending decisions, stats,
// and the manual accrual trigger.
type AdminHandler struct {
	ledgerSvc     ports.LedgerService
	investmentSvc ports.InvestmentService
	reportingSvc  ports.ReportingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ledgerSvc ports.LedgerService, investmentSvc ports.InvestmentService, reportingSvc ports.ReportingService) *AdminHandler {
	return &AdminHandler{
		ledgerSvc:     ledgerSvc,
		investmentSvc: investmentSvc,
		reportingSvc:  reportingSvc,
	}
}

// GetStats handles GET /api/v1/admin/stats.
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.reportingSvc.GetAdminStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// ListTransactions handles GET /api/v1/admin/transactions.
// Unlike the user-facing list, this one can filter by any user.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	params := parseTransactionListParams(c)

	if u := c.Query("user_id"); u != "" {
		id, err := uuid.Parse(u)
		if err != nil {
			response.Error(c, apperror.Validation("invalid user_id"))
			return
		}
		params.UserID = &id
	}

	txns, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionListResponse(txns, total, params))
}

// ListUsers handles GET /api/v1/admin/users. Supports an optional
// case-insensitive username/email search.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := parsePagination(c)
	params := ports.UserListParams{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	users, total, err := h.reportingSvc.ListUsers(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AdminUserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.AdminUserResponse{
			User:   dto.FromUser(u.User),
			Wallet: u.Wallet,
		})
	}

	response.OK(c, dto.UserListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// ListInvestments handles GET /api/v1/admin/investments.
func (h *AdminHandler) ListInvestments(c *gin.Context) {
	page, pageSize := parsePagination(c)
	params := ports.InvestmentListParams{
		Page:     page,
		PageSize: pageSize,
	}
	if s := c.Query("status"); s != "" {
		status := domain.InvestmentStatus(s)
		params.Status = &status
	}

	invs, total, err := h.reportingSvc.ListInvestments(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.InvestmentListResponse{
		Items:      invs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// Approve handles POST /api/v1/admin/transactions/:id/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.ledgerSvc.ApproveTransaction(c.Request.Context(), txID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// Reject handles POST /api/v1/admin/transactions/:id/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.ledgerSvc.RejectTransaction(c.Request.Context(), txID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// RunAccrual handles POST /api/v1/admin/accrual/run.
// Safe to call alongside the scheduled sweep, settled days are skipped.
func (h *AdminHandler) RunAccrual(c *gin.Context) {
	report, err := h.investmentSvc.AccrueDaily(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
