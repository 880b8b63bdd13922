package controllers

import (
	"net/http"

	"marketplace-backend/middleware"
	"marketplace-backend/models"
	"marketplace-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WithdrawalController handles vendor withdrawal requests and their admin
// resolution.
type WithdrawalController struct {
	withdrawalService services.WithdrawalService
}

// NewWithdrawalController creates a new WithdrawalController.
func NewWithdrawalController(withdrawalService services.WithdrawalService) *WithdrawalController {
	return &WithdrawalController{withdrawalService: withdrawalService}
}

// RequestWithdrawal handles POST /withdrawals (vendor only).
func (wc *WithdrawalController) RequestWithdrawal(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.RequestWithdrawalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	withdrawal, svcErr := wc.withdrawalService.Request(ctx.Request.Context(), userID, &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"withdrawal": withdrawal})
}

// ListWithdrawals handles GET /withdrawals, listing the calling vendor's
// own withdrawal history.
func (wc *WithdrawalController) ListWithdrawals(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(ctx)

	withdrawals, total, svcErr := wc.withdrawalService.ListForVendor(ctx.Request.Context(), userID, page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"withdrawals": withdrawals,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// ListAllWithdrawals handles GET /admin/withdrawals (admin only), optionally
// filtered by status.
func (wc *WithdrawalController) ListAllWithdrawals(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	status := ctx.Query("status")

	withdrawals, total, svcErr := wc.withdrawalService.ListAll(ctx.Request.Context(), status, page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"withdrawals": withdrawals,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// ResolveWithdrawal handles PATCH /admin/withdrawals/:id (admin only).
func (wc *WithdrawalController) ResolveWithdrawal(ctx *gin.Context) {
	withdrawalID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid withdrawal ID"})
		return
	}

	var req models.ResolveWithdrawalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	withdrawal, svcErr := wc.withdrawalService.Resolve(ctx.Request.Context(), withdrawalID, &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"withdrawal": withdrawal})
}
