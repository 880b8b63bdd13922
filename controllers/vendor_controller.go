package controllers

import (
	"net/http"

	"marketplace-backend/middleware"
	"marketplace-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VendorController handles vendor profile lookups and admin approval.
type VendorController struct {
	vendorService services.VendorService
}

// NewVendorController creates a new VendorController.
func NewVendorController(vendorService services.VendorService) *VendorController {
	return &VendorController{vendorService: vendorService}
}

// GetProfile handles GET /vendors/me (vendor only). The returned record
// includes the accrued earnings balance.
func (vc *VendorController) GetProfile(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	vendor, svcErr := vc.vendorService.GetByUserID(ctx.Request.Context(), userID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"vendor": vendor})
}

// SetStatus handles PATCH /admin/vendors/:id/status (admin only).
func (vc *VendorController) SetStatus(ctx *gin.Context) {
	vendorID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=approved rejected"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	vendor, svcErr := vc.vendorService.SetStatus(ctx.Request.Context(), vendorID, req.Status)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"vendor": vendor})
}
