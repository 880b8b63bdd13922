package controllers

import (
	"net/http"

	"marketplace-backend/middleware"
	"marketplace-backend/models"
	"marketplace-backend/repository"
	"marketplace-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CartController handles HTTP requests for the ephemeral Redis cart. The
// cart stores product references and quantities only; GET re-prices it
// against the live catalog so clients always see current totals.
type CartController struct {
	carts   repository.CartRepository
	pricing services.PricingService
	logger  *zap.Logger
}

// NewCartController creates a new CartController.
func NewCartController(carts repository.CartRepository, pricing services.PricingService, logger *zap.Logger) *CartController {
	return &CartController{carts: carts, pricing: pricing, logger: logger}
}

// GetCart handles GET /cart. The stored lines are priced on every read.
func (cc *CartController) GetCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, err := cc.carts.GetCart(ctx.Request.Context(), userID.String())
	if err != nil {
		cc.logger.Error("Failed to load cart", zap.String("user_id", userID.String()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}
	if cart == nil || len(cart.Items) == 0 {
		ctx.JSON(http.StatusOK, gin.H{"items": []models.CartLine{}, "breakdown": nil})
		return
	}

	lines, breakdown, svcErr := cc.pricing.PriceCart(ctx.Request.Context(), userID, cart.Items, "")
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":      lines,
		"breakdown":  breakdown,
		"updated_at": cart.UpdatedAt,
	})
}

// SaveCart handles PUT /cart, replacing the stored cart wholesale.
func (cc *CartController) SaveCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.SaveCartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	cart := &models.Cart{UserID: userID.String(), Items: req.Items}
	if err := cc.carts.SaveCart(ctx.Request.Context(), cart); err != nil {
		cc.logger.Error("Failed to save cart", zap.String("user_id", userID.String()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Cart saved", "items": cart.Items})
}

// ClearCart handles DELETE /cart.
func (cc *CartController) ClearCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := cc.carts.DeleteCart(ctx.Request.Context(), userID.String()); err != nil {
		cc.logger.Error("Failed to clear cart", zap.String("user_id", userID.String()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
