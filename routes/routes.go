package routes

import (
	"marketplace-backend/controllers"
	"marketplace-backend/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the full HTTP surface. All routes except the Stripe
// webhook and the health probe sit behind the gateway identity middleware.
func RegisterRoutes(
	r *gin.Engine,
	cartCtrl *controllers.CartController,
	checkoutCtrl *controllers.CheckoutController,
	couponCtrl *controllers.CouponController,
	orderCtrl *controllers.OrderController,
	withdrawalCtrl *controllers.WithdrawalController,
	vendorCtrl *controllers.VendorController,
	webhookCtrl *controllers.WebhookController,
) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "healthy"})
	})

	// Stripe webhook (no auth; authenticated by signature)
	r.POST("/webhooks/stripe", webhookCtrl.StripeWebhook)

	cart := r.Group("/cart")
	cart.Use(middleware.AuthMiddleware())
	cart.GET("", cartCtrl.GetCart)
	cart.PUT("", cartCtrl.SaveCart)
	cart.DELETE("", cartCtrl.ClearCart)

	checkout := r.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware())
	checkout.POST("/intent", checkoutCtrl.CreateIntent)

	coupons := r.Group("/coupons")
	coupons.Use(middleware.AuthMiddleware())
	coupons.POST("/validate", couponCtrl.ValidateCoupon)
	coupons.GET("/:code", couponCtrl.GetCoupon)

	orders := r.Group("/orders")
	orders.Use(middleware.AuthMiddleware())
	orders.GET("", orderCtrl.GetUserOrders)
	orders.GET("/:id", orderCtrl.GetOrder)

	vendors := r.Group("/vendors")
	vendors.Use(middleware.AuthMiddleware(), middleware.VendorOnly())
	vendors.GET("/me", vendorCtrl.GetProfile)

	withdrawals := r.Group("/withdrawals")
	withdrawals.Use(middleware.AuthMiddleware(), middleware.VendorOnly())
	withdrawals.POST("", withdrawalCtrl.RequestWithdrawal)
	withdrawals.GET("", withdrawalCtrl.ListWithdrawals)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	admin.POST("/coupons", couponCtrl.CreateCoupon)
	admin.GET("/coupons", couponCtrl.ListCoupons)
	admin.DELETE("/coupons/:code", couponCtrl.DeactivateCoupon)
	admin.GET("/orders", orderCtrl.GetAllOrders)
	admin.PATCH("/orders/:id/status", orderCtrl.UpdateStatus)
	admin.GET("/withdrawals", withdrawalCtrl.ListAllWithdrawals)
	admin.PATCH("/withdrawals/:id", withdrawalCtrl.ResolveWithdrawal)
	admin.PATCH("/vendors/:id/status", vendorCtrl.SetStatus)
}
