package routes

import (
	"payment-gateway/controllers"
	"payment-gateway/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, cc *controllers.CheckoutController) {
	r.GET("/checkout/gateway", cc.GatewayInfo)

	checkout := r.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware())
	checkout.POST("/initiate", cc.InitiateCheckout)

	// UddoktaPay callbacks (no auth; the IPN authenticates via header)
	r.GET("/payments/confirmation", cc.Confirmation)
	r.POST("/payments/confirmation", cc.Webhook)
}
