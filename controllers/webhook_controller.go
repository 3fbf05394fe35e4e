package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Webhook is the push-verify (IPN) path. UddoktaPay calls it server-to-server;
// the payload is authenticated before any order lookup and the response only
// reports processing status back to the processor.
func (cc *CheckoutController) Webhook(c *gin.Context) {
	result, err := cc.Gateway.ReceiveNotification(c.Request)
	if err != nil {
		cc.Logger.Warn("Rejected payment notification", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid notification"})
		return
	}

	outcome, err := cc.Reconciler.Reconcile(c.Request.Context(), result)
	if err != nil {
		cc.Logger.Error("Reconciliation failed for notification",
			zap.String("invoice_id", result.InvoiceID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received", "outcome": string(outcome)})
}
