package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"payment-gateway/middleware"
	"payment-gateway/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutController struct {
	Checkout    *services.CheckoutService
	Gateway     *services.UddoktaPayClient
	Reconciler  *services.Reconciler
	Frontend    string // frontend base URL for buyer-facing redirects
	DisplayName string // gateway label shown on the checkout page
	Logger      *zap.Logger
}

// GatewayInfo lets the storefront render the gateway option with its
// configured display name.
func (cc *CheckoutController) GatewayInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"gateway":        "uddoktapay",
		"checkout_label": cc.DisplayName,
		"supports":       []string{"buy_now"},
	})
}

// InitiateCheckout creates a pending order, opens a charge at UddoktaPay and
// redirects the buyer's browser to the hosted payment page. Any failure
// sends the buyer back to checkout with a visible error.
func (cc *CheckoutController) InitiateCheckout(c *gin.Context) {
	var req struct {
		FullName string  `form:"full_name" json:"full_name" binding:"required"`
		Email    string  `form:"email" json:"email" binding:"required,email"`
		Amount   float64 `form:"amount" json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBind(&req); err != nil {
		cc.backToCheckout(c, "Invalid checkout data")
		return
	}

	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		cc.backToCheckout(c, "Invalid user")
		return
	}

	paymentURL, err := cc.Checkout.StartCheckout(c.Request.Context(), services.CheckoutRequest{
		UserID:   userID,
		FullName: req.FullName,
		Email:    req.Email,
		Amount:   req.Amount,
	})
	if err != nil {
		cc.Logger.Warn("Checkout initiation failed", zap.Error(err))
		cc.backToCheckout(c, checkoutErrorMessage(err))
		return
	}

	c.Redirect(http.StatusSeeOther, paymentURL)
}

// Confirmation dispatches on the payment-confirmation marker carried by the
// redirect, cancel and webhook URLs handed to UddoktaPay.
func (cc *CheckoutController) Confirmation(c *gin.Context) {
	switch c.Query(services.ConfirmationParam) {
	case services.ConfirmationCancel:
		// Buyer backed out; no state change.
		cc.backToCheckout(c, "")
	case services.ConfirmationSuccess:
		cc.confirmSuccess(c)
	default:
		cc.backToCheckout(c, "")
	}
}

// confirmSuccess is the pull-verify path: the buyer's browser returned with
// an invoice id, which is verified against the API before reconciliation.
// Non-completed outcomes are deliberately non-fatal here; the IPN channel is
// the authoritative fallback.
func (cc *CheckoutController) confirmSuccess(c *gin.Context) {
	invoiceID := c.Query("invoice_id")
	if invoiceID == "" {
		cc.backToCheckout(c, "")
		return
	}

	result, err := cc.Gateway.VerifyCharge(c.Request.Context(), invoiceID)
	if err != nil {
		cc.Logger.Warn("Charge verification failed on buyer return",
			zap.String("invoice_id", invoiceID),
			zap.Error(err),
		)
		cc.backToCheckout(c, "")
		return
	}

	outcome, err := cc.Reconciler.Reconcile(c.Request.Context(), result)
	if err != nil {
		cc.Logger.Error("Reconciliation failed on buyer return",
			zap.String("invoice_id", invoiceID),
			zap.Error(err),
		)
		cc.backToCheckout(c, "")
		return
	}

	if outcome == services.OutcomeCompleted {
		c.Redirect(http.StatusSeeOther, cc.Frontend+"/checkout/receipt")
		return
	}
	// Anything else is left alone; the buyer lands on the default page and
	// the IPN channel settles the order if the charge did complete.
	cc.Logger.Info("Buyer return did not complete order",
		zap.String("invoice_id", invoiceID),
		zap.String("outcome", string(outcome)),
	)
	c.Redirect(http.StatusSeeOther, cc.Frontend)
}

// backToCheckout returns the buyer to the checkout page, optionally with a
// user-visible error message.
func (cc *CheckoutController) backToCheckout(c *gin.Context, msg string) {
	target := cc.Frontend + "/checkout"
	if msg != "" {
		q := url.Values{}
		q.Set("payment-error", msg)
		target += "?" + q.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}

func checkoutErrorMessage(err error) string {
	var orderErr *services.OrderCreationError
	switch {
	case errors.Is(err, services.ErrGatewayNotConfigured):
		return "You must enter your UddoktaPay credentials in settings."
	case errors.As(err, &orderErr):
		return "Could not create your order. Please try again."
	default:
		return "Payment initialization error. Please try again."
	}
}
