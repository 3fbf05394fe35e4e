package services

import (
	"context"
	"fmt"
	"net/url"

	"payment-gateway/models"
	"payment-gateway/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Confirmation markers carried in the payment-confirmation query parameter
// of the callback URLs handed to UddoktaPay.
const (
	ConfirmationParam   = "payment-confirmation"
	ConfirmationSuccess = "uddoktapay_success"
	ConfirmationCancel  = "uddoktapay_cancel"
	ConfirmationIPN     = "uddoktapay_ipn"
)

// CheckoutRequest is the validated input for one checkout attempt.
type CheckoutRequest struct {
	UserID   uuid.UUID
	FullName string
	Email    string
	Amount   float64 // price in store currency
}

// CheckoutSettings carries the gateway-facing configuration the orchestrator
// needs; passed explicitly rather than read from globals.
type CheckoutSettings struct {
	StoreCurrency string
	ExchangeRate  float64
	PublicBaseURL string
}

// CheckoutService bridges the host checkout flow to the gateway client and
// the order store.
type CheckoutService struct {
	orders   repository.OrderRepository
	gateway  *UddoktaPayClient
	settings CheckoutSettings
	logger   *zap.Logger
}

func NewCheckoutService(orders repository.OrderRepository, gateway *UddoktaPayClient, settings CheckoutSettings, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		gateway:  gateway,
		settings: settings,
		logger:   logger,
	}
}

// StartCheckout creates a pending order, initiates a charge at UddoktaPay
// and returns the hosted-payment URL for the browser redirect.
func (s *CheckoutService) StartCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	// Credentials are checked before the order row exists, so a
	// misconfigured gateway never leaves a pending order behind.
	if err := s.gateway.Configured(); err != nil {
		return "", err
	}

	order := &models.Order{
		ID:       uuid.New(),
		UserID:   req.UserID,
		Email:    req.Email,
		Amount:   req.Amount,
		Currency: s.settings.StoreCurrency,
		Status:   models.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return "", &OrderCreationError{Err: err}
	}

	chargeReq := models.ChargeRequest{
		FullName:    req.FullName,
		Email:       req.Email,
		Amount:      fmt.Sprintf("%.2f", s.SettlementAmount(req.Amount)),
		Metadata:    map[string]string{models.MetadataOrderKey: order.ID.String()},
		RedirectURL: s.confirmationURL(ConfirmationSuccess),
		CancelURL:   s.confirmationURL(ConfirmationCancel),
		WebhookURL:  s.confirmationURL(ConfirmationIPN),
		ReturnType:  "GET",
	}

	paymentURL, err := s.gateway.CreateCharge(ctx, chargeReq)
	if err != nil {
		s.logger.Error("Charge creation failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return "", err
	}

	s.logger.Info("Checkout initiated",
		zap.String("order_id", order.ID.String()),
		zap.String("amount", chargeReq.Amount),
	)
	return paymentURL, nil
}

// SettlementAmount converts the store-currency price into BDT. BDT prices
// pass through unchanged; anything else is multiplied by the configured
// exchange rate.
func (s *CheckoutService) SettlementAmount(price float64) float64 {
	if s.settings.StoreCurrency == "BDT" {
		return price
	}
	return price * s.settings.ExchangeRate
}

func (s *CheckoutService) confirmationURL(marker string) string {
	q := url.Values{}
	q.Set(ConfirmationParam, marker)
	return s.settings.PublicBaseURL + "/payments/confirmation?" + q.Encode()
}
