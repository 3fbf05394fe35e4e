package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"payment-gateway/models"
	"payment-gateway/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is the result of applying a charge result to local order state.
// Only Completed indicates a transition happened; the rest are safety
// rejections, not errors.
type Outcome string

const (
	OutcomeCompleted       Outcome = "completed"
	OutcomeNotCompleted    Outcome = "not_completed"
	OutcomeUnlinked        Outcome = "unlinked"
	OutcomeOrderNotFound   Outcome = "order_not_found"
	OutcomeAlreadyResolved Outcome = "already_resolved"
)

const completionNote = "Payment completed successfully through UddoktaPay."

// EventPublisher publishes payment events after a completed transition.
type EventPublisher interface {
	SendPaymentEvent(event models.PaymentEvent) error
}

// Reconciler applies verified charge results to orders at most once. Both
// confirmation channels (buyer redirect and IPN) funnel through Reconcile;
// whichever arrives first wins and the other is a no-op.
type Reconciler struct {
	orders    repository.OrderRepository
	publisher EventPublisher
	sns       SNSPublisher
	snsTopic  string
	logger    *zap.Logger
}

// SNSPublisher mirrors pkg/aws.SNSPublisher without importing it here.
type SNSPublisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

func NewReconciler(orders repository.OrderRepository, publisher EventPublisher, sns SNSPublisher, snsTopic string, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		orders:    orders,
		publisher: publisher,
		sns:       sns,
		snsTopic:  snsTopic,
		logger:    logger,
	}
}

// Reconcile evaluates the transition rule for a charge result. The status
// check and status write are one conditional UPDATE in the repository, so
// concurrent calls for the same order cannot both complete it. A non-nil
// error means storage failed mid-transition; every other rejection is an
// Outcome, not an error.
func (r *Reconciler) Reconcile(ctx context.Context, result models.ChargeResult) (Outcome, error) {
	if !result.Completed() {
		r.logger.Info("Charge not completed, no transition",
			zap.String("invoice_id", result.InvoiceID),
			zap.String("status", result.Status),
		)
		return OutcomeNotCompleted, nil
	}

	raw, ok := result.Metadata[models.MetadataOrderKey]
	if !ok {
		r.logger.Warn("Charge result carries no order id, ignoring",
			zap.String("invoice_id", result.InvoiceID),
		)
		return OutcomeUnlinked, nil
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		r.logger.Warn("Charge result carries unparseable order id, ignoring",
			zap.String("invoice_id", result.InvoiceID),
			zap.String("order_id", raw),
		)
		return OutcomeUnlinked, nil
	}

	order, err := r.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		r.logger.Warn("Order not found for completed charge",
			zap.String("order_id", orderID.String()),
			zap.String("invoice_id", result.InvoiceID),
		)
		return OutcomeOrderNotFound, nil
	}
	if err != nil {
		// Storage failure, not a safety rejection. Surfaced so the webhook
		// answers non-2xx and the processor retries the notification.
		r.logger.Error("Failed to look up order",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return "", err
	}

	won, err := r.orders.CompleteIfPending(ctx, order.ID)
	if err != nil {
		r.logger.Error("Failed to update order status",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return "", err
	}
	if !won {
		r.logger.Info("Skipping duplicate confirmation",
			zap.String("order_id", order.ID.String()),
			zap.String("invoice_id", result.InvoiceID),
		)
		return OutcomeAlreadyResolved, nil
	}

	if result.InvoiceID != "" {
		if err := r.orders.SetInvoiceID(ctx, order.ID, result.InvoiceID); err != nil {
			r.logger.Warn("Failed to record invoice id",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}

	if err := r.orders.AppendNote(ctx, order.ID, completionNote); err != nil {
		r.logger.Warn("Failed to append reconciliation note",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	r.publishPaymentEvent(ctx, order, result)

	r.logger.Info("Order completed",
		zap.String("order_id", order.ID.String()),
		zap.String("invoice_id", result.InvoiceID),
	)
	return OutcomeCompleted, nil
}

// publishPaymentEvent sends the completion event to Kafka and, best-effort,
// to SNS. Failures are logged only; the order transition already happened.
func (r *Reconciler) publishPaymentEvent(ctx context.Context, order *models.Order, result models.ChargeResult) {
	event := models.PaymentEvent{
		Type:      "payment_completed",
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		InvoiceID: result.InvoiceID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Timestamp: time.Now().UTC(),
	}

	if r.publisher != nil {
		if err := r.publisher.SendPaymentEvent(event); err != nil {
			r.logger.Error("Failed to publish payment event",
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
		}
	}

	if r.sns != nil && r.snsTopic != "" {
		payload, _ := json.Marshal(event)
		if err := r.sns.Publish(ctx, r.snsTopic, payload); err != nil {
			r.logger.Warn("SNS publish failed",
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
		}
	}
}
