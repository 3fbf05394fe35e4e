package models

import (
	"encoding/json"
	"time"
)

// MetadataOrderKey is the metadata key that carries the order id through
// UddoktaPay and back. It is the only correlation between a charge and an
// order.
const MetadataOrderKey = "order_id"

// ChargeStatusCompleted is the only UddoktaPay status that triggers a
// transition; everything else is treated as not completed.
const ChargeStatusCompleted = "COMPLETED"

// Metadata is the opaque key/value mapping echoed back by UddoktaPay.
// Non-string values in a notification payload are dropped rather than
// failing the whole parse; a missing key is handled downstream.
type Metadata map[string]string

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Metadata, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	*m = out
	return nil
}

// ChargeRequest describes a charge to create at UddoktaPay. It is built
// fresh per checkout attempt and never persisted; the metadata is the only
// part preserved remotely.
type ChargeRequest struct {
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	Amount      string            `json:"amount"` // settlement amount, two decimals
	Metadata    map[string]string `json:"metadata"`
	RedirectURL string            `json:"redirect_url"`
	CancelURL   string            `json:"cancel_url"`
	WebhookURL  string            `json:"webhook_url"`
	ReturnType  string            `json:"return_type"`
}

// ChargeResult is the verified outcome of a charge, from either the
// verify-payment endpoint or an IPN payload.
type ChargeResult struct {
	InvoiceID     string            `json:"invoice_id"`
	Status        string            `json:"status"`
	Amount        string            `json:"amount"`
	PaymentMethod string            `json:"payment_method"`
	TransactionID string            `json:"transaction_id"`
	Metadata      Metadata          `json:"metadata"`
}

// Completed reports whether the charge reached the terminal COMPLETED state.
func (r ChargeResult) Completed() bool {
	return r.Status == ChargeStatusCompleted
}

type PaymentEvent struct {
	Type      string    `json:"type"` // "payment_completed"
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	InvoiceID string    `json:"invoice_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"` // UTC event time
}
