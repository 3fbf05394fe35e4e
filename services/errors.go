package services

import (
	"errors"
	"fmt"
)

// ErrGatewayNotConfigured is returned when the UddoktaPay API key or URL is
// missing. It blocks charge creation before any network call or order row.
var ErrGatewayNotConfigured = errors.New("uddoktapay api key and api url must be configured")

// GatewayError wraps a transport or remote failure talking to UddoktaPay.
// On the initiate path it is shown to the user; on the confirmation paths it
// is logged and ignored, with the IPN channel as the fallback.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("uddoktapay %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// OrderCreationError wraps a storage failure while creating the pending
// order at checkout-initiation time.
type OrderCreationError struct {
	Err error
}

func (e *OrderCreationError) Error() string {
	return fmt.Sprintf("failed to create order: %v", e.Err)
}

func (e *OrderCreationError) Unwrap() error { return e.Err }
