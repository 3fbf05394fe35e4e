package services

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"payment-gateway/models"
)

const apiKeyHeader = "RT-UDDOKTAPAY-API-KEY"

// UddoktaPayClient talks to the UddoktaPay REST API. It never touches local
// order state.
type UddoktaPayClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewUddoktaPayClient(apiKey, baseURL string) *UddoktaPayClient {
	return &UddoktaPayClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether credentials are present. Checked before any
// network call so a misconfigured gateway fails fast.
func (c *UddoktaPayClient) Configured() error {
	if c.apiKey == "" || c.baseURL == "" {
		return ErrGatewayNotConfigured
	}
	return nil
}

// ---- UddoktaPay API response structs ----

type checkoutResponse struct {
	Status     bool   `json:"status"`
	Message    string `json:"message"`
	PaymentURL string `json:"payment_url"`
}

// CreateCharge creates a hosted-payment session and returns the URL the
// buyer's browser is redirected to.
func (c *UddoktaPayClient) CreateCharge(ctx context.Context, req models.ChargeRequest) (string, error) {
	if err := c.Configured(); err != nil {
		return "", err
	}

	var resp checkoutResponse
	if err := c.doRequest(ctx, "/api/checkout-v2", req, &resp); err != nil {
		return "", &GatewayError{Op: "create charge", Err: err}
	}
	if resp.PaymentURL == "" {
		return "", &GatewayError{Op: "create charge", Err: fmt.Errorf("no payment_url in response: %s", resp.Message)}
	}
	return resp.PaymentURL, nil
}

// VerifyCharge queries the charge status by invoice id. Used on the
// buyer-return (pull) path.
func (c *UddoktaPayClient) VerifyCharge(ctx context.Context, invoiceID string) (models.ChargeResult, error) {
	var result models.ChargeResult
	if err := c.Configured(); err != nil {
		return result, err
	}

	body := map[string]string{"invoice_id": invoiceID}
	if err := c.doRequest(ctx, "/api/verify-payment", body, &result); err != nil {
		return result, &GatewayError{Op: "verify charge", Err: err}
	}
	return result, nil
}

// ReceiveNotification authenticates and parses an inbound IPN request. The
// API key header is compared before the payload is trusted; a mismatch means
// the notification is not from UddoktaPay and must be ignored.
func (c *UddoktaPayClient) ReceiveNotification(r *http.Request) (models.ChargeResult, error) {
	var result models.ChargeResult
	if err := c.Configured(); err != nil {
		return result, err
	}

	header := r.Header.Get(apiKeyHeader)
	if subtle.ConstantTimeCompare([]byte(header), []byte(c.apiKey)) != 1 {
		return result, &GatewayError{Op: "receive notification", Err: fmt.Errorf("invalid api key header")}
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return result, &GatewayError{Op: "receive notification", Err: err}
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return result, &GatewayError{Op: "receive notification", Err: fmt.Errorf("malformed payload: %w", err)}
	}
	return result, nil
}

func (c *UddoktaPayClient) doRequest(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}
