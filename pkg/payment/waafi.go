package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ChargeResult is the outcome of a single charge attempt. Raw carries the
// gateway's response payload verbatim so it can be persisted with the
// payment row for later inspection.
type ChargeResult struct {
	Success bool            `json:"success"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// Gateway abstracts the external payment processor. A transport error and
// an explicit Success=false must be treated identically by callers: the
// attempt failed, the surrounding shipment operation carries on.
type Gateway interface {
	Charge(ctx context.Context, payerPhone string, amount float64, reference string) (*ChargeResult, error)
}

// WaafiConfig carries the merchant credentials for the WaafiPay API.
type WaafiConfig struct {
	APIURL      string
	APIKey      string
	APIUserID   string
	MerchantUID string
}

// WaafiGateway charges a payer's mobile-money wallet through WaafiPay.
type WaafiGateway struct {
	cfg    WaafiConfig
	client *http.Client
}

func NewWaafiGateway(cfg WaafiConfig) *WaafiGateway {
	return &WaafiGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type waafiRequest struct {
	SchemaVersion string      `json:"schemaVersion"`
	RequestID     string      `json:"requestId"`
	Timestamp     string      `json:"timestamp"`
	ChannelName   string      `json:"channelName"`
	ServiceName   string      `json:"serviceName"`
	ServiceParams waafiParams `json:"serviceParams"`
}

type waafiParams struct {
	MerchantUID     string               `json:"merchantUid"`
	APIUserID       string               `json:"apiUserId"`
	APIKey          string               `json:"apiKey"`
	PaymentMethod   string               `json:"paymentMethod"`
	PayerInfo       waafiPayerInfo       `json:"payerInfo"`
	TransactionInfo waafiTransactionInfo `json:"transactionInfo"`
}

type waafiPayerInfo struct {
	AccountNo string `json:"accountNo"`
}

type waafiTransactionInfo struct {
	ReferenceID string  `json:"referenceId"`
	InvoiceID   string  `json:"invoiceId"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

type waafiResponse struct {
	ResponseCode string `json:"responseCode"`
	ResponseMsg  string `json:"responseMsg"`
	Params       struct {
		State string `json:"state"`
	} `json:"params"`
}

// Charge submits an API_PURCHASE request for the payer's wallet. The raw
// response body is returned regardless of outcome.
func (g *WaafiGateway) Charge(ctx context.Context, payerPhone string, amount float64, reference string) (*ChargeResult, error) {
	now := time.Now().UTC()
	payload := waafiRequest{
		SchemaVersion: "1.0",
		RequestID:     uuid.NewString(),
		Timestamp:     now.Format(time.RFC3339),
		ChannelName:   "WEB",
		ServiceName:   "API_PURCHASE",
		ServiceParams: waafiParams{
			MerchantUID:   g.cfg.MerchantUID,
			APIUserID:     g.cfg.APIUserID,
			APIKey:        g.cfg.APIKey,
			PaymentMethod: "MWALLET_ACCOUNT",
			PayerInfo:     waafiPayerInfo{AccountNo: payerPhone},
			TransactionInfo: waafiTransactionInfo{
				ReferenceID: reference,
				InvoiceID:   reference,
				Amount:      amount,
				Currency:    "USD",
				Description: "Shipment delivery fee",
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("waafi: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("waafi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("waafi: request failed: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("waafi: read response: %w", err)
	}
	raw := json.RawMessage(buf.Bytes())

	var parsed waafiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ChargeResult{Success: false, Raw: raw}, fmt.Errorf("waafi: decode response: %w", err)
	}

	success := parsed.ResponseCode == "2001" && parsed.Params.State == "APPROVED"
	return &ChargeResult{Success: success, Raw: raw}, nil
}
