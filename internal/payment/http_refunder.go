package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPRefunder posts refund requests to an external endpoint.
type HTTPRefunder struct {
	endpoint string
	client   *http.Client
}

type refundPayload struct {
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount"`
}

// NewHTTPRefunder returns a refunder for endpoint. A nil client gets a 10s timeout.
func NewHTTPRefunder(endpoint string, client *http.Client) *HTTPRefunder {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPRefunder{endpoint: endpoint, client: client}
}

// Refund implements Refunder. Any non 2xx response is a failure.
func (r *HTTPRefunder) Refund(ctx context.Context, req RefundRequest) error {
	body, err := json.Marshal(refundPayload{PaymentID: req.PaymentReference, Amount: req.AmountMinorUnits})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: endpoint responded %d", ErrRefundFailed, resp.StatusCode)
	}
	return nil
}
