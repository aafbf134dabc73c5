package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	userAgent      = "WhatsApp-Webhook-Proxy/1.0"
	defaultTimeout = 30 * time.Second
)

// Result is the settled outcome of one forward attempt. Results are
// logged and never propagated into the provider-facing response path.
type Result struct {
	Delivered  bool
	StatusCode int
	Err        error
}

// Forwarder posts {question} payloads to student flow endpoints.
type Forwarder struct {
	client *http.Client
}

// NewForwarder builds a forwarder whose requests give up after timeout.
func NewForwarder(timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Forwarder{client: &http.Client{Timeout: timeout}}
}

type flowRequest struct {
	Question string `json:"question"`
}

// Forward posts the prompt to the endpoint and reports the settled
// outcome. The response body is discarded; the flow's answer is opaque
// to the relay.
func (f *Forwarder) Forward(ctx context.Context, endpoint, prompt string) Result {
	payload, err := json.Marshal(flowRequest{Question: prompt})
	if err != nil {
		return Result{Err: fmt.Errorf("encode flow payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{Err: fmt.Errorf("build flow request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Result{StatusCode: resp.StatusCode, Err: fmt.Errorf("flow endpoint returned %d", resp.StatusCode)}
	}
	return Result{Delivered: true, StatusCode: resp.StatusCode}
}
