// Package agent bridges to the external agent service that runs code
// analysis, anchors commit hashes on the ledger, and answers questions.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/juliacode/collab-server/internal/logging"
	"github.com/juliacode/collab-server/internal/metrics"
)

// Capability names an agent the service exposes.
type Capability string

const (
	CapabilityAnalyze Capability = "code_guardian"
	CapabilityAnchor  Capability = "onchain_scribe"
	CapabilityAsk     Capability = "task_master"
)

// Error is the single failure shape the gateway reports. Transport
// failures, non-success status codes, and agent-reported errors all
// collapse into it so callers never tell them apart.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Gateway invokes the external agent service over HTTP.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds gateway configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a gateway.
func New(cfg Config) *Gateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Gateway{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

type invokeRequest struct {
	Agent   Capability `json:"agent"`
	Payload any        `json:"payload"`
}

// Invoke calls one agent and returns its decoded response. Any failure
// is returned as *Error. Invocations are never retried; callers own
// retry decisions.
func (g *Gateway) Invoke(ctx context.Context, capability Capability, payload any) (map[string]any, error) {
	logging.Debug("invoking agent", zap.String("agent", string(capability)))
	start := time.Now()
	result, err := g.invoke(ctx, capability, payload)
	metrics.RecordAgentInvocation(string(capability), time.Since(start), err == nil)
	if err != nil {
		logging.Warn("agent invocation failed",
			zap.String("agent", string(capability)),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (g *Gateway) invoke(ctx context.Context, capability Capability, payload any) (map[string]any, *Error) {
	body, err := json.Marshal(invokeRequest{Agent: capability, Payload: payload})
	if err != nil {
		return nil, failure(capability, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v1/invoke", bytes.NewReader(body))
	if err != nil {
		return nil, failure(capability, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, failure(capability, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failure(capability, fmt.Errorf("agent service returned %d", resp.StatusCode))
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, failure(capability, err)
	}
	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, &Error{Message: msg}
	}
	return result, nil
}

func failure(capability Capability, err error) *Error {
	return &Error{Message: fmt.Sprintf("agent invocation failed for %s: %v", capability, err)}
}
