package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/pavitra93/go-facility-platform/shared/notify"
	"github.com/pavitra93/go-facility-platform/shared/utils"
)

// PushMessage is one Expo push request.
type PushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

type pushTicket struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type pushResponse struct {
	Data   pushTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

var ErrPushRejected = errors.New("push rejected")

// PushClient sends push messages through the provider's HTTP API behind a
// circuit breaker.
type PushClient struct {
	http     *resty.Client
	endpoint string
	breaker  *utils.CircuitBreaker

	mutex       sync.RWMutex
	lastSuccess time.Time
	lastError   error
	sent        int64
	failed      int64
}

func NewPushClient(cfg PushConfig) *PushClient {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.AccessToken != "" {
		client.SetAuthToken(cfg.AccessToken)
	}

	return &PushClient{
		http:     client,
		endpoint: cfg.Endpoint,
		breaker:  utils.NewCircuitBreaker("push", cfg.MaxFailures, cfg.ResetTimeout),
	}
}

// MessageFor renders an intent for one device token.
func MessageFor(intent notify.Intent, token string) PushMessage {
	data := map[string]string{"tenant_id": intent.TenantID.String()}
	if intent.EntityType != "" {
		data["entity_type"] = intent.EntityType
		data["entity_id"] = intent.EntityID.String()
	}
	return PushMessage{
		To:    token,
		Title: intent.Title,
		Body:  intent.Body,
		Sound: "default",
		Data:  data,
	}
}

func (c *PushClient) Send(ctx context.Context, msg PushMessage) error {
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		start := time.Now()
		var result pushResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(msg).
			SetResult(&result).
			Post(c.endpoint)
		metrics.ExternalAPIDuration.WithLabelValues("expo", "push").Observe(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("failed to call push API: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("push API returned status %d", resp.StatusCode())
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("%w: %s", ErrPushRejected, result.Errors[0].Message)
		}
		if result.Data.Status == "error" {
			return fmt.Errorf("%w: %s", ErrPushRejected, result.Data.Message)
		}
		return nil
	})

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err != nil {
		c.failed++
		c.lastError = err
		return err
	}
	c.sent++
	c.lastSuccess = time.Now()
	c.lastError = nil
	return nil
}

// GetStatus returns the current delivery status
func (c *PushClient) GetStatus() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var lastError string
	if c.lastError != nil {
		lastError = c.lastError.Error()
	}
	return map[string]interface{}{
		"endpoint":      c.endpoint,
		"circuit_state": c.breaker.GetState(),
		"last_success":  c.lastSuccess,
		"last_error":    lastError,
		"sent":          c.sent,
		"failed":        c.failed,
	}
}

// Reset closes the circuit after the operator has fixed the provider.
func (c *PushClient) Reset() {
	c.breaker.Reset()
}
