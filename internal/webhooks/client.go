// Package webhooks fires the external scraping and enrichment workflows.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jobtracker/internal/shared/apperr"
	"jobtracker/internal/shared/metrics"
	"jobtracker/internal/shared/telemetry"
)

// Workflow names understood by the pipeline.
const (
	LinkedIn         = "LinkedIn"
	FranceTravail    = "FranceTravail"
	GoogleAlerts     = "GoogleAlerts"
	CompaniesDetails = "CompaniesDetails"
	CompanyDetails   = "CompanyDetails"
)

// Workflows lists every known workflow.
var Workflows = []string{LinkedIn, FranceTravail, GoogleAlerts, CompaniesDetails, CompanyDetails}

const opTrigger = "TriggerWorkflow"

// Known reports whether name is a workflow.
func Known(name string) bool {
	return slices.Contains(Workflows, name)
}

// Options tunes outbound delivery.
type Options struct {
	Timeout    time.Duration
	RatePerSec float64
	Client     *http.Client
}

// Client posts workflow triggers in the background. Callers never wait on the remote end.
type Client struct {
	urls    map[string]string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	log     *telemetry.Logger

	wg sync.WaitGroup
}

// New constructs a Client for the configured workflow URLs.
func New(urls map[string]string, opts Options, log *telemetry.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 2
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = telemetry.Default()
	}
	copied := make(map[string]string, len(urls))
	for k, v := range urls {
		copied[k] = v
	}
	return &Client{
		urls:    copied,
		client:  client,
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		log:     log,
	}
}

// Configured reports whether workflow has a URL.
func (c *Client) Configured(workflow string) bool {
	_, ok := c.urls[workflow]
	return ok
}

// Trigger validates the request and starts delivery. It returns once the delivery is queued.
func (c *Client) Trigger(ctx context.Context, workflow string, payload any) error {
	if !Known(workflow) {
		return apperr.Validation(apperr.LayerWebhook, opTrigger, "unknown workflow").With("workflow", workflow)
	}
	url, ok := c.urls[workflow]
	if !ok {
		return apperr.Configuration(apperr.LayerWebhook, opTrigger, "workflow url is not configured").With("workflow", workflow)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.WrapKind(apperr.KindValidation, apperr.LayerWebhook, opTrigger, err).With("workflow", workflow)
	}

	// Delivery outlives the request that asked for it.
	deliverCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.deliver(deliverCtx, workflow, url, body)
	}()
	return nil
}

// Wait blocks until every queued delivery has finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) deliver(ctx context.Context, workflow, url string, body []byte) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.ObserveWebhook(workflow, "rate_limited")
		c.log.Warn("webhook.skipped", map[string]any{"workflow": workflow, "error": err.Error()})
		return
	}

	status, err := c.post(ctx, url, body)
	fields := map[string]any{
		"workflow":    workflow,
		"status":      status,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		metrics.ObserveWebhook(workflow, "error")
		fields["error"] = err.Error()
		c.log.Error("webhook.failed", fields)
		return
	}
	metrics.ObserveWebhook(workflow, "ok")
	c.log.Info("webhook.triggered", fields)
}

func (c *Client) post(ctx context.Context, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("webhook responded %s", resp.Status)
	}
	return resp.StatusCode, nil
}
