package callbacks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/toyorcee/9thwaka-earnings-core/internal/circuitbreaker"
	"github.com/toyorcee/9thwaka-earnings-core/internal/config"
	"github.com/toyorcee/9thwaka-earnings-core/internal/httputil"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
)

// RetryConfig holds webhook retry configuration.
type RetryConfig struct {
	MaxAttempts     int           // Maximum retry attempts (default: 5)
	InitialInterval time.Duration // Initial backoff interval (default: 1s)
	MaxInterval     time.Duration // Maximum backoff interval (default: 5m)
	Multiplier      float64       // Backoff multiplier (default: 2.0)
	Timeout         time.Duration // Per-attempt timeout (default: 10s)
}

// DefaultRetryConfig returns sensible defaults for notification retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     5 * time.Minute,
		Multiplier:      2.0,
		Timeout:         10 * time.Second,
	}
}

// RetryableClient posts domain events to the configured target with
// exponential backoff and, on exhaustion, a DLQ write.
type RetryableClient struct {
	cfg        config.CallbacksConfig
	retryCfg   RetryConfig
	httpClient *http.Client
	logger     zerolog.Logger
	dlqStore   DLQStore
	metrics    *metrics.Metrics
	breaker    *circuitbreaker.Manager
}

// DLQStore persists notifications that exhausted all retry attempts.
type DLQStore interface {
	SaveFailedWebhook(ctx context.Context, webhook FailedWebhook) error
	ListFailedWebhooks(ctx context.Context, limit int) ([]FailedWebhook, error)
	DeleteFailedWebhook(ctx context.Context, id string) error
}

// FailedWebhook represents a notification that exhausted all retry attempts.
type FailedWebhook struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Payload     json.RawMessage   `json:"payload"`
	Headers     map[string]string `json:"headers"`
	EventType   string            `json:"eventType"`
	Attempts    int               `json:"attempts"`
	LastError   string            `json:"lastError"`
	LastAttempt time.Time         `json:"lastAttempt"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// RetryOption customizes the retry client's behavior.
type RetryOption func(*RetryableClient)

// WithRetryLogger sets a custom logger for retry operations.
func WithRetryLogger(logger zerolog.Logger) RetryOption {
	return func(c *RetryableClient) {
		c.logger = logger
	}
}

// WithDLQStore enables a dead letter queue for exhausted notifications.
func WithDLQStore(store DLQStore) RetryOption {
	return func(c *RetryableClient) {
		c.dlqStore = store
	}
}

// WithRetryConfig sets custom retry configuration.
func WithRetryConfig(cfg RetryConfig) RetryOption {
	return func(c *RetryableClient) {
		c.retryCfg = cfg
	}
}

// WithMetrics sets the metrics collector for notifier observability.
func WithMetrics(m *metrics.Metrics) RetryOption {
	return func(c *RetryableClient) {
		c.metrics = m
	}
}

// WithCircuitBreaker guards outbound delivery attempts with the shared
// breaker manager's notifier circuit, so a notifier endpoint that's down
// stops eating a full retry budget per event once it trips.
func WithCircuitBreaker(m *circuitbreaker.Manager) RetryOption {
	return func(c *RetryableClient) {
		c.breaker = m
	}
}

// NewRetryableClient constructs a Notifier backed by a retrying HTTP
// client. Returns NoopNotifier when no target URL is configured.
func NewRetryableClient(cfg config.CallbacksConfig, opts ...RetryOption) Notifier {
	if cfg.TargetURL == "" {
		return NoopNotifier{}
	}

	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &RetryableClient{
		cfg:        cfg,
		retryCfg:   DefaultRetryConfig(),
		httpClient: httputil.NewClient(timeout),
		logger:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *RetryableClient) dispatch(eventType string, eventID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", eventType).Msg("callbacks: failed to serialize event")
		return
	}

	go func() {
		if err := c.sendWithRetry(context.Background(), body, eventType); err != nil {
			c.logger.Error().
				Err(err).
				Str("event_id", eventID).
				Str("event_type", eventType).
				Msg("callbacks: notification failed after all retries")
			if c.dlqStore != nil {
				c.saveToDLQ(context.Background(), body, eventType, err)
			}
		}
	}()
}

func (c *RetryableClient) ReferralPayout(_ context.Context, event ReferralPayoutEvent) {
	if c == nil || c.cfg.TargetURL == "" {
		return
	}
	PrepareReferralPayoutEvent(&event)
	c.dispatch(event.EventType, event.EventID, event)
}

func (c *RetryableClient) GoldStatusUnlocked(_ context.Context, event GoldStatusEvent) {
	if c == nil || c.cfg.TargetURL == "" {
		return
	}
	PrepareGoldStatusEvent(&event)
	c.dispatch(event.EventType, event.EventID, event)
}

func (c *RetryableClient) PayoutOverdue(_ context.Context, event PayoutStatusEvent) {
	if c == nil || c.cfg.TargetURL == "" {
		return
	}
	PreparePayoutStatusEvent(&event, "payout.overdue")
	c.dispatch(event.EventType, event.EventID, event)
}

func (c *RetryableClient) PayoutBlocked(_ context.Context, event PayoutStatusEvent) {
	if c == nil || c.cfg.TargetURL == "" {
		return
	}
	PreparePayoutStatusEvent(&event, "payout.blocked")
	c.dispatch(event.EventType, event.EventID, event)
}

func (c *RetryableClient) PayoutStrikeIssued(_ context.Context, event PayoutStatusEvent) {
	if c == nil || c.cfg.TargetURL == "" {
		return
	}
	PreparePayoutStatusEvent(&event, "payout.strike")
	c.dispatch(event.EventType, event.EventID, event)
}

func (c *RetryableClient) RiderDeactivated(_ context.Context, event PayoutStatusEvent) {
	if c == nil || c.cfg.TargetURL == "" {
		return
	}
	PreparePayoutStatusEvent(&event, "rider.deactivated")
	c.dispatch(event.EventType, event.EventID, event)
}

func (c *RetryableClient) PayoutMarkedPaid(_ context.Context, event PayoutMarkedPaidEvent) {
	if c == nil || c.cfg.TargetURL == "" {
		return
	}
	PreparePayoutMarkedPaidEvent(&event)
	c.dispatch(event.EventType, event.EventID, event)
}

// sendWithRetry attempts to send the notification with exponential backoff.
func (c *RetryableClient) sendWithRetry(ctx context.Context, payload []byte, eventType string) error {
	var lastErr error
	interval := c.retryCfg.InitialInterval
	startTime := time.Now()

	if !c.cfg.Retry.Enabled {
		reqCtx, cancel := context.WithTimeout(ctx, c.retryCfg.Timeout)
		err := c.sendHTTPGuarded(reqCtx, payload)
		cancel()
		if c.metrics != nil {
			status := "success"
			if err != nil {
				status = "failed"
			}
			c.metrics.ObserveNotifierDelivery(eventType, status, time.Since(startTime), 1, false)
		}
		return err
	}

	for attempt := 1; attempt <= c.retryCfg.MaxAttempts; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, c.retryCfg.Timeout)
		err := c.sendHTTPGuarded(reqCtx, payload)
		cancel()

		if err == nil {
			duration := time.Since(startTime)
			if c.metrics != nil {
				c.metrics.ObserveNotifierDelivery(eventType, "success", duration, attempt, false)
			}
			if attempt > 1 {
				c.logger.Info().
					Int("attempt", attempt).
					Str("event_type", eventType).
					Msg("callbacks: notification succeeded after retry")
			}
			return nil
		}

		lastErr = err
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", c.retryCfg.MaxAttempts).
			Str("event_type", eventType).
			Dur("next_retry", interval).
			Msg("callbacks: notification attempt failed")

		if attempt < c.retryCfg.MaxAttempts {
			time.Sleep(interval)
			interval = time.Duration(float64(interval) * c.retryCfg.Multiplier)
			if interval > c.retryCfg.MaxInterval {
				interval = c.retryCfg.MaxInterval
			}
		}
	}

	duration := time.Since(startTime)
	if c.metrics != nil {
		c.metrics.ObserveNotifierDelivery(eventType, "failed", duration, c.retryCfg.MaxAttempts, false)
	}

	return fmt.Errorf("notification failed after %d attempts: %w", c.retryCfg.MaxAttempts, lastErr)
}

// sendHTTPGuarded routes the attempt through the notifier circuit when a
// breaker manager is configured, so an open circuit fails fast locally
// instead of spending the attempt's timeout on a collaborator that's
// already known to be down.
func (c *RetryableClient) sendHTTPGuarded(ctx context.Context, payload []byte) error {
	if c.breaker == nil {
		return c.sendHTTP(ctx, payload)
	}
	_, err := c.breaker.Execute(circuitbreaker.ServiceNotifier, func() (interface{}, error) {
		return nil, c.sendHTTP(ctx, payload)
	})
	return err
}

// sendHTTP performs the actual HTTP request.
func (c *RetryableClient) sendHTTP(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TargetURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	contentType := c.cfg.Headers["Content-Type"]
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	for k, v := range c.cfg.Headers {
		if k == "" {
			continue
		}
		if strings.EqualFold(k, "content-type") {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("received status %d from %s", resp.StatusCode, c.cfg.TargetURL)
	}

	return nil
}

// saveToDLQ persists an exhausted notification to the dead letter queue.
func (c *RetryableClient) saveToDLQ(ctx context.Context, payload []byte, eventType string, lastErr error) {
	webhook := FailedWebhook{
		ID:          generateWebhookID(),
		URL:         c.cfg.TargetURL,
		Payload:     json.RawMessage(payload),
		Headers:     c.cfg.Headers,
		EventType:   eventType,
		Attempts:    c.retryCfg.MaxAttempts,
		LastError:   lastErr.Error(),
		LastAttempt: time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := c.dlqStore.SaveFailedWebhook(ctx, webhook); err != nil {
		c.logger.Error().Err(err).Str("webhook_id", webhook.ID).Msg("callbacks: failed to save to DLQ")
		return
	}

	if c.metrics != nil {
		totalDuration := time.Duration(webhook.Attempts) * c.retryCfg.InitialInterval
		c.metrics.ObserveNotifierDelivery(eventType, "dlq", totalDuration, webhook.Attempts, true)
	}

	c.logger.Info().
		Str("webhook_id", webhook.ID).
		Str("event_type", eventType).
		Int("attempts", webhook.Attempts).
		Msg("callbacks: saved exhausted notification to DLQ")
}

// generateWebhookID creates a unique identifier for DLQ entries.
func generateWebhookID() string {
	return fmt.Sprintf("notif_%d", time.Now().UnixNano())
}
