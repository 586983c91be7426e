// Package notify delivers booking notifications to clients over WhatsApp,
// consuming events drained from the outbox. Delivery is decoupled from the
// booking write path: a send failure leaves the event pending for retry and
// never touches booking state.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/velvetdesk/salon-api/pkg/logging"
)

const defaultUserAgent = "salon-notify/0.1"

// WhatsAppConfig controls how the WhatsApp client behaves.
type WhatsAppConfig struct {
	BaseURL    string
	Token      string
	Sender     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// WhatsAppClient sends text messages through a WhatsApp Business API
// gateway.
type WhatsAppClient struct {
	baseURL    string
	token      string
	sender     string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *logging.Logger
}

// NewWhatsAppClient creates a configured client with sane defaults.
func NewWhatsAppClient(cfg WhatsAppConfig) (*WhatsAppClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("notify: whatsapp base URL is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notify: whatsapp token is required")
	}
	if strings.TrimSpace(cfg.Sender) == "" {
		return nil, errors.New("notify: whatsapp sender is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      cfg.Token,
		sender:     cfg.Sender,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}, nil
}

// SendText delivers a plain text message to the given phone number.
func (c *WhatsAppClient) SendText(ctx context.Context, to, text string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("notify: recipient phone required")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("notify: message text required")
	}
	body, err := json.Marshal(struct {
		From string `json:"from"`
		To   string `json:"to"`
		Type string `json:"type"`
		Text string `json:"text"`
	}{
		From: c.sender,
		To:   to,
		Type: "text",
		Text: text,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal send body: %w", err)
	}
	return c.invoke(ctx, "/messages", body)
}

func (c *WhatsAppClient) invoke(ctx context.Context, path string, body []byte) error {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("notify: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", defaultUserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !shouldRetry(0, err) || attempt == c.maxRetries {
				return fmt.Errorf("notify: http error: %w", err)
			}
			lastErr = err
			c.logRetry(path, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("notify: read response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		apiErr := &gatewayError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		if attempt < c.maxRetries && shouldRetry(resp.StatusCode, nil) {
			lastErr = apiErr
			c.logRetry(path, attempt, resp.StatusCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		return apiErr
	}
	if lastErr != nil {
		return lastErr
	}
	return errors.New("notify: request failed without response")
}

func (c *WhatsAppClient) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff * time.Duration(1<<attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *WhatsAppClient) logRetry(path string, attempt int, status int, err error) {
	c.logger.Warn("whatsapp retry",
		"path", path,
		"attempt", attempt+1,
		"status", status,
		"error", err,
	)
}

func shouldRetry(status int, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status <= 599
}

type gatewayError struct {
	StatusCode int
	Body       string
}

func (e *gatewayError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("notify: whatsapp gateway %s (status=%d)", e.Body, e.StatusCode)
	}
	return fmt.Sprintf("notify: whatsapp gateway status %d", e.StatusCode)
}
