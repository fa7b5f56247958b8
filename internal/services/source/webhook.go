package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/ternarybob/narro/internal/common"
)

// DateLayout is the date format sent in fetch windows
const DateLayout = "2006-01-02"

// ErrNoWebhook is returned when no webhook URL is configured
var ErrNoWebhook = errors.New("source webhook_url not configured")

// Window is an inclusive date range of orders to fetch
type Window struct {
	From time.Time
	To   time.Time
}

// LookbackWindow returns the lookbackDays days before now, ending yesterday
func LookbackWindow(now time.Time, lookbackDays int) Window {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	to := now.AddDate(0, 0, -1)
	return Window{From: now.AddDate(0, 0, -lookbackDays), To: to}
}

// ParseWindow parses a from/to pair in DateLayout. An empty to means the same day as from.
func ParseWindow(from, to string) (Window, error) {
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return Window{}, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end := start
	if to != "" {
		if end, err = time.Parse(DateLayout, to); err != nil {
			return Window{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("to date %s is before from date %s", to, from)
	}
	return Window{From: start, To: end}, nil
}

type fetchRequest struct {
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
}

// statusError is a non-2xx webhook response
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.code, e.body)
}

// Client fetches order payloads from the configured webhook
type Client struct {
	config     *common.SourceConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    time.Duration
	logger     arbor.ILogger
}

// NewClient creates a webhook client. With [source.oauth] token_url set, requests carry a
// client-credentials bearer token.
func NewClient(config *common.SourceConfig, logger arbor.ILogger) *Client {
	timeout := common.ParseDuration(config.Timeout, 60*time.Second)
	base := &http.Client{Timeout: timeout}

	var transport http.RoundTripper = http.DefaultTransport
	if config.OAuth.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     config.OAuth.ClientID,
			ClientSecret: config.OAuth.ClientSecret,
			TokenURL:     config.OAuth.TokenURL,
			Scopes:       config.OAuth.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		transport = &oauth2.Transport{Source: cc.TokenSource(ctx), Base: http.DefaultTransport}
	}
	if config.OAuth.RetailerHeader != "" && config.OAuth.Retailer != "" {
		transport = &headerTransport{name: config.OAuth.RetailerHeader, value: config.OAuth.Retailer, base: transport}
	}

	interval := common.ParseDuration(config.RateLimit, time.Second)

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		backoff:    time.Second,
		logger:     logger,
	}
}

// Fetch posts the window to the webhook and decodes the JSON response.
// 5xx responses and transport errors are retried up to max_retries times.
func (c *Client) Fetch(ctx context.Context, window Window) (any, error) {
	if c.config.WebhookURL == "" {
		return nil, ErrNoWebhook
	}

	body, err := json.Marshal(fetchRequest{
		FromDate: window.From.Format(DateLayout),
		ToDate:   window.To.Format(DateLayout),
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			c.logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", wait).
				Err(lastErr).
				Msg("Retrying webhook fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		payload, err := c.post(ctx, body)
		if err == nil {
			c.logger.Info().
				Str("from", window.From.Format(DateLayout)).
				Str("to", window.To.Format(DateLayout)).
				Msg("Payload fetched from webhook")
			return payload, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var se *statusError
		if errors.As(err, &se) && se.code < 500 {
			return nil, err
		}
	}

	return nil, fmt.Errorf("webhook fetch failed after %d retries: %w", c.config.MaxRetries, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: string(snippet)}
	}

	return Decode(resp.Body, FormatJSON)
}

// headerTransport adds a fixed header to every request
type headerTransport struct {
	name  string
	value string
	base  http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set(t.name, t.value)
	return t.base.RoundTrip(clone)
}
