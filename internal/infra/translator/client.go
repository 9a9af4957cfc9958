// Package translator calls an OpenAI-compatible chat completions endpoint to translate text.
package translator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/coachpo/eobrowser/errs"
)

const (
	component          = "translator"
	defaultModel       = "gpt-4o-mini"
	defaultTimeout     = 20 * time.Second
	defaultMaxAttempts = 3
	maxResponseBytes   = 1 << 20
)

// ErrDisabled reports that no API key is configured.
var ErrDisabled = errors.New("translator disabled")

// Config configures the remote translator.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxAttempts   int
}

// Client translates text with rate limiting and bounded retries.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxAttempts int
	http        *http.Client
	limiter     *rate.Limiter
	newBackOff  func() backoff.BackOff
}

// New constructs a client. A nil httpClient gets one with the configured timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL:     strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		maxAttempts: attempts,
		http:        httpClient,
		limiter:     rate.NewLimiter(limit, burst),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

// Enabled reports whether calls can reach the remote endpoint.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != "" && c.baseURL != ""
}

// Prompt renders the instruction sent to the model.
func Prompt(text, languageName string) string {
	return fmt.Sprintf("Translate the following text to %s: \"%s\"", languageName, text)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// Translate returns the trimmed model output for text in the named language.
func (c *Client) Translate(ctx context.Context, text, languageName string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	payload, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: Prompt(text, languageName)}},
	})
	if err != nil {
		return "", fmt.Errorf("encode translation request: %w", err)
	}

	policy := c.newBackOff()
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		out, retry, err := c.call(ctx, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retry || attempt == c.maxAttempts {
			break
		}
		sleep := policy.NextBackOff()
		if sleep == backoff.Stop {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(sleep):
		}
	}
	return "", lastErr
}

func (c *Client) call(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, errs.New(component, errs.CodeNetwork, errs.WithMessage("translation request failed"), errs.WithCause(err))
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", true, errs.New(component, errs.CodeNetwork, errs.WithMessage("read translation response"), errs.WithCause(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		message := gjson.GetBytes(body, "error.message").String()
		if message == "" {
			message = resp.Status
		}
		return "", retry, errs.New(component, errs.CodeRemote,
			errs.WithMessage(message),
			errs.WithDetails(string(body)))
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", false, errs.New(component, errs.CodeRemote, errs.WithMessage("translation response has no content"))
	}
	return strings.TrimSpace(content.String()), false, nil
}
