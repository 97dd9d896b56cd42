// Package telegram publishes formatted messages through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/retry"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	// MaxMessageLength is the Bot API limit for message text, in characters.
	MaxMessageLength = 4096
)

// ErrNotConfigured is returned when the token or chat ID is missing. No
// request is made in that case.
var ErrNotConfigured = errors.New("telegram bot token or chat id not configured")

// Config configures a Publisher.
type Config struct {
	Token  string
	ChatID string

	// DisableWebPagePreview suppresses the link preview under the message.
	DisableWebPagePreview bool

	// Retry controls resending after transient failures. The zero value
	// sends once.
	Retry retry.RetryConfig

	// Optional.
	HTTPClient *http.Client
	BaseURL    string
	Logger     *slog.Logger
}

// Publisher sends messages to one chat.
type Publisher struct {
	cfg   Config
	httpc *http.Client
	slog  *slog.Logger
}

// NewPublisher returns a Publisher. Missing credentials are reported by
// Publish, not here.
func NewPublisher(cfg Config) *Publisher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Publisher{cfg: cfg, httpc: httpc, slog: logger.OrDiscard(cfg.Logger)}
}

// Configured reports whether both token and chat ID are set.
func (p *Publisher) Configured() bool {
	return p.cfg.Token != "" && p.cfg.ChatID != ""
}

// Publish sends text as an HTML message.
func (p *Publisher) Publish(ctx context.Context, text string) error {
	if !p.Configured() {
		return ErrNotConfigured
	}

	attempt := 0
	return retry.WithRetry(ctx, p.cfg.Retry, func() error {
		attempt++
		err := p.sendMessage(ctx, text)
		if err != nil {
			p.slog.Warn("telegram send failed", "attempt", attempt, "error", err)
			return err
		}
		p.slog.Info("message sent to telegram", "attempt", attempt)
		return nil
	})
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// APIError is a rejection reported by the Bot API.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("telegram API error: status %d: %s", e.StatusCode, e.Description)
}

func (p *Publisher) sendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                p.cfg.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: p.cfg.DisableWebPagePreview,
	})
	if err != nil {
		return retry.Permanent(fmt.Errorf("error make JSON: %w", err))
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", p.cfg.BaseURL, p.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		// The token is part of the URL; do not leak it through *url.Error.
		return fmt.Errorf("error HTTP request: %w", errors.Unwrap(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	var ar apiResponse
	_ = json.Unmarshal(respBody, &ar)
	if resp.StatusCode == http.StatusOK && ar.OK {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Description: ar.Description}
	if isPermanent(resp.StatusCode) {
		return retry.Permanent(apiErr)
	}
	return apiErr
}

// isPermanent reports whether resending the same request cannot succeed.
func isPermanent(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}
