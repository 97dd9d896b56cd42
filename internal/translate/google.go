package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/deusflow/newsbot/internal/logger"
)

const googleBaseURL = "https://translate.googleapis.com/translate_a/single"

// maxGoogleChars keeps the query string under the endpoint's URL limit.
const maxGoogleChars = 4000

// Google uses the public translate.googleapis.com endpoint. It needs no key.
type Google struct {
	baseURL string
	source  string
	httpc   *http.Client
	slog    *slog.Logger
}

// NewGoogle returns a Google translator. source is the source language code,
// "auto" for detection.
func NewGoogle(httpc *http.Client, source string, log *slog.Logger) *Google {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if source == "" {
		source = "auto"
	}
	return &Google{baseURL: googleBaseURL, source: source, httpc: httpc, slog: logger.OrDiscard(log)}
}

func (g *Google) Name() string { return "google" }

// Translate implements Translator.
func (g *Google) Translate(ctx context.Context, text, target string) (string, error) {
	if r := []rune(text); len(r) > maxGoogleChars {
		g.slog.Warn("text too long for google translate, truncating",
			"chars", len(r), "limit", maxGoogleChars)
		text = string(r[:maxGoogleChars])
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", g.source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := g.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google translate returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	translation, err := parseGoogleResponse(body)
	if err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	return translation, nil
}

// parseGoogleResponse joins the translated segments of a gtx response, which
// looks like [[["Hola","Hello",null,null,1], ...], null, "en", ...].
func parseGoogleResponse(body []byte) (string, error) {
	var response []any
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", errors.New("empty response")
	}

	segments, ok := response[0].([]any)
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var result strings.Builder
	for _, segment := range segments {
		parts, ok := segment.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if translated, ok := parts[0].(string); ok {
			result.WriteString(translated)
		}
	}

	if result.Len() == 0 {
		return "", errors.New("no translated segments")
	}
	return result.String(), nil
}

var _ Translator = (*Google)(nil)
