// Package gemini condenses and translates article text with Google's Gemini
// models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/newsbot/internal/summarize"
	"github.com/deusflow/newsbot/internal/translate"
)

const DefaultModel = "gemini-1.5-flash"

// maxPromptChars bounds the article text sent in one prompt.
const maxPromptChars = 6000

var errNoResponse = errors.New("no response from Gemini")

// Client talks to the Gemini API.
type Client struct {
	client *genai.Client

	// generate is the single call to the model; tests replace it.
	generate func(ctx context.Context, prompt string) (string, error)
}

// NewClient returns a Client using model, or DefaultModel when model is empty.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}

	gm := client.GenerativeModel(model)
	c := &Client{client: client}
	c.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", errNoResponse
		}
		return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
	}
	return c, nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *Client) Name() string { return "gemini" }

// Condense implements summarize.Condenser.
func (c *Client) Condense(ctx context.Context, title, text string, sentences int) (string, error) {
	if sentences <= 0 {
		return "", summarize.ErrEmptySummary
	}

	prompt := fmt.Sprintf(`Summarize this news article in at most %d sentences.
Keep names of brands and organizations as they are.
Avoid introductions like "The article says that...".
Answer with the summary only, in the language of the article.

Title: %s
Article: %s`, sentences, title, prepareContent(text))

	out, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	out = cleanResponse(out)
	if out == "" {
		return "", summarize.ErrEmptySummary
	}
	return out, nil
}

// Translate implements translate.Translator.
func (c *Client) Translate(ctx context.Context, text, target string) (string, error) {
	out, err := c.generate(ctx, translate.Prompt(prepareContent(text), target))
	if err != nil {
		return "", err
	}
	out = cleanResponse(out)
	if out == "" {
		return "", errNoResponse
	}
	return out, nil
}

// prepareContent collapses whitespace and cuts overly long text, preferring
// to stop at the end of a sentence.
func prepareContent(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= maxPromptChars {
		return content
	}

	trimmed := string([]rune(content)[:maxPromptChars])
	if idx := strings.LastIndex(trimmed, ". "); idx > maxPromptChars/5 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed
}

var labelRe = regexp.MustCompile(`(?i)^(summary|translation|résumé|الملخص|الترجمة)\s*:\s*`)

// cleanResponse strips markdown fences, a leading label, and surrounding
// whitespace that models sometimes add despite the instructions.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	return strings.TrimSpace(labelRe.ReplaceAllString(s, ""))
}

var (
	_ summarize.Condenser  = (*Client)(nil)
	_ translate.Translator = (*Client)(nil)
)
