package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI translates with a chat completion model.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns an OpenAI translator. baseURL overrides the API endpoint
// when non-empty.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Name() string { return "openai" }

// Translate implements Translator.
func (o *OpenAI) Translate(ctx context.Context, text, target string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: Prompt(text, target),
			},
		},
		MaxCompletionTokens: 2000,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Prompt builds the translation instruction shared by the LLM providers.
func Prompt(text, target string) string {
	return fmt.Sprintf(`Translate the following news text to the language with code %q.
Keep the meaning, tone and journalistic style of the original.
Translate only the text itself, without additional comments.

Text to translate:
%s`, target, text)
}

var _ Translator = (*OpenAI)(nil)
