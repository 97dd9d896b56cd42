// Package translate translates article text through external services.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deusflow/newsbot/internal/logger"
)

// ErrNoProviders is returned by an empty Chain.
var ErrNoProviders = errors.New("no translation providers configured")

// Translator translates text into the target language. On failure it returns
// a non-nil error describing why; the text result is then meaningless.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Named is implemented by translators that can report a short provider name
// for logs and metrics.
type Named interface {
	Name() string
}

// ProviderName returns t's name, or "translator" when t is not Named.
func ProviderName(t Translator) string {
	if n, ok := t.(Named); ok {
		return n.Name()
	}
	return "translator"
}

// Chain tries each translator in order and returns the first success.
type Chain struct {
	translators []Translator
	slog        *slog.Logger
}

// NewChain returns a Chain over ts.
func NewChain(log *slog.Logger, ts ...Translator) *Chain {
	return &Chain{translators: ts, slog: logger.OrDiscard(log)}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.translators))
	for i, t := range c.translators {
		names[i] = ProviderName(t)
	}
	return strings.Join(names, ",")
}

// Translate implements Translator. Empty text is returned as is.
func (c *Chain) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if len(c.translators) == 0 {
		return "", ErrNoProviders
	}

	var errs []error
	for _, t := range c.translators {
		name := ProviderName(t)
		result, err := t.Translate(ctx, text, target)
		if err == nil && strings.TrimSpace(result) == "" {
			err = errors.New("empty translation")
		}
		if err != nil {
			c.slog.Warn("translation provider failed", "provider", name, "target", target, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		c.slog.Info("translation ok", "provider", name, "target", target)
		return result, nil
	}
	return "", errors.Join(errs...)
}

var _ Translator = (*Chain)(nil)
