package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/deusflow/newsbot/internal/config"
	"github.com/deusflow/newsbot/internal/gemini"
	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/metrics"
	"github.com/deusflow/newsbot/internal/retry"
	"github.com/deusflow/newsbot/internal/rss"
	"github.com/deusflow/newsbot/internal/storage"
	"github.com/deusflow/newsbot/internal/summarize"
	"github.com/deusflow/newsbot/internal/telegram"
	"github.com/deusflow/newsbot/internal/translate"
)

// New builds a Pipeline from cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Pipeline, error) {
	log = logger.OrDiscard(log)
	httpc := &http.Client{Timeout: cfg.RequestTimeout}

	p := &Pipeline{
		Feed:    rss.NewFetcher(httpc, log),
		Metrics: metrics.New(),
		Logger:  log,
		Options: Options{
			FeedURL:                cfg.FeedURL,
			SummarySentences:       cfg.SummarySentences,
			MinWordsForSummary:     cfg.MinWordsForSummary,
			TargetLanguage:         cfg.TargetLanguage,
			TranslationFallback:    cfg.TranslationFallback,
			TranslationErrorNotice: cfg.TranslationErrorNotice,
			Message: MessageOptions{
				ReadMoreLabel: cfg.ReadMoreLabel,
				BoldTitle:     cfg.BoldTitle,
			},
		},
		Publisher: telegram.NewPublisher(telegram.Config{
			Token:                 cfg.TelegramToken,
			ChatID:                cfg.TelegramChatID,
			DisableWebPagePreview: cfg.DisableWebPagePreview,
			Retry: retry.RetryConfig{
				MaxAttempts: cfg.PublishRetryAttempts,
				Delay:       2 * time.Second,
				Backoff:     true,
			},
			HTTPClient: httpc,
			Logger:     log,
		}),
	}

	store, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.StateBackend,
		FilePath:    cfg.StateFile,
		Key:         cfg.StateKey,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	p.State = store
	p.closers = append(p.closers, store.Close)

	var gc *gemini.Client
	geminiClient := func() (*gemini.Client, error) {
		if gc != nil {
			return gc, nil
		}
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		gc = c
		p.closers = append(p.closers, c.Close)
		return c, nil
	}

	switch cfg.Condenser {
	case "extractive":
		p.Condenser = summarize.NewExtractive()
	case "gemini":
		c, err := geminiClient()
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Condenser = c
	}

	var translators []translate.Translator
	for _, name := range cfg.Translators {
		switch name {
		case "google":
			translators = append(translators, translate.NewGoogle(httpc, cfg.SourceLanguage, log))
		case "openai":
			translators = append(translators, translate.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, ""))
		case "gemini":
			c, err := geminiClient()
			if err != nil {
				p.Close()
				return nil, err
			}
			translators = append(translators, c)
		}
	}
	if cfg.TranslationEnabled() {
		p.Translator = translate.NewChain(log, translators...)
	}

	log.Debug("pipeline ready",
		"feed", cfg.FeedURL,
		"state_backend", cfg.StateBackend,
		"condenser", cfg.Condenser,
		"translators", cfg.Translators,
	)
	return p, nil
}
