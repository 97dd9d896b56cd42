// Package app runs one fetch-and-publish cycle of the bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/newsbot/internal/cleaner"
	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/metrics"
	"github.com/deusflow/newsbot/internal/rss"
	"github.com/deusflow/newsbot/internal/storage"
	"github.com/deusflow/newsbot/internal/summarize"
	"github.com/deusflow/newsbot/internal/translate"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeMissingConfig Outcome = "missing_config"
	OutcomeEmptyFeed     Outcome = "empty_feed"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomePublishFailed Outcome = "publish_failed"
	OutcomePublished     Outcome = "published"
)

// Fallback values for a failed translation.
const (
	FallbackOriginal = "original"
	FallbackNotice   = "notice"
)

// Publisher delivers a formatted message.
type Publisher interface {
	Configured() bool
	Publish(ctx context.Context, text string) error
}

// Options are the per-run settings of a Pipeline.
type Options struct {
	FeedURL string

	SummarySentences   int
	MinWordsForSummary int

	TargetLanguage         string
	TranslationFallback    string // FallbackOriginal or FallbackNotice
	TranslationErrorNotice string

	Message MessageOptions
}

// Pipeline wires the stages of one run. Condenser and Translator are
// optional; a nil value skips the stage.
type Pipeline struct {
	Feed       rss.FeedSource
	State      storage.StateStore
	Condenser  summarize.Condenser
	Translator translate.Translator
	Publisher  Publisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Options    Options

	closers []func() error
	now     func() time.Time
}

// Run performs one cycle. It returns an error only for failures that are
// not a regular outcome: the feed cannot be fetched, or the published link
// cannot be saved.
func (p *Pipeline) Run(ctx context.Context) (outcome Outcome, err error) {
	log := logger.OrDiscard(p.Logger)
	now := p.now
	if now == nil {
		now = time.Now
	}

	start := now()
	defer func() {
		label := string(outcome)
		if err != nil {
			label = "error"
		}
		p.Metrics.RecordRun(label, now().Sub(start))
	}()

	if !p.Publisher.Configured() {
		log.Error("telegram bot token or chat id not configured")
		return OutcomeMissingConfig, nil
	}

	last, hasLast, err := p.State.LastLink(ctx)
	if err != nil {
		log.Warn("cannot read state, treating as no history", "error", err)
		last, hasLast = "", false
	}
	log.Debug("last sent link", "link", last, "present", hasLast)

	article, err := p.Feed.Latest(ctx, p.Options.FeedURL)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	if article == nil {
		log.Info("no entries found in the feed", "url", p.Options.FeedURL)
		return OutcomeEmptyFeed, nil
	}

	if hasLast && article.SameLink(last) {
		log.Info("no new articles, latest one was already sent", "link", article.Link)
		return OutcomeDuplicate, nil
	}

	log.Info("new article", "title", article.Title, "link", article.Link)

	text := cleaner.Normalize(article.Description)
	if text == "" {
		log.Info("description empty after cleaning, using title")
		text = article.Title
	}

	summary := p.condense(ctx, log, article.Title, text)
	summary = p.translate(ctx, log, summary)

	body := FormatMessage(article.Title, summary, article.Link, p.Options.Message)
	if err := p.Publisher.Publish(ctx, body); err != nil {
		log.Error("failed to send article, state not updated", "title", article.Title, "error", err)
		return OutcomePublishFailed, nil
	}
	p.Metrics.RecordPublished(now())

	if err := p.State.SaveLink(ctx, article.Link); err != nil {
		return "", fmt.Errorf("save last sent link: %w", err)
	}
	log.Info("article sent, state updated", "link", article.Link)
	return OutcomePublished, nil
}

func (p *Pipeline) condense(ctx context.Context, log *slog.Logger, title, text string) string {
	if p.Condenser == nil {
		return text
	}
	if summarize.IsBypassed(text, p.Options.MinWordsForSummary) {
		log.Debug("text below summary threshold, skipping condensation",
			"words", cleaner.WordCount(text), "min_words", p.Options.MinWordsForSummary)
		p.Metrics.RecordStep("condense", metrics.ResultBypassed)
		return text
	}

	out, err := p.Condenser.Condense(ctx, title, text, p.Options.SummarySentences)
	if err == nil && out == "" {
		err = summarize.ErrEmptySummary
	}
	if err != nil {
		log.Warn("condensation failed, using full text", "error", err)
		p.Metrics.RecordStep("condense", metrics.ResultFailed)
		return text
	}
	p.Metrics.RecordStep("condense", metrics.ResultOK)
	return out
}

func (p *Pipeline) translate(ctx context.Context, log *slog.Logger, text string) string {
	if p.Translator == nil {
		return text
	}

	out, err := p.Translator.Translate(ctx, text, p.Options.TargetLanguage)
	if err == nil && out == "" {
		err = errors.New("empty translation")
	}
	if err != nil {
		p.Metrics.RecordStep("translate", metrics.ResultFailed)
		if p.Options.TranslationFallback == FallbackNotice {
			log.Warn("translation failed, sending notice", "error", err)
			return p.Options.TranslationErrorNotice
		}
		log.Warn("translation failed, sending original text", "error", err)
		return text
	}
	p.Metrics.RecordStep("translate", metrics.ResultOK)
	return out
}

// Close releases the resources opened by New.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	p.closers = nil
	return errors.Join(errs...)
}
