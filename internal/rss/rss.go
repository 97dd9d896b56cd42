// Package rss fetches a feed and picks its newest entry.
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/news"
)

const userAgent = "newsbot/1.0 (+https://github.com/deusflow/newsbot)"

// FeedSource returns the newest article of a feed, or nil when the feed has
// no entries.
type FeedSource interface {
	Latest(ctx context.Context, url string) (*news.Article, error)
}

// Fetcher is a FeedSource backed by gofeed.
type Fetcher struct {
	parser *gofeed.Parser
	slog   *slog.Logger
}

// NewFetcher returns a Fetcher using httpc for requests. A nil httpc means
// http.DefaultClient.
func NewFetcher(httpc *http.Client, log *slog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = httpc
	parser.UserAgent = userAgent
	return &Fetcher{parser: parser, slog: logger.OrDiscard(log)}
}

// Latest downloads and parses the feed and returns its first entry in parse
// order. Network and parse errors are returned as is.
func (f *Fetcher) Latest(ctx context.Context, url string) (*news.Article, error) {
	f.slog.Info("fetching feed", "url", url)

	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	article := FirstArticle(feed)
	if article == nil {
		return nil, nil
	}

	f.slog.Info("fetched article", "title", article.Title, "link", article.Link, "entries", len(feed.Items))
	return article, nil
}

// FirstArticle converts the first item of feed into an Article. It returns
// nil for a feed without items.
func FirstArticle(feed *gofeed.Feed) *news.Article {
	if feed == nil || len(feed.Items) == 0 || feed.Items[0] == nil {
		return nil
	}
	item := feed.Items[0]

	// Summary first, then full content, then nothing.
	description := item.Description
	if description == "" {
		description = item.Content
	}

	return &news.Article{
		Title:       item.Title,
		Link:        item.Link,
		Description: description,
	}
}

var _ FeedSource = (*Fetcher)(nil)
