package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/newsbot/internal/news"
)

const twoItemFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Test</title>
  <link>http://x/</link>
  <description>test feed</description>
  <item>
    <title>A</title>
    <link>http://x/1</link>
    <description>&lt;p&gt;Hello world&lt;/p&gt;</description>
  </item>
  <item>
    <title>B</title>
    <link>http://x/0</link>
    <description>older</description>
  </item>
</channel>
</rss>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Empty</title>
  <link>http://x/</link>
  <description>nothing here</description>
</channel>
</rss>`

const contentOnlyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Content</title>
  <item>
    <title>C</title>
    <link>http://x/c</link>
    <content:encoded><![CDATA[<p>Full body</p>]]></content:encoded>
  </item>
</channel>
</rss>`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("User-Agent = %q, want %q", r.Header.Get("User-Agent"), userAgent)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestPicksFirstEntry(t *testing.T) {
	srv := serve(t, http.StatusOK, twoItemFeed)

	got, err := NewFetcher(srv.Client(), nil).Latest(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}

	want := &news.Article{Title: "A", Link: "http://x/1", Description: "<p>Hello world</p>"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Latest() mismatch (-want +got):\n%s", diff)
	}
}

func TestLatestEmptyFeed(t *testing.T) {
	srv := serve(t, http.StatusOK, emptyFeed)

	got, err := NewFetcher(srv.Client(), nil).Latest(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got != nil {
		t.Errorf("Latest() = %v, want nil for empty feed", got)
	}
}

func TestLatestFallsBackToContent(t *testing.T) {
	srv := serve(t, http.StatusOK, contentOnlyFeed)

	got, err := NewFetcher(srv.Client(), nil).Latest(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got == nil || got.Description != "<p>Full body</p>" {
		t.Errorf("Latest() = %+v, want content:encoded as description", got)
	}
}

func TestLatestHTTPError(t *testing.T) {
	srv := serve(t, http.StatusInternalServerError, "boom")

	if _, err := NewFetcher(srv.Client(), nil).Latest(context.Background(), srv.URL); err == nil {
		t.Fatal("Latest() error = nil, want non-nil for HTTP 500")
	}
}

func TestFirstArticleNoDescription(t *testing.T) {
	feed := &gofeed.Feed{Items: []*gofeed.Item{{Title: "T", Link: "http://x/t"}}}

	got := FirstArticle(feed)
	want := &news.Article{Title: "T", Link: "http://x/t"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FirstArticle() mismatch (-want +got):\n%s", diff)
	}

	if FirstArticle(&gofeed.Feed{}) != nil {
		t.Errorf("FirstArticle() of feed without items should be nil")
	}
}
