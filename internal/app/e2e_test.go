package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsbot/internal/config"
	"github.com/deusflow/newsbot/internal/metrics"
	"github.com/deusflow/newsbot/internal/rss"
	"github.com/deusflow/newsbot/internal/storage"
	"github.com/deusflow/newsbot/internal/summarize"
	"github.com/deusflow/newsbot/internal/telegram"
)

const oneItemFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Test</title>
  <link>http://x/</link>
  <description>test</description>
  <item>
    <title>A</title>
    <link>http://x/1</link>
    <description>&lt;p&gt;Hello world&lt;/p&gt;</description>
  </item>
</channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(oneItemFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type sentMessages struct {
	mu    sync.Mutex
	texts []string
}

func (s *sentMessages) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// newBotServer records the text of every sendMessage call.
func newBotServer(t *testing.T, sent *sentMessages) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text      string `json:"text"`
			ParseMode string `json:"parse_mode"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "HTML", req.ParseMode)
		sent.mu.Lock()
		sent.texts = append(sent.texts, req.Text)
		sent.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEndToEnd(t *testing.T) {
	feedSrv := newFeedServer(t)
	sent := &sentMessages{}
	botSrv := newBotServer(t, sent)
	statePath := filepath.Join(t.TempDir(), "last_article_link.txt")

	tr := &fakeTranslator{out: "T"}
	p := &Pipeline{
		Feed:       rss.NewFetcher(feedSrv.Client(), nil),
		State:      storage.NewFileStore(statePath),
		Condenser:  summarize.NewExtractive(),
		Translator: tr,
		Publisher: telegram.NewPublisher(telegram.Config{
			Token:      "TOKEN",
			ChatID:     "@channel",
			BaseURL:    botSrv.URL,
			HTTPClient: botSrv.Client(),
		}),
		Metrics: metrics.New(),
		Options: Options{
			FeedURL:            feedSrv.URL,
			SummarySentences:   3,
			MinWordsForSummary: 20,
			TargetLanguage:     "ar",
			Message:            MessageOptions{ReadMoreLabel: config.DefaultReadMoreLabel, BoldTitle: true},
		},
	}

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomePublished, outcome)

	assert.Equal(t, []string{"Hello world"}, tr.inputs)
	require.Len(t, sent.all(), 1)
	assert.Equal(t, "<b>A</b>\n\nT\n\n<a href='http://x/1'>اقرأ المزيد</a>", sent.all()[0])

	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.Equal(t, "http://x/1", string(data))

	// Same feed again: nothing is sent and the state is untouched.
	outcome, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Len(t, sent.all(), 1)
}

func TestNewFromConfig(t *testing.T) {
	feedSrv := newFeedServer(t)

	cfg := config.Default()
	cfg.FeedURL = feedSrv.URL
	cfg.StateFile = filepath.Join(t.TempDir(), "state.txt")
	cfg.Translators = nil

	p, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.IsType(t, &storage.FileStore{}, p.State)
	assert.IsType(t, &summarize.Extractive{}, p.Condenser)
	assert.Nil(t, p.Translator)
	assert.Equal(t, feedSrv.URL, p.Options.FeedURL)

	// No credentials: the run stops before touching the feed or the state.
	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeMissingConfig, outcome)
	_, statErr := os.Stat(cfg.StateFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewTranslatorChain(t *testing.T) {
	cfg := config.Default()
	cfg.StateFile = filepath.Join(t.TempDir(), "state.txt")
	cfg.Condenser = "none"
	cfg.Translators = []string{"google", "openai"}
	cfg.OpenAIAPIKey = "sk-test"

	p, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Nil(t, p.Condenser)
	require.NotNil(t, p.Translator)
	assert.Equal(t, "google,openai", p.Translator.(interface{ Name() string }).Name())
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.StateBackend = "s3"

	_, err := New(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}
