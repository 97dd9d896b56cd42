// Package config builds the bot configuration once at process start.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFeedURL       = "http://feeds.feedburner.com/TechCrunch/"
	DefaultStateFile     = "last_article_link.txt"
	DefaultReadMoreLabel = "اقرأ المزيد"
)

type Config struct {
	// Feed settings
	FeedURL string `yaml:"feed_url"`

	// Telegram settings
	TelegramToken         string `yaml:"telegram_bot_token"`
	TelegramChatID        string `yaml:"telegram_chat_id"`
	DisableWebPagePreview bool   `yaml:"disable_web_page_preview"`
	PublishRetryAttempts  int    `yaml:"publish_retry_attempts"`

	// Message formatting
	ReadMoreLabel string `yaml:"read_more_label"`
	BoldTitle     bool   `yaml:"bold_title"`

	// State settings
	StateBackend string `yaml:"state_backend"` // file | postgres | redis
	StateFile    string `yaml:"state_file"`
	StateKey     string `yaml:"state_key"`
	DatabaseURL  string `yaml:"database_url"`
	RedisURL     string `yaml:"redis_url"`

	// Condensation
	Condenser          string `yaml:"condenser"` // extractive | gemini | none
	SummarySentences   int    `yaml:"summary_sentences"`
	MinWordsForSummary int    `yaml:"min_words_for_summary"`

	// Translation
	Translators            []string `yaml:"translators"` // google, openai, gemini; empty disables
	SourceLanguage         string   `yaml:"source_language"`
	TargetLanguage         string   `yaml:"target_language"`
	TranslationFallback    string   `yaml:"translation_fallback"` // original | notice
	TranslationErrorNotice string   `yaml:"translation_error_notice"`

	// AI providers
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`

	// App settings
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PushgatewayURL string        `yaml:"pushgateway_url"`
	LogLevel       string        `yaml:"log_level"`
	Debug          bool          `yaml:"debug"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		FeedURL:                DefaultFeedURL,
		PublishRetryAttempts:   1,
		ReadMoreLabel:          DefaultReadMoreLabel,
		BoldTitle:              true,
		StateBackend:           "file",
		StateFile:              DefaultStateFile,
		StateKey:               "last_article_link",
		Condenser:              "extractive",
		SummarySentences:       3,
		MinWordsForSummary:     20,
		Translators:            []string{"google"},
		SourceLanguage:         "auto",
		TargetLanguage:         "ar",
		TranslationFallback:    "original",
		TranslationErrorNotice: "Translation unavailable.",
		GeminiModel:            "gemini-1.5-flash",
		OpenAIModel:            "gpt-3.5-turbo",
		RequestTimeout:         30 * time.Second,
		LogLevel:               "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and finally the environment. getenv is usually os.Getenv.
//
// Malformed numeric or boolean environment values are ignored and the previous
// value is kept. Missing Telegram credentials are not an error here; see
// HasCredentials.
func Load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path := getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.FeedURL = getEnvOrDefault(getenv, "RSS_FEED_URL", cfg.FeedURL)
	cfg.TelegramToken = getEnvOrDefault(getenv, "TELEGRAM_BOT_TOKEN", cfg.TelegramToken)
	cfg.TelegramChatID = getEnvOrDefault(getenv, "TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	cfg.DisableWebPagePreview = getEnvBoolOrDefault(getenv, "DISABLE_WEB_PAGE_PREVIEW", cfg.DisableWebPagePreview)
	cfg.ReadMoreLabel = getEnvOrDefault(getenv, "READ_MORE_LABEL", cfg.ReadMoreLabel)
	cfg.BoldTitle = getEnvBoolOrDefault(getenv, "BOLD_TITLE", cfg.BoldTitle)

	cfg.StateBackend = strings.ToLower(getEnvOrDefault(getenv, "STATE_BACKEND", cfg.StateBackend))
	cfg.StateFile = getEnvOrDefault(getenv, "STATE_FILE", cfg.StateFile)
	cfg.StateKey = getEnvOrDefault(getenv, "STATE_KEY", cfg.StateKey)
	cfg.DatabaseURL = getEnvOrDefault(getenv, "DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnvOrDefault(getenv, "REDIS_URL", cfg.RedisURL)

	cfg.Condenser = strings.ToLower(getEnvOrDefault(getenv, "CONDENSER", cfg.Condenser))
	if v := getenv("SUMMARY_SENTENCES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.SummarySentences = val
		}
	}
	if v := getenv("MIN_WORDS_FOR_SUMMARY"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.MinWordsForSummary = val
		}
	}
	if v := getenv("PUBLISH_RETRY_ATTEMPTS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.PublishRetryAttempts = val
		}
	}

	if v := getenv("TRANSLATOR"); v != "" {
		cfg.Translators = splitList(v)
	}
	cfg.SourceLanguage = getEnvOrDefault(getenv, "SOURCE_LANGUAGE", cfg.SourceLanguage)
	cfg.TargetLanguage = getEnvOrDefault(getenv, "TARGET_LANGUAGE", cfg.TargetLanguage)
	cfg.TranslationFallback = strings.ToLower(getEnvOrDefault(getenv, "TRANSLATION_FALLBACK", cfg.TranslationFallback))
	cfg.TranslationErrorNotice = getEnvOrDefault(getenv, "TRANSLATION_ERROR_NOTICE", cfg.TranslationErrorNotice)

	cfg.GeminiAPIKey = getEnvOrDefault(getenv, "GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnvOrDefault(getenv, "GEMINI_MODEL", cfg.GeminiModel)
	cfg.OpenAIAPIKey = getEnvOrDefault(getenv, "OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = getEnvOrDefault(getenv, "OPENAI_MODEL", cfg.OpenAIModel)

	if v := getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
	cfg.PushgatewayURL = getEnvOrDefault(getenv, "PUSHGATEWAY_URL", cfg.PushgatewayURL)
	cfg.LogLevel = getEnvOrDefault(getenv, "LOG_LEVEL", cfg.LogLevel)
	if debug := getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

// HasCredentials reports whether both Telegram settings are present.
func (c *Config) HasCredentials() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// TranslationEnabled reports whether any translator is configured.
func (c *Config) TranslationEnabled() bool {
	return len(c.Translators) > 0
}

// Validate checks enumerated settings. It deliberately ignores missing
// credentials so that the run can report them as a regular outcome.
func (c *Config) Validate() error {
	switch c.StateBackend {
	case "file", "postgres", "redis":
	default:
		return fmt.Errorf("STATE_BACKEND must be 'file', 'postgres' or 'redis', got %q", c.StateBackend)
	}
	if c.StateBackend == "file" && c.StateFile == "" {
		return fmt.Errorf("STATE_FILE is required for the file state backend")
	}
	if c.StateBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres state backend")
	}
	if c.StateBackend == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required for the redis state backend")
	}

	switch c.Condenser {
	case "extractive", "none":
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for CONDENSER=gemini")
		}
	default:
		return fmt.Errorf("CONDENSER must be 'extractive', 'gemini' or 'none', got %q", c.Condenser)
	}

	for _, name := range c.Translators {
		switch name {
		case "google":
		case "openai":
			if c.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required for TRANSLATOR=openai")
			}
		case "gemini":
			if c.GeminiAPIKey == "" {
				return fmt.Errorf("GEMINI_API_KEY is required for TRANSLATOR=gemini")
			}
		default:
			return fmt.Errorf("unknown translator %q", name)
		}
	}

	if c.TranslationFallback != "original" && c.TranslationFallback != "notice" {
		return fmt.Errorf("TRANSLATION_FALLBACK must be 'original' or 'notice'")
	}
	return nil
}

func getEnvOrDefault(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(getenv func(string) string, key string, defaultValue bool) bool {
	if value := getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// splitList parses "google, openai" into its lowercase elements. "none"
// yields an empty list.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || part == "none" {
			continue
		}
		out = append(out, part)
	}
	return out
}
