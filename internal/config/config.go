package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/insightd/internal/model"
)

// Config is the root configuration for insightd.
type Config struct {
	Database     DatabaseConfig
	Search       SearchConfig
	Fetch        FetchConfig
	AI           AIConfig
	Collect      CollectConfig
	Server       ServerConfig
	Notification NotificationConfig
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	Path   string // sqlite file path
	DSN    string // postgres connection string, expanded from env by Load
}

// SearchConfig controls the Google Custom Search client.
type SearchConfig struct {
	BaseURL        string
	APIKey         string
	EngineID       string
	ResultCount    int
	ExcludeDomains []string
	MinDelay       time.Duration // minimum gap between two search calls
	Timeout        time.Duration
	MaxRetries     int
}

// FetchConfig controls the page fetcher.
type FetchConfig struct {
	Timeout     time.Duration
	Concurrency int
	UserAgent   string
	MaxBytes    int64
}

// StageConfig is one step of the content transform chain.
type StageConfig struct {
	Name         string `yaml:"name"`
	Model        string `yaml:"model"`
	Instructions string `yaml:"instructions"` // text/template; {{.SearchWord}} is available
	MaxTokens    int    `yaml:"max_tokens"`
	StripHTML    bool   `yaml:"strip_html"`
}

// ClassifierConfig controls the category classifier.
type ClassifierConfig struct {
	Model           string         `yaml:"model"`
	MaxTokens       int            `yaml:"max_tokens"`
	DefaultCategory model.Category `yaml:"default_category"`
}

// StructureConfig controls the structured-info extraction job.
type StructureConfig struct {
	Model          string `yaml:"model"`
	MaxInputTokens int    `yaml:"max_input_tokens"`
}

// AIConfig controls the OpenAI-compatible completion provider.
type AIConfig struct {
	BaseURL        string        // defaults to https://api.openai.com/v1
	APIKey         string        // expanded from env var by Load
	Timeout        time.Duration // per-request timeout
	MaxRetries     int
	RetryBaseDelay time.Duration
	Stages         []StageConfig
	Classifier     ClassifierConfig
	Structure      StructureConfig
}

// CollectConfig controls the scheduled jobs.
type CollectConfig struct {
	Interval           time.Duration // collect-all period
	StructureInterval  time.Duration // structured-info period
	StalenessWindow    time.Duration
	KeywordConcurrency int
	RunTimeout         time.Duration
	Keywords           []string // seeded into the store at startup
}

// ServerConfig controls the read-only HTTP surface.
type ServerConfig struct {
	Enabled bool
	Addr    string
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultSearchBaseURL = "https://www.googleapis.com/customsearch/v1"
	defaultUserAgent     = "insightd/1.0"

	// DefaultExtractInstructions is the first transform stage prompt.
	DefaultExtractInstructions = "Read the HTML content and extract information related to the search term ({{.SearchWord}})."
	// DefaultRefineInstructions is the second transform stage prompt.
	DefaultRefineInstructions = "Exclude unnecessary information and extract only the key points. Focus on extracting information that would be helpful for foreigners who want to work in Korea."
)

// DefaultStages mirrors the two-step summarization the pipeline was built around.
func DefaultStages() []StageConfig {
	return []StageConfig{
		{Name: "extract", Model: "gpt-3.5-turbo", Instructions: DefaultExtractInstructions, MaxTokens: 4000, StripHTML: true},
		{Name: "refine", Model: "gpt-4", Instructions: DefaultRefineInstructions, MaxTokens: 4000},
	}
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Database     DatabaseConfig     `yaml:"database"`
	Search       rawSearchConfig    `yaml:"search"`
	Fetch        rawFetchConfig     `yaml:"fetch"`
	AI           rawAIConfig        `yaml:"ai"`
	Collect      rawCollectConfig   `yaml:"collect"`
	Server       rawServerConfig    `yaml:"server"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawSearchConfig struct {
	BaseURL        string   `yaml:"base_url"`
	APIKey         string   `yaml:"api_key"`
	EngineID       string   `yaml:"engine_id"`
	ResultCount    int      `yaml:"result_count"`
	ExcludeDomains []string `yaml:"exclude_domains"`
	MinDelay       string   `yaml:"min_delay"`
	Timeout        string   `yaml:"timeout"`
	MaxRetries     *int     `yaml:"max_retries"`
}

type rawFetchConfig struct {
	Timeout     string `yaml:"timeout"`
	Concurrency int    `yaml:"concurrency"`
	UserAgent   string `yaml:"user_agent"`
	MaxBytes    int64  `yaml:"max_bytes"`
}

type rawAIConfig struct {
	BaseURL        string           `yaml:"base_url"`
	APIKey         string           `yaml:"api_key"`
	Timeout        string           `yaml:"timeout"`
	MaxRetries     *int             `yaml:"max_retries"`
	RetryBaseDelay string           `yaml:"retry_base_delay"`
	Stages         []StageConfig    `yaml:"stages"`
	Classifier     ClassifierConfig `yaml:"classifier"`
	Structure      StructureConfig  `yaml:"structure"`
}

type rawCollectConfig struct {
	Interval           string   `yaml:"interval"`
	StructureInterval  string   `yaml:"structure_interval"`
	StalenessWindow    string   `yaml:"staleness_window"`
	KeywordConcurrency int      `yaml:"keyword_concurrency"`
	RunTimeout         string   `yaml:"run_timeout"`
	Keywords           []string `yaml:"keywords"`
}

type rawServerConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	p := durationParser{}
	cfg := &Config{
		Database: raw.Database,
		Search: SearchConfig{
			BaseURL:        orDefault(raw.Search.BaseURL, defaultSearchBaseURL),
			APIKey:         raw.Search.APIKey,
			EngineID:       raw.Search.EngineID,
			ResultCount:    raw.Search.ResultCount,
			ExcludeDomains: raw.Search.ExcludeDomains,
			MinDelay:       p.parse("search.min_delay", raw.Search.MinDelay, time.Second),
			Timeout:        p.parse("search.timeout", raw.Search.Timeout, 15*time.Second),
			MaxRetries:     intOrDefault(raw.Search.MaxRetries, 2),
		},
		Fetch: FetchConfig{
			Timeout:     p.parse("fetch.timeout", raw.Fetch.Timeout, 20*time.Second),
			Concurrency: raw.Fetch.Concurrency,
			UserAgent:   orDefault(raw.Fetch.UserAgent, defaultUserAgent),
			MaxBytes:    raw.Fetch.MaxBytes,
		},
		AI: AIConfig{
			BaseURL:        orDefault(raw.AI.BaseURL, defaultOpenAIBaseURL),
			APIKey:         raw.AI.APIKey,
			Timeout:        p.parse("ai.timeout", raw.AI.Timeout, 60*time.Second),
			MaxRetries:     intOrDefault(raw.AI.MaxRetries, 3),
			RetryBaseDelay: p.parse("ai.retry_base_delay", raw.AI.RetryBaseDelay, 2*time.Second),
			Stages:         raw.AI.Stages,
			Classifier:     raw.AI.Classifier,
			Structure:      raw.AI.Structure,
		},
		Collect: CollectConfig{
			Interval:           p.parse("collect.interval", raw.Collect.Interval, 24*time.Hour),
			StructureInterval:  p.parse("collect.structure_interval", raw.Collect.StructureInterval, 7*24*time.Hour),
			StalenessWindow:    p.parse("collect.staleness_window", raw.Collect.StalenessWindow, 30*24*time.Hour),
			KeywordConcurrency: raw.Collect.KeywordConcurrency,
			RunTimeout:         p.parse("collect.run_timeout", raw.Collect.RunTimeout, 30*time.Minute),
			Keywords:           raw.Collect.Keywords,
		},
		Server: ServerConfig{
			Enabled: raw.Server.Enabled == nil || *raw.Server.Enabled,
			Addr:    orDefault(raw.Server.Addr, ":8080"),
		},
		Notification: raw.Notification,
	}
	if p.err != nil {
		return nil, p.err
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "insightd.db"
	}
	if cfg.Search.ResultCount == 0 {
		cfg.Search.ResultCount = 10
	}
	if cfg.Fetch.Concurrency == 0 {
		cfg.Fetch.Concurrency = 5
	}
	if cfg.Fetch.MaxBytes == 0 {
		cfg.Fetch.MaxBytes = 5 << 20
	}
	if len(cfg.AI.Stages) == 0 {
		cfg.AI.Stages = DefaultStages()
	}
	for i := range cfg.AI.Stages {
		if cfg.AI.Stages[i].MaxTokens == 0 {
			cfg.AI.Stages[i].MaxTokens = 4000
		}
	}
	if cfg.AI.Classifier.Model == "" {
		cfg.AI.Classifier.Model = "gpt-3.5-turbo"
	}
	if cfg.AI.Classifier.MaxTokens == 0 {
		cfg.AI.Classifier.MaxTokens = 4000
	}
	if cfg.AI.Classifier.DefaultCategory == "" {
		cfg.AI.Classifier.DefaultCategory = model.CategoryIndustry
	}
	if cfg.AI.Structure.Model == "" {
		cfg.AI.Structure.Model = "gpt-4o-2024-08-06"
	}
	if cfg.AI.Structure.MaxInputTokens == 0 {
		cfg.AI.Structure.MaxInputTokens = 12000
	}
	if cfg.Collect.KeywordConcurrency == 0 {
		cfg.Collect.KeywordConcurrency = 1
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required when driver is \"postgres\"")
		}
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Database.Driver)
	}

	if cfg.Search.APIKey == "" || cfg.Search.EngineID == "" {
		return fmt.Errorf("search.api_key and search.engine_id are required")
	}
	if cfg.Search.ResultCount < 1 || cfg.Search.ResultCount > 10 {
		return fmt.Errorf("search.result_count must be between 1 and 10, got %d", cfg.Search.ResultCount)
	}
	if cfg.Search.MaxRetries < 0 || cfg.AI.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}

	if cfg.Fetch.Concurrency < 0 {
		return fmt.Errorf("fetch.concurrency must be positive, got %d", cfg.Fetch.Concurrency)
	}

	if cfg.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}
	seen := make(map[string]bool)
	for i, s := range cfg.AI.Stages {
		if s.Name == "" {
			return fmt.Errorf("ai.stages[%d].name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("ai.stages[%d]: duplicate stage name %q", i, s.Name)
		}
		seen[s.Name] = true
		if s.Model == "" || strings.TrimSpace(s.Instructions) == "" {
			return fmt.Errorf("ai.stages[%d] (%s): model and instructions are required", i, s.Name)
		}
		if s.MaxTokens < 0 {
			return fmt.Errorf("ai.stages[%d] (%s): max_tokens must be positive", i, s.Name)
		}
	}
	if _, ok := model.ParseCategory(string(cfg.AI.Classifier.DefaultCategory)); !ok {
		return fmt.Errorf("ai.classifier.default_category must be one of visa, culture, industry, got %q", cfg.AI.Classifier.DefaultCategory)
	}

	if cfg.Collect.Interval <= 0 || cfg.Collect.StructureInterval <= 0 {
		return fmt.Errorf("collect.interval and collect.structure_interval must be positive")
	}
	if cfg.Collect.StalenessWindow <= 0 {
		return fmt.Errorf("collect.staleness_window must be positive, got %v", cfg.Collect.StalenessWindow)
	}
	if cfg.Collect.KeywordConcurrency < 1 {
		return fmt.Errorf("collect.keyword_concurrency must be at least 1, got %d", cfg.Collect.KeywordConcurrency)
	}
	if cfg.Collect.RunTimeout <= 0 {
		return fmt.Errorf("collect.run_timeout must be positive, got %v", cfg.Collect.RunTimeout)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}

// durationParser keeps the first parse error so Load can build Config in one literal.
type durationParser struct {
	err error
}

func (p *durationParser) parse(field, raw string, def time.Duration) time.Duration {
	if raw == "" || p.err != nil {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.err = fmt.Errorf("parse %s %q: %w", field, raw, err)
		return def
	}
	return d
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
