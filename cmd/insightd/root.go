package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/insightd/internal/ai"
	"github.com/amishk599/insightd/internal/collector"
	"github.com/amishk599/insightd/internal/config"
	"github.com/amishk599/insightd/internal/fetch"
	"github.com/amishk599/insightd/internal/filter"
	"github.com/amishk599/insightd/internal/model"
	"github.com/amishk599/insightd/internal/notifier"
	"github.com/amishk599/insightd/internal/ratelimit"
	"github.com/amishk599/insightd/internal/retry"
	"github.com/amishk599/insightd/internal/search"
	"github.com/amishk599/insightd/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "insightd",
	Short: "Collects and structures insights for foreigners working in Korea",
	Long: "insightd searches the web for operator-managed keywords, summarizes and classifies\n" +
		"each result page with an LLM, and maintains structured visa, culture and industry info.",
	// Default to `start` so that `insightd` with no args runs the daemon.
	RunE:          runStart,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: INSIGHTD_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > INSIGHTD_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("INSIGHTD_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupStore(ctx context.Context, cfg *config.Config) (*store.SQLStore, error) {
	dsn := cfg.Database.Path
	if cfg.Database.Driver == "postgres" {
		dsn = cfg.Database.DSN
	}
	st, err := store.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
	}
	return st, nil
}

// seedKeywords adds every configured keyword that the store does not know yet.
// Existing rows keep their active flag.
func seedKeywords(ctx context.Context, keywords model.KeywordStore, seed []string, logger *slog.Logger) error {
	for _, kw := range seed {
		if err := keywords.AddKeyword(ctx, kw); err != nil {
			return fmt.Errorf("seeding keyword %q: %w", kw, err)
		}
	}
	if len(seed) > 0 {
		logger.Info("keywords seeded", "count", len(seed))
	}
	return nil
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// setupProvider returns the completion provider wrapped with retry on 429/5xx.
func setupProvider(cfg *config.Config, logger *slog.Logger) ai.LLMProvider {
	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	base := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, httpClient)
	return retry.NewRetryProvider(base, retry.Policy{
		MaxRetries: cfg.AI.MaxRetries,
		BaseDelay:  cfg.AI.RetryBaseDelay,
		Logger:     logger,
	})
}

// loadTokenizer is swapped in tests.
var loadTokenizer = func(modelName string) (ai.Tokenizer, error) {
	return ai.NewTiktokenTokenizer(modelName)
}

// tokenizerFor loads the encoding for modelName. Token budgets are mandatory,
// so a missing encoding is a setup error.
func tokenizerFor(modelName string) (ai.Tokenizer, error) {
	tok, err := loadTokenizer(modelName)
	if err != nil {
		return nil, fmt.Errorf("tokenizer for %s: %w", modelName, err)
	}
	return tok, nil
}

// setupSearcher builds search → filter → fetch, rate limited per call and
// retried on transient search failures.
func setupSearcher(cfg *config.Config, logger *slog.Logger) model.Searcher {
	fetcher := fetch.New(fetch.Config{
		Timeout:     cfg.Fetch.Timeout,
		Concurrency: cfg.Fetch.Concurrency,
		UserAgent:   cfg.Fetch.UserAgent,
		MaxBytes:    cfg.Fetch.MaxBytes,
	}, &http.Client{})

	google := search.NewGoogleClient(search.Config{
		BaseURL:  cfg.Search.BaseURL,
		APIKey:   cfg.Search.APIKey,
		EngineID: cfg.Search.EngineID,
	}, &http.Client{Timeout: cfg.Search.Timeout}, fetcher, filter.NewLinkFilter(cfg.Search.ExcludeDomains))

	// Shared limiter: every search call spends the same API quota.
	limiter := ratelimit.NewKeyedLimiter(cfg.Search.MinDelay)
	limited := ratelimit.NewRateLimitedSearcher(google, limiter, "google")

	return retry.NewRetrySearcher(limited, retry.Policy{
		MaxRetries: cfg.Search.MaxRetries,
		BaseDelay:  2 * time.Second,
		Logger:     logger,
	})
}

// buildCollector wires the collect pipeline. insights and keywords are split
// so dry runs can swap in a store that never writes.
func buildCollector(
	cfg *config.Config,
	insights model.InsightStore,
	keywords model.KeywordStore,
	n model.Notifier,
	logger *slog.Logger,
) (*collector.Collector, error) {
	provider := setupProvider(cfg, logger)

	stages := make([]ai.Stage, 0, len(cfg.AI.Stages))
	for _, sc := range cfg.AI.Stages {
		tok, err := tokenizerFor(sc.Model)
		if err != nil {
			return nil, err
		}
		t, err := ai.NewTransformer(ai.TransformerConfig{
			Name:         sc.Name,
			Model:        sc.Model,
			Instructions: sc.Instructions,
			MaxTokens:    sc.MaxTokens,
			StripHTML:    sc.StripHTML,
		}, provider, tok)
		if err != nil {
			return nil, err
		}
		stages = append(stages, t)
	}
	chain := ai.NewChain(stages...)

	classifyTok, err := tokenizerFor(cfg.AI.Classifier.Model)
	if err != nil {
		return nil, err
	}
	classifyStage, err := ai.NewTransformer(ai.TransformerConfig{
		Name:         "classify",
		Model:        cfg.AI.Classifier.Model,
		Instructions: ai.ClassifyInstructions,
		MaxTokens:    cfg.AI.Classifier.MaxTokens,
	}, provider, classifyTok)
	if err != nil {
		return nil, err
	}
	classifier := ai.NewClassifier(classifyStage, cfg.AI.Classifier.DefaultCategory, logger)

	logger.Info("collect pipeline ready",
		"stages", chain.Stages(),
		"classifier_model", cfg.AI.Classifier.Model,
		"staleness_window", cfg.Collect.StalenessWindow.String(),
	)

	return collector.NewCollector(
		setupSearcher(cfg, logger),
		chain,
		classifier,
		insights,
		keywords,
		n,
		collector.NewPolicy(cfg.Collect.StalenessWindow),
		collector.Config{
			ResultCount:        cfg.Search.ResultCount,
			KeywordConcurrency: cfg.Collect.KeywordConcurrency,
		},
		logger,
	), nil
}

func buildStructurer(
	cfg *config.Config,
	insights model.InsightStore,
	structured model.StructuredStore,
	logger *slog.Logger,
) (*collector.Structurer, error) {
	tok, err := tokenizerFor(cfg.AI.Structure.Model)
	if err != nil {
		return nil, err
	}
	extractor := ai.NewExtractor(setupProvider(cfg, logger), cfg.AI.Structure.Model)
	return collector.NewStructurer(
		insights,
		structured,
		extractor,
		tok,
		cfg.AI.Structure.MaxInputTokens,
		logger,
	), nil
}
