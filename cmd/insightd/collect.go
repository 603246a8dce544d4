package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/insightd/internal/model"
	"github.com/amishk599/insightd/internal/store"
)

var (
	collectAll    bool
	collectNum    int
	collectDryRun bool
)

var collectCmd = &cobra.Command{
	Use:   "collect [keyword]",
	Short: "Run the collect pipeline once",
	Long: "Collects insights for a single keyword, or for every active keyword with --all.\n" +
		"--dry-run runs search, fetch and the model calls but writes nothing.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().BoolVar(&collectAll, "all", false, "collect every active keyword and send the run notification")
	collectCmd.Flags().IntVarP(&collectNum, "num", "n", 0, "search results to process (1-10, default: search.result_count)")
	collectCmd.Flags().BoolVar(&collectDryRun, "dry-run", false, "treat every link as new and write nothing")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	if collectAll == (len(args) == 1) {
		return errors.New("pass exactly one of a keyword or --all")
	}

	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if collectNum != 0 {
		if collectNum < 1 || collectNum > 10 {
			return fmt.Errorf("--num must be between 1 and 10, got %d", collectNum)
		}
		cfg.Search.ResultCount = collectNum
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Collect.RunTimeout)
	defer cancel()

	st, err := setupStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var (
		insights model.InsightStore = st
		keywords model.KeywordStore = st
	)
	if collectDryRun {
		logger.Info("dry-run mode enabled, nothing will be written")
		dry := store.NewDryRunStore(st)
		insights, keywords = dry, dry
	}

	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	coll, err := buildCollector(cfg, insights, keywords, n, logger)
	if err != nil {
		logger.Error("failed to build collector", "error", err)
		os.Exit(1)
	}

	if collectAll {
		statuses, err := coll.CollectAll(ctx, cfg.Search.ResultCount)
		if err != nil {
			logger.Error("collect run failed", "error", err)
			os.Exit(1)
		}
		printStatuses(statuses)
		return nil
	}

	touched, err := coll.Collect(ctx, args[0], cfg.Search.ResultCount)
	printInsights(touched)
	if err != nil {
		logger.Error("collect failed", "keyword", args[0], "error", err)
		os.Exit(1)
	}
	return nil
}

func printStatuses(statuses []model.KeywordStatus) {
	fmt.Printf("%-30s %-8s %8s  %s\n", "Keyword", "Status", "Insights", "Error")
	fmt.Println(strings.Repeat("─", 60))
	for _, s := range statuses {
		fmt.Printf("%-30s %-8s %8d  %s\n", s.Keyword, s.Status, s.InsightsCount, s.Error)
	}
	fmt.Printf("\nTotal: %d keywords\n", len(statuses))
}

func printInsights(insights []model.Insight) {
	if len(insights) == 0 {
		fmt.Println("No insights created or refreshed.")
		return
	}
	for _, in := range insights {
		fmt.Printf("[%s] %s\n", in.Category, in.SourceURL)
		fmt.Printf("    %s\n\n", preview(in.Content, 160))
	}
	fmt.Printf("Total: %d insights\n", len(insights))
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
