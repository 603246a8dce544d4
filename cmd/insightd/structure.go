package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Rebuild structured visa, culture and industry info once",
	Long:  "Runs the structured-info job against every stored insight and upserts the results.",
	RunE:  runStructure,
}

func init() {
	rootCmd.AddCommand(structureCmd)
}

func runStructure(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
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

	structurer, err := buildStructurer(cfg, st, st, logger)
	if err != nil {
		logger.Error("failed to build structurer", "error", err)
		os.Exit(1)
	}
	reports, runErr := structurer.Run(ctx)

	fmt.Printf("%-10s %8s %9s %8s  %s\n", "Category", "Batches", "Upserted", "Skipped", "Error")
	fmt.Println(strings.Repeat("─", 50))
	for _, r := range reports {
		fmt.Printf("%-10s %8d %9d %8d  %s\n", r.Category, r.Batches, r.Upserted, r.Skipped, r.Error)
	}

	if runErr != nil {
		logger.Error("structure run finished with errors", "error", runErr)
		os.Exit(1)
	}
	return nil
}
