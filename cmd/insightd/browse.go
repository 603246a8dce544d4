package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/insightd/internal/browse"
	"github.com/amishk599/insightd/internal/model"
	"github.com/amishk599/insightd/internal/store"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse collected insights interactively (TUI)",
	Long:  "Shows the keyword picker TUI, then launches the split-pane insight view.",
	RunE:  runBrowseCmd,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// No logger here: log output before the alt-screen starts corrupts the display.
	st, err := setupStore(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	runBrowse(st)
	return nil
}

func runBrowse(st *store.SQLStore) {
	for {
		keywords, err := st.ListKeywords(context.Background())
		if err != nil {
			fmt.Printf("Error loading keywords: %v\n", err)
			return
		}

		choice, err := browse.RunKeywordPicker(keywords)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		keyword := keywords[choice].Keyword

		insights, err := browse.RunLoader(keyword, func(ctx context.Context) ([]model.Insight, error) {
			return st.ListInsights(ctx, model.InsightFilter{SearchWord: keyword})
		})
		if err != nil {
			fmt.Printf("Error loading insights: %v\n", err)
			continue
		}

		wantQuit, err := browse.RunBrowseTUI(keyword, insights)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
