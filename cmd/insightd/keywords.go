package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/insightd/internal/model"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Manage search keywords",
}

var keywordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all search keywords",
	RunE:  runKeywordsList,
}

var keywordsAddCmd = &cobra.Command{
	Use:   "add <keyword>...",
	Short: "Add active search keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKeywordsAdd,
}

var keywordsEnableCmd = &cobra.Command{
	Use:   "enable <keyword>",
	Short: "Include a keyword in scheduled collect runs",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setKeywordActive(args[0], true) },
}

var keywordsDisableCmd = &cobra.Command{
	Use:   "disable <keyword>",
	Short: "Exclude a keyword from scheduled collect runs",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setKeywordActive(args[0], false) },
}

func init() {
	keywordsCmd.AddCommand(keywordsListCmd, keywordsAddCmd, keywordsEnableCmd, keywordsDisableCmd)
	rootCmd.AddCommand(keywordsCmd)
}

// withKeywordStore opens the configured store for a short keyword command.
func withKeywordStore(fn func(ctx context.Context, keywords model.KeywordStore) error) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := setupStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	return fn(ctx, st)
}

func runKeywordsList(cmd *cobra.Command, args []string) error {
	return withKeywordStore(func(ctx context.Context, keywords model.KeywordStore) error {
		list, err := keywords.ListKeywords(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-30s %-10s %s\n", "Keyword", "Status", "Last searched")
		fmt.Println(strings.Repeat("─", 60))

		active, inactive := 0, 0
		for _, k := range list {
			status := "active"
			if !k.IsActive {
				status = "disabled"
				inactive++
			} else {
				active++
			}
			last := "never"
			if k.LastSearchedAt != nil {
				last = k.LastSearchedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Printf("%-30s %-10s %s\n", k.Keyword, status, last)
		}

		fmt.Printf("\nTotal: %d keywords (%d active, %d disabled)\n", len(list), active, inactive)
		return nil
	})
}

func runKeywordsAdd(cmd *cobra.Command, args []string) error {
	return withKeywordStore(func(ctx context.Context, keywords model.KeywordStore) error {
		for _, kw := range args {
			if err := keywords.AddKeyword(ctx, kw); err != nil {
				return err
			}
			fmt.Printf("added %q\n", strings.TrimSpace(kw))
		}
		return nil
	})
}

func setKeywordActive(keyword string, active bool) error {
	return withKeywordStore(func(ctx context.Context, keywords model.KeywordStore) error {
		err := keywords.SetKeywordActive(ctx, keyword, active)
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("unknown keyword %q", keyword)
		}
		if err != nil {
			return err
		}
		state := "enabled"
		if !active {
			state = "disabled"
		}
		fmt.Printf("%s %q\n", state, keyword)
		return nil
	})
}
