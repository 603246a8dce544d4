package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/insightd/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Check the collect run-summary notifier",
	Long: "After every collect --all run (and every scheduled collect job) insightd sends one\n" +
		"summary: keyword count, insights created or refreshed, failed keywords, and one\n" +
		"success/error line per keyword. notification.type selects log or slack.",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a sample run summary",
	Long: "Sends a one-keyword run summary for the keyword \"insightd test\" through the\n" +
		"configured notifier. With type slack this posts a Block Kit message to the webhook;\n" +
		"with type log it prints the summary lines to stdout.",
	RunE: runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, logger)

	if err := notifier.SendTestMessage(context.Background(), n); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}
